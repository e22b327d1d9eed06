package pipeline_type

// Context carries the working text and per-run state between humanization steps.
// A Context belongs to a single request and is never shared.
type Context struct {
	Data        map[string]interface{}
	Options     Options
	currentText string
}

func NewContext(input string, opts Options) *Context {
	return &Context{
		Data:        make(map[string]interface{}),
		Options:     opts,
		currentText: input,
	}
}

func (c *Context) Set(key string, value interface{}) {
	c.Data[key] = value
}

// GetString returns the string stored under key, or "" when absent.
func (c *Context) GetString(key string) string {
	if v, ok := c.Data[key].(string); ok {
		return v
	}
	return ""
}

// CurrentText is the best text obtained so far.
func (c *Context) CurrentText() string {
	return c.currentText
}

// Adopt makes text the working text.
func (c *Context) Adopt(text string) {
	c.currentText = text
}
