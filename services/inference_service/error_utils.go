package inference_service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// providerError is the error body returned by the inference API, e.g.
// {"error": "Model is currently loading", "estimated_time": 20.0}.
type providerError struct {
	Error         interface{} `json:"error"`
	EstimatedTime float64     `json:"estimated_time,omitempty"`
}

// HTTPError is a non-2xx answer from the inference API.
type HTTPError struct {
	StatusCode int
	Message    string
	RawBody    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("inference API error (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("inference API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether another attempt may succeed.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// newHTTPError reads the response body and extracts the provider message.
func newHTTPError(resp *http.Response) *HTTPError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &HTTPError{StatusCode: resp.StatusCode}
	}

	httpErr := &HTTPError{StatusCode: resp.StatusCode, RawBody: string(body)}

	var pe providerError
	if err := json.Unmarshal(body, &pe); err == nil && pe.Error != nil {
		switch v := pe.Error.(type) {
		case string:
			httpErr.Message = v
		case []interface{}:
			if len(v) > 0 {
				httpErr.Message = fmt.Sprintf("%v", v[0])
			}
		default:
			httpErr.Message = fmt.Sprintf("%v", v)
		}
	}
	return httpErr
}
