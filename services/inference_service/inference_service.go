package inference_service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/serisow/humanizer/pipeline_type"
)

// ReasonUnexpectedFormat is the failure reason for responses that are not a
// non-empty list of objects, or lack the field the caller expects.
const ReasonUnexpectedFormat = "unexpected format"

// ErrMissingCredential is returned before any network call when no API token
// is configured.
var ErrMissingCredential = errors.New("missing credential")

// ConfigurationError marks a non-recoverable setup problem. Callers surface it
// as a server error instead of falling back.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("inference service misconfigured: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// InferenceService calls a named remote model. Expected failures (transport,
// non-2xx, malformed body) come back as a failed Response; the error return is
// reserved for ConfigurationError.
type InferenceService interface {
	Invoke(ctx context.Context, modelID string, inputs string, parameters map[string]interface{}) (Response, error)
}

// Response is the raw list-of-objects body returned by a model.
type Response struct {
	Items  []json.RawMessage
	Reason string
}

func Failed(reason string) Response {
	if reason == "" {
		reason = "inference failed"
	}
	return Response{Reason: reason}
}

func (r Response) OK() bool {
	return r.Reason == ""
}

// GeneratedText extracts the generated_text field of the first item.
func (r Response) GeneratedText() pipeline_type.StepOutcome {
	if !r.OK() {
		return pipeline_type.Failure(r.Reason)
	}
	if len(r.Items) == 0 {
		return pipeline_type.Failure(ReasonUnexpectedFormat)
	}
	var first struct {
		GeneratedText *string `json:"generated_text"`
	}
	if err := json.Unmarshal(r.Items[0], &first); err != nil || first.GeneratedText == nil {
		return pipeline_type.Failure(ReasonUnexpectedFormat)
	}
	return pipeline_type.Success(*first.GeneratedText)
}

// Label is one class reported by a text classifier.
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// TopLabel returns the first label of a classification response. Both the flat
// [{label,score}] and nested [[{label,score},...]] shapes are accepted.
func (r Response) TopLabel() (Label, bool) {
	if !r.OK() || len(r.Items) == 0 {
		return Label{}, false
	}
	first := r.Items[0]
	if trimmed := strings.TrimSpace(string(first)); strings.HasPrefix(trimmed, "[") {
		var inner []Label
		if err := json.Unmarshal(first, &inner); err != nil || len(inner) == 0 {
			return Label{}, false
		}
		return validLabel(inner[0])
	}
	var l Label
	if err := json.Unmarshal(first, &l); err != nil {
		return Label{}, false
	}
	return validLabel(l)
}

func validLabel(l Label) (Label, bool) {
	if l.Label == "" {
		return Label{}, false
	}
	return l, true
}
