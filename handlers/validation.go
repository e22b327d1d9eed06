package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	maxTextLength      = 50000
	minHumanizeLength  = 10
	minDetectionLength = 20
	maxBodyBytes       = 1 << 20
)

// ValidationError is a malformed or out-of-range request body.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// textRequest is the union of the fields accepted by the model-backed routes.
// Pointers distinguish absent fields from zero values.
type textRequest struct {
	Text               *string  `json:"text"`
	Paraphrasing       *bool    `json:"paraphrasing"`
	Enhanced           *bool    `json:"enhanced"`
	Model              *string  `json:"model"`
	Threshold          *float64 `json:"threshold"`
	DetectionThreshold *float64 `json:"detection_threshold"`
}

func decodeRequest(r *http.Request) (textRequest, error) {
	var req textRequest
	if r.Body == nil {
		return req, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return req, invalid("Invalid request body")
	}
	if strings.TrimSpace(string(body)) == "" {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, invalid("Invalid request body")
	}
	return req, nil
}

func (req textRequest) paraphrasing() bool {
	return req.Paraphrasing == nil || *req.Paraphrasing
}

func (req textRequest) enhanced() bool {
	return req.Enhanced == nil || *req.Enhanced
}

func (req textRequest) model() string {
	if req.Model == nil {
		return ""
	}
	return strings.TrimSpace(*req.Model)
}

// validateHumanizeText checks the /humanize text field and returns it trimmed.
func validateHumanizeText(req textRequest) (string, error) {
	if req.Text == nil {
		return "", invalid("Text field is required")
	}
	text := strings.TrimSpace(*req.Text)
	if text == "" {
		return "", invalid("Text cannot be empty")
	}
	return text, checkLength(text, minHumanizeLength, "50000")
}

// validateDetectText checks the /detect text field and returns it trimmed.
func validateDetectText(req textRequest) (string, error) {
	text := trimmed(req.Text)
	if text == "" {
		return "", invalid("No text provided")
	}
	return text, checkLength(text, minDetectionLength, "50,000")
}

// validateCheckText checks the /humanize_and_check text field.
func validateCheckText(req textRequest) (string, error) {
	text := trimmed(req.Text)
	if text == "" {
		return "", invalid("No text provided")
	}
	return text, checkLength(text, minHumanizeLength, "50000")
}

func checkLength(text string, min int, maxLabel string) error {
	n := utf8.RuneCountInString(text)
	if n < min {
		return invalid("Text must be at least %d characters long", min)
	}
	if n > maxTextLength {
		return invalid("Text must be less than %s characters", maxLabel)
	}
	return nil
}

// threshold returns v or the default, rejecting values outside [0,1].
func threshold(v *float64, fallback float64, field string) (float64, error) {
	if v == nil {
		return fallback, nil
	}
	if *v < 0 || *v > 1 {
		return 0, invalid("%s must be between 0 and 1", field)
	}
	return *v, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
