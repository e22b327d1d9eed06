package inference_service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Settings configures the Hugging Face inference client.
type Settings struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

type HuggingFaceService struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

func NewHuggingFaceService(settings Settings, logger *slog.Logger) *HuggingFaceService {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxAttempts := settings.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &HuggingFaceService{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(settings.BaseURL, "/"),
		token:       settings.Token,
		maxAttempts: maxAttempts,
		retryDelay:  settings.RetryDelay,
		logger:      logger,
	}
}

// WithHTTPClient replaces the underlying client, mostly for tests.
func (s *HuggingFaceService) WithHTTPClient(c *http.Client) *HuggingFaceService {
	s.httpClient = c
	return s
}

func (s *HuggingFaceService) Invoke(ctx context.Context, modelID string, inputs string, parameters map[string]interface{}) (Response, error) {
	if s.token == "" {
		return Response{}, &ConfigurationError{Err: ErrMissingCredential}
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		response, err := s.callModel(ctx, modelID, inputs, parameters)
		if err == nil {
			return response, nil
		}

		if attempt == s.maxAttempts || !retryable(ctx, err) {
			s.logger.Error("Inference call failed",
				slog.String("model", modelID),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return Failed(err.Error()), nil
		}

		s.logger.Warn("Attempt failed, retrying",
			slog.String("model", modelID),
			slog.Int("attempt", attempt),
			slog.Duration("retryDelay", s.retryDelay),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return Failed(ctx.Err().Error()), nil
		case <-time.After(s.retryDelay):
		}
	}

	return Failed("inference call exhausted all attempts"), nil
}

// callModel performs one POST to {baseURL}/{modelID}. Transport failures and
// non-2xx statuses are errors; a 2xx body that is not a non-empty list is a
// failed Response.
func (s *HuggingFaceService) callModel(ctx context.Context, modelID string, inputs string, parameters map[string]interface{}) (Response, error) {
	if parameters == nil {
		parameters = map[string]interface{}{}
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"inputs":     inputs,
		"parameters": parameters,
	})
	if err != nil {
		return Response{}, fmt.Errorf("error marshaling request body: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s", s.baseURL, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return Response{}, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, newHTTPError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("error reading response body: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
		s.logger.Warn("Unexpected inference response format",
			slog.String("model", modelID),
			slog.Int("bodyBytes", len(body)))
		return Failed(ReasonUnexpectedFormat), nil
	}

	return Response{Items: items}, nil
}

// retryable reports whether another attempt may succeed. A client timeout is
// retried; a cancelled or expired request context is not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}
