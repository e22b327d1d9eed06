package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/serisow/humanizer/bootstrap"
	"github.com/serisow/humanizer/config"
	"github.com/serisow/humanizer/services/inference_service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		HFAPIToken:       "token",
		ParaphraseModels: []string{"test/paraphraser"},
		RewriteModel:     "test/rewriter",
		DetectorModels:   []string{"test/detector"},
		BasePaths:        []string{"/.netlify/functions/api", "/api/"},
	}
	mock := &inference_service.MockInferenceService{
		InvokeFunc: func(ctx context.Context, modelID string, inputs string, parameters map[string]interface{}) (inference_service.Response, error) {
			if modelID == "test/detector" {
				return inference_service.Response{Items: []json.RawMessage{json.RawMessage(`{"label":"Real","score":0.6}`)}}, nil
			}
			return inference_service.Response{Items: []json.RawMessage{json.RawMessage(`{"generated_text":"Some humanized text."}`)}}, nil
		},
	}
	logger := testLogger()
	srv := httptest.NewServer(NewHandler(bootstrap.New(cfg, logger, mock), logger))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouting(t *testing.T) {
	srv := newTestServer(t)
	body := `{"text":"A sufficiently long text for every route."}`

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{"Root", http.MethodGet, "/", "", http.StatusOK, `"status":"healthy"`},
		{"Health", http.MethodGet, "/health", "", http.StatusOK, `"version":"3.0.0"`},
		{"Models with trailing slash", http.MethodGet, "/models/", "", http.StatusOK, `"available_models":["test/paraphraser"]`},
		{"Humanize", http.MethodPost, "/humanize", body, http.StatusOK, `"humanized_text":"Some humanized text."`},
		{"Netlify base path", http.MethodPost, "/.netlify/functions/api/humanize", body, http.StatusOK, `"success":true`},
		{"API base path", http.MethodPost, "/api/detect/", body, http.StatusOK, `"detection_method":"ensemble"`},
		{"Base path root", http.MethodGet, "/api", "", http.StatusOK, `"status":"healthy"`},
		{"Combined route", http.MethodPost, "/humanize_and_check", body, http.StatusOK, `"improvement"`},
		{"Unknown path", http.MethodGet, "/nope", "", http.StatusNotFound, `{"error":"Endpoint not found"}`},
		{"Wrong method", http.MethodGet, "/humanize", "", http.StatusNotFound, `{"error":"Endpoint not found"}`},
		{"Prefix lookalike is not stripped", http.MethodGet, "/apiary/health", "", http.StatusNotFound, `Endpoint not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("Failed to build request: %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()
			raw, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, resp.StatusCode, raw)
			}
			if !strings.Contains(string(raw), tt.expectedBody) {
				t.Errorf("Expected body containing %q, got %s", tt.expectedBody, raw)
			}
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Expected CORS origin header, got %q", got)
			}
			if got := resp.Header.Get("Content-Type"); got != "application/json" {
				t.Errorf("Expected JSON content type, got %q", got)
			}
			if resp.Header.Get(requestIDHeader) == "" {
				t.Error("Expected a request id header")
			}
		})
	}
}

func TestOptionsPreflight(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/humanize", "/anything/at/all"} {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK || len(raw) != 0 {
			t.Errorf("%s: expected empty 200, got %d %q", path, resp.StatusCode, raw)
		}
		if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
			t.Errorf("%s: unexpected allow-methods %q", path, got)
		}
		if got := resp.Header.Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Errorf("%s: unexpected allow-headers %q", path, got)
		}
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(requestIDHeader); got != "abc-123" {
		t.Errorf("Expected request id abc-123, got %q", got)
	}
}

func TestRecoveryAnswersJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	newRecovery(testLogger()).ServeHTTP(rr, req, func(w http.ResponseWriter, r *http.Request) {
		CORS(w, r, func(w http.ResponseWriter, req *http.Request) {
			panic("boom")
		})
	})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rr.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected a JSON body, got %q", rr.Body.String())
	}
	if body["error"] != "Internal server error" || body["success"] != false {
		t.Errorf("Unexpected body %v", body)
	}
}

func TestNormalize(t *testing.T) {
	s := NewStripBasePaths([]string{"/.netlify/functions/api", "/api/", "  "})
	tests := map[string]string{
		"/":                                "/",
		"":                                 "/",
		"/humanize/":                       "/humanize",
		"/api":                             "/",
		"/api/":                            "/",
		"/api/models":                      "/models",
		"/.netlify/functions/api/detect//": "/detect",
		"/apiary":                          "/apiary",
		"/health":                          "/health",
	}
	for in, expected := range tests {
		if got := s.Normalize(in); got != expected {
			t.Errorf("Normalize(%q) = %q, expected %q", in, got, expected)
		}
	}
}

func TestWriteTimeout(t *testing.T) {
	cfg := config.Config{
		InferenceTimeout:     2 * time.Second,
		InferenceRetryDelay:  time.Second,
		InferenceMaxAttempts: 2,
		DetectorModels:       []string{"a", "b"},
	}
	// (2 + 2*2) calls * 2 attempts * 3s + 10s
	if got := writeTimeout(cfg); got != 46*time.Second {
		t.Errorf("Expected 46s, got %v", got)
	}
}
