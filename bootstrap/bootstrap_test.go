package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/serisow/humanizer/config"
	"github.com/serisow/humanizer/pipeline"
	"github.com/serisow/humanizer/pipeline_type"
	"github.com/serisow/humanizer/plugin_registry"
	"github.com/serisow/humanizer/services/inference_service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	var models []string
	mock := &inference_service.MockInferenceService{
		InvokeFunc: func(ctx context.Context, modelID string, inputs string, parameters map[string]interface{}) (inference_service.Response, error) {
			models = append(models, modelID)
			return inference_service.Failed("offline"), nil
		},
	}
	cfg := config.Config{
		HFAPIToken:       "token",
		ParaphraseModels: []string{"p/one", "p/two"},
		RewriteModel:     "r/one",
		DetectorModels:   []string{"d/one", "d/two"},
	}

	s := New(cfg, testLogger(), mock)

	if !s.Available || s.Reason != "" {
		t.Fatalf("Expected available services, got %+v", s)
	}
	expectedSteps := []string{"paraphrasing", "rewriting", "text_cleaning"}
	if got := s.Registry.StepTypes(); !reflect.DeepEqual(got, expectedSteps) {
		t.Errorf("Expected step types %v, got %v", expectedSteps, got)
	}
	if service, ok := s.Registry.GetInferenceService(InferenceServiceName); !ok || service != mock {
		t.Error("Expected the inference service to be registered")
	}
	if !reflect.DeepEqual(s.Detector.Models(), cfg.DetectorModels) {
		t.Errorf("Unexpected detector models %v", s.Detector.Models())
	}

	// The configured models reach the remote calls.
	if _, _, err := s.Humanizer.Humanize(context.Background(), "some text to humanize", pipeline_type.Options{UseParaphrasing: true}); err != nil {
		t.Fatalf("Did not expect an error but got: %v", err)
	}
	if _, err := s.Detector.DetectEnsemble(context.Background(), "some text to classify"); err != nil {
		t.Fatalf("Did not expect an error but got: %v", err)
	}
	expectedModels := []string{"p/one", "r/one", "d/one", "d/two"}
	if !reflect.DeepEqual(models, expectedModels) {
		t.Errorf("Expected calls to %v, got %v", expectedModels, models)
	}
}

func TestStepsUseRegisteredService(t *testing.T) {
	initial := &inference_service.MockInferenceService{
		InvokeFunc: func(ctx context.Context, modelID string, inputs string, parameters map[string]interface{}) (inference_service.Response, error) {
			t.Error("Expected the replaced service to be used")
			return inference_service.Failed("offline"), nil
		},
	}
	var calls int
	replacement := &inference_service.MockInferenceService{
		InvokeFunc: func(ctx context.Context, modelID string, inputs string, parameters map[string]interface{}) (inference_service.Response, error) {
			calls++
			return inference_service.Failed("offline"), nil
		},
	}

	s := New(config.Config{HFAPIToken: "token"}, testLogger(), initial)
	s.Registry.RegisterInferenceService(InferenceServiceName, replacement)

	if _, _, err := s.Humanizer.Humanize(context.Background(), "some text to humanize", pipeline_type.Options{UseParaphrasing: true}); err != nil {
		t.Fatalf("Did not expect an error but got: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected paraphrase and rewrite calls on the registered service, got %d", calls)
	}
}

func TestStepsWithoutRegisteredService(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()
	registerStepTypes(registry, config.Config{}, testLogger())

	_, stats, err := pipeline.NewHumanizer(registry, testLogger()).Humanize(context.Background(), "some text to humanize", pipeline_type.Options{})
	if err != nil {
		t.Fatalf("Did not expect an error but got: %v", err)
	}
	if !strings.Contains(stats.Error, "inference service is not initialized") {
		t.Errorf("Expected a pipeline error when no inference service is registered, got %q", stats.Error)
	}
}

func TestNewWithoutCredential(t *testing.T) {
	s := New(config.Config{}, testLogger(), &inference_service.MockInferenceService{})
	if s.Available {
		t.Fatal("Expected services to be unavailable without a token")
	}
	if s.Reason != "HF_API_TOKEN is not set" {
		t.Errorf("Unexpected reason %q", s.Reason)
	}
}

func TestInitRejectsCallsWithoutCredential(t *testing.T) {
	s := Init(config.Config{HFAPIURL: "http://127.0.0.1:0"}, testLogger())
	_, err := s.Detector.DetectEnsemble(context.Background(), "some text to classify")
	if !inference_service.IsConfigurationError(err) {
		t.Errorf("Expected a ConfigurationError, got %v", err)
	}
}
