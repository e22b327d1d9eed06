package plugin_registry_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/serisow/humanizer/pipeline/step"
	"github.com/serisow/humanizer/pipeline_type"
	"github.com/serisow/humanizer/plugin_registry"
	"github.com/serisow/humanizer/services/inference_service"
)

type MockStep struct{}

func (s *MockStep) Execute(ctx context.Context, pipelineContext *pipeline_type.Context) (pipeline_type.StepOutcome, error) {
	return pipeline_type.Success(pipelineContext.CurrentText()), nil
}

func (s *MockStep) GetType() string {
	return "mock_step"
}

func TestRegisterAndGetStepType(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	registry.RegisterStepType("mock_step", func() step.Step {
		return &MockStep{}
	})

	stepInstance, err := registry.GetStepInstance("mock_step")
	if err != nil {
		t.Fatalf("Expected to retrieve step instance, got error: %v", err)
	}

	if stepInstance.GetType() != "mock_step" {
		t.Errorf("Expected step type 'mock_step', got '%s'", stepInstance.GetType())
	}
}

func TestGetUnregisteredStepType(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()

	_, err := registry.GetStepInstance("unknown_step")
	if err == nil {
		t.Fatal("Expected error when retrieving unregistered step type, got nil")
	}

	expectedErrorMsg := "unknown step type: unknown_step"
	if err.Error() != expectedErrorMsg {
		t.Errorf("Expected error '%s', got '%s'", expectedErrorMsg, err.Error())
	}
}

func TestStepTypesSorted(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()
	for _, name := range []string{"text_cleaning", "paraphrasing", "rewriting"} {
		registry.RegisterStepType(name, func() step.Step { return &MockStep{} })
	}

	expected := []string{"paraphrasing", "rewriting", "text_cleaning"}
	if got := registry.StepTypes(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestRegisterAndGetInferenceService(t *testing.T) {
	registry := plugin_registry.NewPluginRegistry()
	mockService := &inference_service.MockInferenceService{}

	registry.RegisterInferenceService("mock_service", mockService)

	service, ok := registry.GetInferenceService("mock_service")
	if !ok {
		t.Fatal("Expected to retrieve inference service, but it was not found")
	}
	if service != mockService {
		t.Error("Retrieved inference service does not match the registered service")
	}

	if _, ok := registry.GetInferenceService("unknown_service"); ok {
		t.Error("Expected unknown inference service lookup to fail")
	}
}
