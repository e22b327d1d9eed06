package plugin_registry

import (
	"fmt"
	"sort"

	"github.com/serisow/humanizer/pipeline/step"
	"github.com/serisow/humanizer/services/inference_service"
)

type PluginRegistry struct {
	stepTypes         map[string]func() step.Step
	inferenceServices map[string]inference_service.InferenceService
}

func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		stepTypes:         make(map[string]func() step.Step),
		inferenceServices: make(map[string]inference_service.InferenceService),
	}
}

// RegisterStepType registers a new step type
func (pr *PluginRegistry) RegisterStepType(typeName string, factory func() step.Step) {
	pr.stepTypes[typeName] = factory
}

// GetStepInstance returns a new instance of a step type
func (pr *PluginRegistry) GetStepInstance(typeName string) (step.Step, error) {
	factory, ok := pr.stepTypes[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown step type: %s", typeName)
	}
	return factory(), nil
}

// StepTypes lists the registered step type names in sorted order.
func (pr *PluginRegistry) StepTypes() []string {
	names := make([]string, 0, len(pr.stepTypes))
	for name := range pr.stepTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterInferenceService registers a new inference service
func (pr *PluginRegistry) RegisterInferenceService(name string, service inference_service.InferenceService) {
	pr.inferenceServices[name] = service
}

// GetInferenceService returns an inference service by name
func (pr *PluginRegistry) GetInferenceService(name string) (inference_service.InferenceService, bool) {
	service, ok := pr.inferenceServices[name]
	return service, ok
}
