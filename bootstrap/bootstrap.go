// Package bootstrap wires configuration into the humanization pipeline and the
// detector, and records once whether the model-backed features are usable.
package bootstrap

import (
	"log/slog"

	"github.com/serisow/humanizer/cleaning_step"
	"github.com/serisow/humanizer/config"
	"github.com/serisow/humanizer/paraphrase_step"
	"github.com/serisow/humanizer/pipeline"
	"github.com/serisow/humanizer/pipeline/step"
	"github.com/serisow/humanizer/pipeline_type"
	"github.com/serisow/humanizer/plugin_registry"
	"github.com/serisow/humanizer/rewrite_step"
	"github.com/serisow/humanizer/services/detection_service"
	"github.com/serisow/humanizer/services/inference_service"
)

// InferenceServiceName is the registry key of the remote model provider.
const InferenceServiceName = "huggingface"

// Services is the fully wired backend shared by every entry point.
type Services struct {
	// Available is false when the model-backed routes cannot work; Reason says why.
	Available bool
	Reason    string

	Config    config.Config
	Registry  *plugin_registry.PluginRegistry
	Humanizer *pipeline.Humanizer
	Detector  *detection_service.AITextDetector
}

// Init builds the services on top of the Hugging Face inference API.
func Init(cfg config.Config, logger *slog.Logger) *Services {
	service := inference_service.NewHuggingFaceService(inference_service.Settings{
		BaseURL:     cfg.HFAPIURL,
		Token:       cfg.HFAPIToken,
		Timeout:     cfg.InferenceTimeout,
		MaxAttempts: cfg.InferenceMaxAttempts,
		RetryDelay:  cfg.InferenceRetryDelay,
	}, logger)
	return New(cfg, logger, service)
}

// New builds the services on top of an arbitrary inference service.
func New(cfg config.Config, logger *slog.Logger, service inference_service.InferenceService) *Services {
	registry := plugin_registry.NewPluginRegistry()
	registry.RegisterInferenceService(InferenceServiceName, service)
	registerStepTypes(registry, cfg, logger)

	s := &Services{
		Available: true,
		Config:    cfg,
		Registry:  registry,
		Humanizer: pipeline.NewHumanizer(registry, logger),
		Detector:  detection_service.NewAITextDetector(service, cfg.DetectorModels, logger),
	}

	if cfg.HFAPIToken == "" {
		s.Available = false
		s.Reason = "HF_API_TOKEN is not set"
		logger.Error("Model-backed features disabled", slog.String("reason", s.Reason))
	} else {
		logger.Info("Model-backed features enabled",
			slog.String("paraphraseModel", cfg.DefaultParaphraseModel()),
			slog.String("rewriteModel", cfg.RewriteModel),
			slog.Any("detectorModels", s.Detector.Models()))
	}

	return s
}

// registerStepTypes resolves the inference service from the registry each time
// a step is built, so a re-registered service takes effect on the next run.
func registerStepTypes(registry *plugin_registry.PluginRegistry, cfg config.Config, logger *slog.Logger) {
	service := func() inference_service.InferenceService {
		s, _ := registry.GetInferenceService(InferenceServiceName)
		return s
	}

	registry.RegisterStepType(pipeline_type.StepParaphrasing, func() step.Step {
		return &paraphrase_step.ParaphraseStepImpl{
			InferenceService: service(),
			DefaultModel:     cfg.DefaultParaphraseModel(),
			Logger:           logger,
		}
	})
	registry.RegisterStepType(pipeline_type.StepRewriting, func() step.Step {
		return &rewrite_step.RewriteStepImpl{
			InferenceService: service(),
			Model:            cfg.RewriteModel,
			Logger:           logger,
		}
	})
	registry.RegisterStepType(pipeline_type.StepTextCleaning, func() step.Step {
		return &cleaning_step.CleaningStepImpl{}
	})
}
