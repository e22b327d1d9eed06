package paraphrase_step

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/serisow/humanizer/pipeline_type"
	"github.com/serisow/humanizer/services/inference_service"
)

const (
	DefaultModel = "humarin/chatgpt_paraphraser_on_T5_base"

	inputPrefix = "paraphrase: "
	// Some T5 paraphrasers echo the task separator back.
	outputArtifact = ": "
)

type ParaphraseStepImpl struct {
	InferenceService inference_service.InferenceService
	DefaultModel     string
	Logger           *slog.Logger
}

// Paraphrase asks the remote model for a paraphrase of text. An empty model
// selects the step default.
func (s *ParaphraseStepImpl) Paraphrase(ctx context.Context, text, model string) (pipeline_type.StepOutcome, string, error) {
	if s.InferenceService == nil {
		return pipeline_type.StepOutcome{}, "", fmt.Errorf("inference service is not initialized for paraphrase step")
	}

	model = s.resolveModel(model)
	length := utf8.RuneCountInString(text)

	resp, err := s.InferenceService.Invoke(ctx, model, inputPrefix+text, map[string]interface{}{
		"max_length": length * 2,
		"min_length": length / 2,
	})
	if err != nil {
		return pipeline_type.StepOutcome{}, model, err
	}

	outcome := resp.GeneratedText()
	if !outcome.OK() {
		return outcome, model, nil
	}
	return pipeline_type.Success(strings.TrimPrefix(outcome.Text, outputArtifact)), model, nil
}

func (s *ParaphraseStepImpl) Execute(ctx context.Context, pipelineContext *pipeline_type.Context) (pipeline_type.StepOutcome, error) {
	outcome, model, err := s.Paraphrase(ctx, pipelineContext.CurrentText(), pipelineContext.Options.ParaphraseModel)
	if err != nil {
		return outcome, err
	}
	if outcome.Usable() {
		pipelineContext.Set(pipeline_type.ContextKeyModelUsed, model)
	} else if s.Logger != nil {
		s.Logger.Warn("Paraphrasing failed or skipped",
			slog.String("model", model),
			slog.String("reason", outcome.Reason))
	}
	return outcome, nil
}

func (s *ParaphraseStepImpl) GetType() string {
	return pipeline_type.StepParaphrasing
}

func (s *ParaphraseStepImpl) resolveModel(model string) string {
	if model != "" {
		return model
	}
	if s.DefaultModel != "" {
		return s.DefaultModel
	}
	return DefaultModel
}
