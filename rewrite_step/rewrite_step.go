package rewrite_step

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/serisow/humanizer/pipeline_type"
	"github.com/serisow/humanizer/services/inference_service"
)

// DefaultModel is a lighter text2text model used for rewriting.
const DefaultModel = "google/flan-t5-base"

const (
	standardPrompt = "Rewrite this text to make it more human-like and natural: "
	enhancedPrompt = "Significantly rewrite and humanize this text to make it appear completely human-written: "
)

type RewriteStepImpl struct {
	InferenceService inference_service.InferenceService
	Model            string
	Logger           *slog.Logger
}

// BuildPrompt wraps text in the standard or enhanced rewriting instruction.
func BuildPrompt(text string, enhanced bool) string {
	if enhanced {
		return enhancedPrompt + text
	}
	return standardPrompt + text
}

// Rewrite asks the remote model to rewrite text. The model is told never to
// shrink the text.
func (s *RewriteStepImpl) Rewrite(ctx context.Context, text string, enhanced bool) (pipeline_type.StepOutcome, error) {
	if s.InferenceService == nil {
		return pipeline_type.StepOutcome{}, fmt.Errorf("inference service is not initialized for rewrite step")
	}

	length := utf8.RuneCountInString(text)
	resp, err := s.InferenceService.Invoke(ctx, s.model(), BuildPrompt(text, enhanced), map[string]interface{}{
		"max_length": length * 3,
		"min_length": length,
	})
	if err != nil {
		return pipeline_type.StepOutcome{}, err
	}
	return resp.GeneratedText(), nil
}

func (s *RewriteStepImpl) Execute(ctx context.Context, pipelineContext *pipeline_type.Context) (pipeline_type.StepOutcome, error) {
	outcome, err := s.Rewrite(ctx, pipelineContext.CurrentText(), pipelineContext.Options.UseEnhancedRewriting)
	if err != nil {
		return outcome, err
	}
	if !outcome.Usable() && s.Logger != nil {
		s.Logger.Warn("Rewriting failed", slog.String("reason", outcome.Reason))
	}
	return outcome, nil
}

func (s *RewriteStepImpl) GetType() string {
	return pipeline_type.StepRewriting
}

func (s *RewriteStepImpl) model() string {
	if s.Model != "" {
		return s.Model
	}
	return DefaultModel
}
