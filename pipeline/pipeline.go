package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/serisow/humanizer/pipeline_type"
	"github.com/serisow/humanizer/plugin_registry"
	"github.com/serisow/humanizer/services/inference_service"
)

// Humanizer runs paraphrasing, rewriting and text cleaning over a text. Every
// step degrades gracefully: a failed step leaves the best text so far in place.
type Humanizer struct {
	registry *plugin_registry.PluginRegistry
	logger   *slog.Logger
}

func NewHumanizer(registry *plugin_registry.PluginRegistry, logger *slog.Logger) *Humanizer {
	return &Humanizer{
		registry: registry,
		logger:   logger,
	}
}

// Plan returns the ordered step types executed for opts.
func Plan(opts pipeline_type.Options) []string {
	plan := make([]string, 0, 3)
	if opts.UseParaphrasing {
		plan = append(plan, pipeline_type.StepParaphrasing)
	}
	return append(plan, pipeline_type.StepRewriting, pipeline_type.StepTextCleaning)
}

// Humanize returns the humanized text and the statistics of the run. It only
// fails with a ConfigurationError; any other fault returns the original text
// with statistics annotated by the error.
func (h *Humanizer) Humanize(ctx context.Context, text string, opts pipeline_type.Options) (result string, stats pipeline_type.Statistics, err error) {
	stats = pipeline_type.Statistics{
		OriginalLength:        utf8.RuneCountInString(text),
		EnhancedRewritingUsed: opts.UseEnhancedRewriting,
		ProcessingSteps:       []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			result, stats = h.abort(text, stats, fmt.Errorf("panic: %v", r))
			err = nil
		}
	}()

	pctx := pipeline_type.NewContext(text, opts)

	for _, stepType := range Plan(opts) {
		s, err := h.registry.GetStepInstance(stepType)
		if err != nil {
			result, stats = h.abort(text, stats, err)
			return result, stats, nil
		}

		h.logger.Info("Starting step", slog.String("step", stepType))
		outcome, err := s.Execute(ctx, pctx)
		if err != nil {
			if inference_service.IsConfigurationError(err) {
				return text, stats, err
			}
			result, stats = h.abort(text, stats, fmt.Errorf("%s: %w", stepType, err))
			return result, stats, nil
		}

		// Cleaning is total, so it is recorded even if it produced blank text.
		accepted := outcome.Usable() || (stepType == pipeline_type.StepTextCleaning && outcome.OK())
		if !accepted {
			reason := outcome.Reason
			if outcome.OK() {
				reason = "empty output"
			}
			h.logger.Warn("Step failed, keeping previous text",
				slog.String("step", stepType),
				slog.String("reason", reason))
			stats.AddStep(pipeline_type.FailedStep(stepType))
			continue
		}

		pctx.Adopt(outcome.Text)
		stats.AddStep(stepType)

		if stepType == pipeline_type.StepParaphrasing {
			stats.ParaphrasingUsed = true
			if model := pctx.GetString(pipeline_type.ContextKeyModelUsed); model != "" {
				stats.ModelUsed = &model
			}
		}
	}

	result = pctx.CurrentText()
	stats.FinalLength = utf8.RuneCountInString(result)
	stats.LengthChange = stats.FinalLength - stats.OriginalLength

	h.logger.Info("Humanization complete",
		slog.Any("steps", stats.ProcessingSteps),
		slog.Int("lengthChange", stats.LengthChange))

	return result, stats, nil
}

// abort gives back the original text with statistics marked by cause.
func (h *Humanizer) abort(text string, stats pipeline_type.Statistics, cause error) (string, pipeline_type.Statistics) {
	h.logger.Error("Error in humanization pipeline", slog.String("error", cause.Error()))

	steps := make([]string, 0, len(stats.ProcessingSteps)+1)
	steps = append(steps, stats.ProcessingSteps...)
	stats.ProcessingSteps = append(steps, pipeline_type.StepError)
	stats.Error = cause.Error()
	stats.FinalLength = stats.OriginalLength
	stats.LengthChange = 0
	return text, stats
}

// UsableText replaces a blank humanization result with the input and keeps
// the statistics lengths consistent with the returned text.
func UsableText(input, result string, stats pipeline_type.Statistics) (string, pipeline_type.Statistics) {
	if strings.TrimSpace(result) != "" {
		return result, stats
	}
	stats.FinalLength = utf8.RuneCountInString(input)
	stats.LengthChange = stats.FinalLength - stats.OriginalLength
	return input, stats
}
