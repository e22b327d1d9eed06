package detection_service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/serisow/humanizer/pipeline_type"
	"github.com/serisow/humanizer/services/inference_service"
)

const (
	DefaultModel     = "roberta-base-openai-detector"
	DefaultThreshold = 0.7

	PredictionAI        = "AI-generated"
	PredictionHuman     = "Human-written"
	PredictionUncertain = "Uncertain"
	PredictionFailed    = "Detection failed"

	neutralProbability = 0.5
)

// aiLabels are classifier labels meaning "machine generated", lower-cased.
var aiLabels = map[string]bool{
	"ai":           true,
	"fake":         true,
	"machine":      true,
	"generated":    true,
	"ai-generated": true,
	"label_1":      true,
}

// IsAILabel reports whether a classifier label denotes AI-generated text.
func IsAILabel(label string) bool {
	return aiLabels[strings.ToLower(strings.TrimSpace(label))]
}

// AITextDetector averages the AI probability reported by several classifier
// models. Models that fail are left out of the average.
type AITextDetector struct {
	inferenceService inference_service.InferenceService
	models           []string
	logger           *slog.Logger
}

func NewAITextDetector(service inference_service.InferenceService, models []string, logger *slog.Logger) *AITextDetector {
	if len(models) == 0 {
		models = []string{DefaultModel}
	}
	return &AITextDetector{
		inferenceService: service,
		models:           models,
		logger:           logger,
	}
}

// Models lists the configured detector models.
func (d *AITextDetector) Models() []string {
	return append([]string(nil), d.models...)
}

// DetectEnsemble queries every model in order. It only fails with a
// ConfigurationError.
func (d *AITextDetector) DetectEnsemble(ctx context.Context, text string) (pipeline_type.DetectionResult, error) {
	var (
		results     []pipeline_type.ModelResult
		reasons     []string
		formatOnly  = true
		probability float64
	)

	for _, model := range d.models {
		resp, err := d.inferenceService.Invoke(ctx, model, text, nil)
		if err != nil {
			return pipeline_type.DetectionResult{}, err
		}

		label, ok := resp.TopLabel()
		if !ok {
			reason := resp.Reason
			if resp.OK() || reason == inference_service.ReasonUnexpectedFormat {
				reason = inference_service.ReasonUnexpectedFormat
			} else {
				formatOnly = false
			}
			d.logger.Warn("Detector model failed",
				slog.String("model", model),
				slog.String("reason", reason))
			reasons = append(reasons, fmt.Sprintf("%s: %s", model, reason))
			continue
		}

		result := scoreModel(model, label)
		probability += result.AIProbability
		results = append(results, result)
	}

	if len(results) == 0 {
		prediction := PredictionFailed
		if formatOnly {
			prediction = PredictionUncertain
		}
		return pipeline_type.DetectionResult{
			EnsembleAIProbability:    neutralProbability,
			EnsembleHumanProbability: neutralProbability,
			Prediction:               prediction,
			Confidence:               0,
			ModelsUsed:               []string{},
			IndividualResults:        []pipeline_type.ModelResult{},
			Fallback:                 true,
			Error:                    strings.Join(reasons, "; "),
		}, nil
	}

	ai := clamp(probability / float64(len(results)))
	modelsUsed := make([]string, len(results))
	for i, r := range results {
		modelsUsed[i] = r.Model
	}

	return pipeline_type.DetectionResult{
		EnsembleAIProbability:    ai,
		EnsembleHumanProbability: 1 - ai,
		Prediction:               predict(ai),
		Confidence:               Confidence(ai),
		ModelsUsed:               modelsUsed,
		IndividualResults:        results,
	}, nil
}

// IsAIGenerated thresholds the ensemble AI probability and returns the
// ensemble confidence alongside.
func (d *AITextDetector) IsAIGenerated(ctx context.Context, text string, threshold float64) (bool, float64, error) {
	result, err := d.DetectEnsemble(ctx, text)
	if err != nil {
		return false, 0, err
	}
	return result.IsAI(threshold), result.Confidence, nil
}

// Confidence is the distance of p from the decision boundary, scaled to [0,1].
func Confidence(p float64) float64 {
	c := (p - neutralProbability) * 2
	if c < 0 {
		c = -c
	}
	return clamp(c)
}

func scoreModel(model string, label inference_service.Label) pipeline_type.ModelResult {
	score := clamp(label.Score)
	ai := score
	if !IsAILabel(label.Label) {
		ai = 1 - score
	}
	return pipeline_type.ModelResult{
		Model:            model,
		AIProbability:    ai,
		HumanProbability: 1 - ai,
		Label:            label.Label,
		Prediction:       predict(ai),
	}
}

func predict(ai float64) string {
	if ai > neutralProbability {
		return PredictionAI
	}
	return PredictionHuman
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Improvement is the change in verdict between a text and its humanized form.
type Improvement struct {
	DetectionImproved      bool    `json:"detection_improved"`
	AIProbabilityReduction float64 `json:"ai_probability_reduction"`
	PercentageImprovement  float64 `json:"percentage_improvement"`
}

// Compare reports how much after improves on before at threshold. The
// percentage is relative to the original AI probability and 0 when that is 0.
func Compare(before, after pipeline_type.DetectionResult, threshold float64) Improvement {
	reduction := before.EnsembleAIProbability - after.EnsembleAIProbability
	var percentage float64
	if before.EnsembleAIProbability > 0 {
		percentage = reduction / before.EnsembleAIProbability * 100
	}
	return Improvement{
		DetectionImproved:      before.IsAI(threshold) && !after.IsAI(threshold),
		AIProbabilityReduction: reduction,
		PercentageImprovement:  percentage,
	}
}
