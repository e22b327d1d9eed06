package pipeline_type

import "strings"

// Processing step tags recorded in Statistics.ProcessingSteps.
const (
	StepParaphrasing = "paraphrasing"
	StepRewriting    = "rewriting"
	StepTextCleaning = "text_cleaning"
	StepError        = "error"

	failedSuffix = "_failed"

	// ContextKeyModelUsed holds the model of the last successful paraphrase.
	ContextKeyModelUsed = "model_used"
)

// FailedStep returns the tag recorded when the named step did not produce output.
func FailedStep(name string) string {
	return name + failedSuffix
}

// StepOutcome is the result of a single pipeline step. A failed outcome carries
// the reason and no text.
type StepOutcome struct {
	Text   string
	Reason string
	failed bool
}

func Success(text string) StepOutcome {
	return StepOutcome{Text: text}
}

func Failure(reason string) StepOutcome {
	return StepOutcome{Reason: reason, failed: true}
}

func (o StepOutcome) OK() bool {
	return !o.failed
}

// Usable reports whether the outcome succeeded with non-blank text.
func (o StepOutcome) Usable() bool {
	return o.OK() && strings.TrimSpace(o.Text) != ""
}

// Options selects which humanization steps run and with which model.
type Options struct {
	UseParaphrasing      bool
	UseEnhancedRewriting bool
	ParaphraseModel      string
}

// Statistics describes one humanization run.
type Statistics struct {
	OriginalLength        int      `json:"original_length"`
	FinalLength           int      `json:"final_length"`
	LengthChange          int      `json:"length_change"`
	ParaphrasingUsed      bool     `json:"paraphrasing_used"`
	EnhancedRewritingUsed bool     `json:"enhanced_rewriting_used"`
	ModelUsed             *string  `json:"model_used"`
	ProcessingSteps       []string `json:"processing_steps"`
	Error                 string   `json:"error,omitempty"`
}

// AddStep appends a step tag.
func (s *Statistics) AddStep(tag string) {
	s.ProcessingSteps = append(s.ProcessingSteps, tag)
}

// ModelResult is the verdict of a single detector model.
type ModelResult struct {
	Model            string  `json:"model"`
	AIProbability    float64 `json:"ai_probability"`
	HumanProbability float64 `json:"human_probability"`
	Label            string  `json:"label"`
	Prediction       string  `json:"prediction"`
}

// DetectionResult is the ensemble verdict over all detector models that answered.
type DetectionResult struct {
	EnsembleAIProbability    float64       `json:"ensemble_ai_probability"`
	EnsembleHumanProbability float64       `json:"ensemble_human_probability"`
	Prediction               string        `json:"prediction"`
	Confidence               float64       `json:"confidence"`
	ModelsUsed               []string      `json:"models_used"`
	IndividualResults        []ModelResult `json:"individual_results"`
	// Fallback is set when no model answered and the neutral result was returned.
	Fallback bool   `json:"fallback"`
	Error    string `json:"error,omitempty"`
}

// IsAI thresholds the ensemble AI probability. The comparison is strict.
func (r DetectionResult) IsAI(threshold float64) bool {
	return r.EnsembleAIProbability > threshold
}
