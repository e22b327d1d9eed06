package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/serisow/humanizer/bootstrap"
	"github.com/serisow/humanizer/logging"
	"github.com/serisow/humanizer/pipeline"
	"github.com/serisow/humanizer/pipeline_type"
	"github.com/serisow/humanizer/services/detection_service"
	"github.com/serisow/humanizer/services/inference_service"
)

const (
	serviceVersion  = "3.0.0"
	deviceInfo      = "remote-inference"
	detectionMethod = "ensemble"
	previewLength   = 100
)

// HumanizerHandler serves the health, humanization and detection routes.
type HumanizerHandler struct {
	services *bootstrap.Services
	logger   *slog.Logger
	now      func() time.Time
}

func NewHumanizerHandler(services *bootstrap.Services, logger *slog.Logger) *HumanizerHandler {
	return &HumanizerHandler{
		services: services,
		logger:   logger,
		now:      time.Now,
	}
}

type rootFeatures struct {
	Paraphrasing    bool     `json:"paraphrasing"`
	CurrentModel    *string  `json:"current_model"`
	AvailableModels []string `json:"available_models"`
	LocalRefinement bool     `json:"local_refinement"`
	SynonymSupport  bool     `json:"synonym_support"`
	Device          string   `json:"device,omitempty"`
}

type statusResponse struct {
	Status   string      `json:"status"`
	Message  string      `json:"message,omitempty"`
	Features interface{} `json:"features,omitempty"`
}

// Root reports liveness and the enabled features.
func (h *HumanizerHandler) Root(w http.ResponseWriter, r *http.Request) {
	if !h.services.Available {
		respondJSON(w, http.StatusInternalServerError, statusResponse{
			Status:   "error",
			Message:  msgModulesUnavailable,
			Features: rootFeatures{AvailableModels: []string{}},
		})
		return
	}

	current := h.currentModel()
	respondJSON(w, http.StatusOK, statusResponse{
		Status:  "healthy",
		Message: "Humanize AI Server is running!",
		Features: rootFeatures{
			Paraphrasing:    current != nil,
			CurrentModel:    current,
			AvailableModels: h.availableModels(),
			Device:          deviceInfo,
		},
	})
}

type healthFeatures struct {
	ParaphrasingAvailable  bool    `json:"paraphrasing_available"`
	CurrentParaphraseModel *string `json:"current_paraphrase_model"`
	LocalProcessing        bool    `json:"local_processing"`
	Device                 string  `json:"device"`
}

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp float64        `json:"timestamp"`
	Features  healthFeatures `json:"features"`
	Version   string         `json:"version"`
}

func (h *HumanizerHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.services.Available {
		respondJSON(w, http.StatusInternalServerError, statusResponse{
			Status:  "error",
			Message: msgModulesUnavailable,
		})
		return
	}

	current := h.currentModel()
	respondJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: float64(h.now().UnixNano()) / float64(time.Second),
		Features: healthFeatures{
			ParaphrasingAvailable:  current != nil,
			CurrentParaphraseModel: current,
			Device:                 deviceInfo,
		},
		Version: serviceVersion,
	})
}

type modelsResponse struct {
	AvailableModels []string `json:"available_models"`
	CurrentModel    *string  `json:"current_model"`
	Device          string   `json:"device"`
}

func (h *HumanizerHandler) Models(w http.ResponseWriter, r *http.Request) {
	if !h.services.Available {
		httpError(w, http.StatusInternalServerError, msgModulesUnavailable, false)
		return
	}
	respondJSON(w, http.StatusOK, modelsResponse{
		AvailableModels: h.availableModels(),
		CurrentModel:    h.currentModel(),
		Device:          deviceInfo,
	})
}

type humanizeResponse struct {
	HumanizedText string                   `json:"humanized_text"`
	Success       bool                     `json:"success"`
	Statistics    pipeline_type.Statistics `json:"statistics"`
}

// Humanize runs the humanization pipeline over the request text.
func (h *HumanizerHandler) Humanize(w http.ResponseWriter, r *http.Request) {
	if !h.services.Available {
		httpError(w, http.StatusInternalServerError, msgModulesUnavailable, true)
		return
	}

	req, err := decodeRequest(r)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	text, err := validateHumanizeText(req)
	if err != nil {
		h.badRequest(w, err)
		return
	}

	humanized, stats, err := h.humanize(r, text, req)
	if err != nil {
		h.unavailable(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, humanizeResponse{
		HumanizedText: humanized,
		Success:       true,
		Statistics:    stats,
	})
}

type detectResponse struct {
	TextPreview       string                      `json:"text_preview"`
	IsAIGenerated     bool                        `json:"is_ai_generated"`
	AIProbability     float64                     `json:"ai_probability"`
	HumanProbability  float64                     `json:"human_probability"`
	Prediction        string                      `json:"prediction"`
	Confidence        float64                     `json:"confidence"`
	ThresholdUsed     float64                     `json:"threshold_used"`
	ModelsUsed        []string                    `json:"models_used"`
	IndividualResults []pipeline_type.ModelResult `json:"individual_results"`
	TextLength        int                         `json:"text_length"`
	DetectionMethod   string                      `json:"detection_method"`
	Success           bool                        `json:"success"`
	Error             string                      `json:"error,omitempty"`
}

// Detect classifies the request text with the detector ensemble.
func (h *HumanizerHandler) Detect(w http.ResponseWriter, r *http.Request) {
	if !h.services.Available {
		httpError(w, http.StatusInternalServerError, msgModulesUnavailable, true)
		return
	}

	req, err := decodeRequest(r)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	text, err := validateDetectText(req)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	limit, err := threshold(req.Threshold, detection_service.DefaultThreshold, "threshold")
	if err != nil {
		h.badRequest(w, err)
		return
	}

	result, err := h.services.Detector.DetectEnsemble(r.Context(), text)
	if err != nil {
		h.unavailable(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, detectResponse{
		TextPreview:       preview(text),
		IsAIGenerated:     result.IsAI(limit),
		AIProbability:     result.EnsembleAIProbability,
		HumanProbability:  result.EnsembleHumanProbability,
		Prediction:        result.Prediction,
		Confidence:        result.Confidence,
		ThresholdUsed:     limit,
		ModelsUsed:        result.ModelsUsed,
		IndividualResults: result.IndividualResults,
		TextLength:        utf8.RuneCountInString(text),
		DetectionMethod:   detectionMethod,
		Success:           true,
		Error:             result.Error,
	})
}

type detectionSummary struct {
	IsAIGenerated bool    `json:"is_ai_generated"`
	AIProbability float64 `json:"ai_probability"`
	Prediction    string  `json:"prediction"`
	Confidence    float64 `json:"confidence"`
}

type humanizeAndCheckResponse struct {
	OriginalText       string                        `json:"original_text"`
	HumanizedText      string                        `json:"humanized_text"`
	HumanizationStats  pipeline_type.Statistics      `json:"humanization_stats"`
	OriginalDetection  detectionSummary              `json:"original_detection"`
	HumanizedDetection detectionSummary              `json:"humanized_detection"`
	Improvement        detection_service.Improvement `json:"improvement"`
	ThresholdUsed      float64                       `json:"threshold_used"`
	Success            bool                          `json:"success"`
}

// HumanizeAndCheck detects the original text, humanizes it and detects the
// result again, reporting the change in AI probability.
func (h *HumanizerHandler) HumanizeAndCheck(w http.ResponseWriter, r *http.Request) {
	if !h.services.Available {
		httpError(w, http.StatusInternalServerError, msgModulesUnavailable, true)
		return
	}

	req, err := decodeRequest(r)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	text, err := validateCheckText(req)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	// detection_threshold wins over the /detect style threshold field.
	limit, err := threshold(req.Threshold, detection_service.DefaultThreshold, "threshold")
	if err != nil {
		h.badRequest(w, err)
		return
	}
	limit, err = threshold(req.DetectionThreshold, limit, "detection_threshold")
	if err != nil {
		h.badRequest(w, err)
		return
	}

	ctx := r.Context()
	original, err := h.services.Detector.DetectEnsemble(ctx, text)
	if err != nil {
		h.unavailable(w, r, err)
		return
	}

	humanized, stats, err := h.humanize(r, text, req)
	if err != nil {
		h.unavailable(w, r, err)
		return
	}

	after, err := h.services.Detector.DetectEnsemble(ctx, humanized)
	if err != nil {
		h.unavailable(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, humanizeAndCheckResponse{
		OriginalText:       text,
		HumanizedText:      humanized,
		HumanizationStats:  stats,
		OriginalDetection:  summarize(original, limit),
		HumanizedDetection: summarize(after, limit),
		Improvement:        detection_service.Compare(original, after, limit),
		ThresholdUsed:      limit,
		Success:            true,
	})
}

// humanize runs the pipeline and never hands back blank text.
func (h *HumanizerHandler) humanize(r *http.Request, text string, req textRequest) (string, pipeline_type.Statistics, error) {
	humanized, stats, err := h.services.Humanizer.Humanize(r.Context(), text, pipeline_type.Options{
		UseParaphrasing:      req.paraphrasing(),
		UseEnhancedRewriting: req.enhanced(),
		ParaphraseModel:      req.model(),
	})
	if err != nil {
		return "", stats, err
	}
	humanized, stats = pipeline.UsableText(text, humanized, stats)
	return humanized, stats, nil
}

func (h *HumanizerHandler) badRequest(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		httpError(w, http.StatusBadRequest, validationErr.Message, false)
		return
	}
	httpError(w, http.StatusBadRequest, err.Error(), false)
}

// unavailable answers a ConfigurationError raised at request time.
func (h *HumanizerHandler) unavailable(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("Inference backend unavailable",
		slog.String("requestID", logging.RequestID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	msg := msgInternal
	if inference_service.IsConfigurationError(err) {
		msg = msgNotConfigured
	}
	httpError(w, http.StatusInternalServerError, msg, true)
}

func (h *HumanizerHandler) currentModel() *string {
	model := h.services.Config.DefaultParaphraseModel()
	if model == "" {
		return nil
	}
	return &model
}

func (h *HumanizerHandler) availableModels() []string {
	models := h.services.Config.ParaphraseModels
	if models == nil {
		return []string{}
	}
	return models
}

func summarize(result pipeline_type.DetectionResult, threshold float64) detectionSummary {
	return detectionSummary{
		IsAIGenerated: result.IsAI(threshold),
		AIProbability: result.EnsembleAIProbability,
		Prediction:    result.Prediction,
		Confidence:    result.Confidence,
	}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength]) + "..."
}
