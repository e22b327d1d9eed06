package cleaning_step

import (
	"context"
	"regexp"
	"strings"

	"github.com/serisow/humanizer/pipeline_type"
)

const emDash = "—"

var spaceBeforePunct = regexp.MustCompile(` +([,.])`)

// Normalize replaces every em dash with ", " and then drops the spaces that
// precede a comma or a period. It is idempotent.
func Normalize(text string) string {
	if text == "" {
		return text
	}
	cleaned := strings.ReplaceAll(text, emDash, ", ")
	return spaceBeforePunct.ReplaceAllString(cleaned, "$1")
}

type CleaningStepImpl struct{}

func (s *CleaningStepImpl) Execute(ctx context.Context, pipelineContext *pipeline_type.Context) (pipeline_type.StepOutcome, error) {
	return pipeline_type.Success(Normalize(pipelineContext.CurrentText())), nil
}

func (s *CleaningStepImpl) GetType() string {
	return pipeline_type.StepTextCleaning
}
