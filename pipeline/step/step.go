package step

import (
	"context"

	"github.com/serisow/humanizer/pipeline_type"
)

// Step transforms the working text held by the pipeline context. Expected
// failures are reported through the outcome; a non-nil error aborts the run.
type Step interface {
	Execute(ctx context.Context, pipelineContext *pipeline_type.Context) (pipeline_type.StepOutcome, error)

	GetType() string
}
