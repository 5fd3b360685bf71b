package core

import (
	"sync/atomic"

	"github.com/dotcommander/carousel/internal/domain/carousel"
)

// CancelToken is a cooperative cancellation flag. It is only consulted at
// stage boundaries; an in-flight model call always runs to completion.
type CancelToken struct {
	aborted atomic.Bool
}

func (t *CancelToken) Abort() {
	t.aborted.Store(true)
}

func (t *CancelToken) Aborted() bool {
	return t.aborted.Load()
}

// Run is the context of a single pipeline execution: the immutable input
// plus every artifact produced so far. It is owned by one orchestrator and
// never shared between runs.
type Run struct {
	ID     string
	Input  carousel.PipelineInput
	Cancel *CancelToken

	Strategy *carousel.StrategyBlueprint
	Story    *carousel.StoryStructure
	Copy     *carousel.CopyOutput
	Visual   *carousel.VisualSpecification
	Quality  *carousel.QualityReport
	Render   *carousel.RenderOutput
}

// NewRun creates an empty run context.
func NewRun(id string, input carousel.PipelineInput) *Run {
	return &Run{ID: id, Input: input, Cancel: &CancelToken{}}
}

// Artifacts is the read-only bundle returned with a successful run.
type Artifacts struct {
	Strategy carousel.StrategyBlueprint   `json:"strategy"`
	Story    carousel.StoryStructure      `json:"story"`
	Copy     carousel.CopyOutput          `json:"copy"`
	Visual   carousel.VisualSpecification `json:"visual"`
}

func (r *Run) artifacts() *Artifacts {
	if r.Strategy == nil || r.Story == nil || r.Copy == nil || r.Visual == nil {
		return nil
	}
	return &Artifacts{
		Strategy: *r.Strategy,
		Story:    *r.Story,
		Copy:     *r.Copy,
		Visual:   *r.Visual,
	}
}
