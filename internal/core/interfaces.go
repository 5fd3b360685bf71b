package core

import (
	"context"

	"github.com/dotcommander/carousel/internal/domain/carousel"
)

// StageID names a pipeline stage in callbacks, logs and errors.
type StageID string

const (
	StageStrategist StageID = "brand-strategist"
	StageArchitect  StageID = "story-architect"
	StageCopywriter StageID = "copywriter"
	StageCompositor StageID = "visual-compositor"
	StageImages     StageID = "image-generator"
	StageQuality    StageID = "quality-validator"
	StageRender     StageID = "render"
)

// AgentStages is the fixed agent order. Render runs after them and is not
// an agent.
var AgentStages = []StageID{
	StageStrategist,
	StageArchitect,
	StageCopywriter,
	StageCompositor,
	StageImages,
	StageQuality,
}

// Stage is one step of the pipeline. Execute reads its inputs from run,
// stores its typed output back into run and returns that output for
// reporting. A stage must not touch artifacts owned by other stages.
type Stage interface {
	ID() StageID
	Execute(ctx context.Context, run *Run) (any, error)
}

// Renderer turns the final visual specification into markup. It must be
// pure: identical input yields byte-identical output.
type Renderer interface {
	Render(spec carousel.VisualSpecification) (carousel.RenderOutput, error)
}

type Storage interface {
	Save(ctx context.Context, path string, data []byte) error
	Load(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, pattern string) ([]string, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
}
