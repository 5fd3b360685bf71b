package carousel

import (
	"log/slog"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/config"
	"github.com/dotcommander/carousel/internal/core"
	"github.com/dotcommander/carousel/internal/phase"
)

// DefaultSampling is the tuned temperature and token ceiling per agent.
func DefaultSampling() map[core.StageID]phase.Sampling {
	return map[core.StageID]phase.Sampling{
		core.StageStrategist: {Temperature: 0.7, MaxTokens: 2000},
		core.StageArchitect:  {Temperature: 0.7, MaxTokens: 3000},
		core.StageCopywriter: {Temperature: 0.8, MaxTokens: 4000},
		core.StageCompositor: {Temperature: 0.5, MaxTokens: 4000},
		core.StageQuality:    {Temperature: 0.3, MaxTokens: 2000},
	}
}

type stageOptions struct {
	logger   *slog.Logger
	prompts  *agent.PromptCache
	sampling map[core.StageID]phase.Sampling
	policy   ImagePolicy
	images   ImageSettings
}

type StageOption func(*stageOptions)

func WithLogger(logger *slog.Logger) StageOption {
	return func(o *stageOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithPromptCache(pc *agent.PromptCache) StageOption {
	return func(o *stageOptions) {
		o.prompts = pc
	}
}

// WithSampling overrides one stage's sampling. Zero fields keep defaults.
func WithSampling(id core.StageID, s phase.Sampling) StageOption {
	return func(o *stageOptions) {
		o.sampling[id] = s
	}
}

func WithImagePolicy(p ImagePolicy) StageOption {
	return func(o *stageOptions) {
		if p != nil {
			o.policy = p
		}
	}
}

func WithImages(s ImageSettings) StageOption {
	return func(o *stageOptions) {
		o.images = s
	}
}

// FromConfig translates the stages and images config sections.
func FromConfig(cfg *config.Config) ([]StageOption, error) {
	policy, err := PolicyByName(cfg.Images.Policy)
	if err != nil {
		return nil, err
	}
	if !cfg.Images.Enabled {
		policy = NoSlides{}
	}
	toSampling := func(s config.Sampling) phase.Sampling {
		return phase.Sampling{Temperature: s.Temperature, MaxTokens: s.MaxTokens}
	}
	return []StageOption{
		WithSampling(core.StageStrategist, toSampling(cfg.Stages.Strategist)),
		WithSampling(core.StageArchitect, toSampling(cfg.Stages.Architect)),
		WithSampling(core.StageCopywriter, toSampling(cfg.Stages.Copywriter)),
		WithSampling(core.StageCompositor, toSampling(cfg.Stages.Compositor)),
		WithSampling(core.StageQuality, toSampling(cfg.Stages.Quality)),
		WithImagePolicy(policy),
		WithImages(ImageSettings{
			AspectRatio:   cfg.Images.AspectRatio,
			Style:         cfg.Images.Style,
			FallbackColor: cfg.Images.FallbackColor,
		}),
	}, nil
}

// NewStages builds the six agents in pipeline order. The returned stages
// hold no per-run state and can be shared by concurrent orchestrators.
func NewStages(client agent.ModelClient, opts ...StageOption) []core.Stage {
	o := stageOptions{
		logger:   slog.Default(),
		sampling: make(map[core.StageID]phase.Sampling),
		policy:   EdgeSlides{},
		images:   ImageSettings{AspectRatio: "4:5"},
	}
	for _, opt := range opts {
		opt(&o)
	}

	defaults := DefaultSampling()
	base := func(id core.StageID) phase.BasePhase {
		return phase.NewBasePhase(id, defaults[id],
			phase.WithLogger(o.logger),
			phase.WithSampling(o.sampling[id]))
	}
	agentOpts := []phase.AgentOption{phase.WithPromptCache(o.prompts)}

	return []core.Stage{
		NewBrandStrategist(client, base(core.StageStrategist), agentOpts...),
		NewStoryArchitect(client, base(core.StageArchitect), agentOpts...),
		NewCopywriter(client, base(core.StageCopywriter), agentOpts...),
		NewVisualCompositor(client, base(core.StageCompositor), agentOpts...),
		NewImageGenerator(client,
			WithPolicy(o.policy),
			WithImageSettings(o.images),
			WithImageLogger(o.logger)),
		NewQualityValidator(client, base(core.StageQuality), agentOpts...),
	}
}
