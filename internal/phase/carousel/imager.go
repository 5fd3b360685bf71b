package carousel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

// ImagePolicy decides which slides get generated imagery.
type ImagePolicy interface {
	Name() string
	Includes(index, total int) bool
}

// EdgeSlides generates only the first and last slide. Middle slides keep
// their prompts for manual insertion.
type EdgeSlides struct{}

func (EdgeSlides) Name() string { return "edges" }

func (EdgeSlides) Includes(index, total int) bool {
	return index == 0 || index == total-1
}

type AllSlides struct{}

func (AllSlides) Name() string { return "all" }

func (AllSlides) Includes(int, int) bool { return true }

type NoSlides struct{}

func (NoSlides) Name() string { return "none" }

func (NoSlides) Includes(int, int) bool { return false }

// PolicyByName resolves a configured policy name. Empty means edges.
func PolicyByName(name string) (ImagePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "edges":
		return EdgeSlides{}, nil
	case "all":
		return AllSlides{}, nil
	case "none":
		return NoSlides{}, nil
	}
	return nil, fmt.Errorf("%w: unknown image policy %q", core.ErrInvalidInput, name)
}

// ImageSettings are the generation parameters shared by every slide.
type ImageSettings struct {
	AspectRatio   string
	Style         string
	FallbackColor string
}

// ImageGenerator replaces image prompts with generated image URIs. It
// degrades failed generations in place and never fails the pipeline for
// them.
type ImageGenerator struct {
	client   agent.ModelClient
	policy   ImagePolicy
	settings ImageSettings
	logger   *slog.Logger
}

type ImageOption func(*ImageGenerator)

func WithPolicy(p ImagePolicy) ImageOption {
	return func(g *ImageGenerator) {
		if p != nil {
			g.policy = p
		}
	}
}

func WithImageSettings(s ImageSettings) ImageOption {
	return func(g *ImageGenerator) {
		g.settings = s
	}
}

func WithImageLogger(logger *slog.Logger) ImageOption {
	return func(g *ImageGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewImageGenerator(client agent.ModelClient, opts ...ImageOption) *ImageGenerator {
	g := &ImageGenerator{
		client:   client,
		policy:   EdgeSlides{},
		settings: ImageSettings{AspectRatio: "4:5"},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "agent", "stage", core.StageImages)
	return g
}

func (g *ImageGenerator) ID() core.StageID {
	return core.StageImages
}

func (g *ImageGenerator) Policy() ImagePolicy {
	return g.policy
}

func (g *ImageGenerator) Execute(ctx context.Context, run *core.Run) (any, error) {
	if run.Visual == nil {
		return nil, errors.New("image generator requires a visual specification")
	}
	out := g.Generate(ctx, run.Input, *run.Visual)
	run.Visual = &out
	return out, nil
}

// Generate returns a copy of spec with every selected prompt resolved.
// Slides are processed one at a time.
func (g *ImageGenerator) Generate(ctx context.Context, in domain.PipelineInput, spec domain.VisualSpecification) domain.VisualSpecification {
	start := time.Now()
	out := cloneSpec(spec)
	style := in.Brand.Visual.ImageStyle
	if style == "" {
		style = g.settings.Style
	}
	fallback := g.settings.FallbackColor
	if fallback == "" {
		fallback = out.Tokens.Colors.Primary
	}

	var generated, degraded int
	total := len(out.Slides)
	for i := range out.Slides {
		if !g.policy.Includes(i, total) {
			continue
		}
		slide := &out.Slides[i]

		if slide.Background.NeedsImageGeneration() {
			uri, err := g.generate(ctx, slide.Background.Image, style)
			if err != nil {
				g.logger.Warn("background image failed, using solid color",
					"slide", i, "color", fallback, "error", err)
				slide.Background = domain.Background{Type: domain.BackgroundSolid, Color: fallback}
				degraded++
			} else {
				slide.Background.Image = uri
				generated++
			}
		}

		for j := range slide.Elements {
			el := &slide.Elements[j]
			if !el.NeedsImageGeneration() {
				continue
			}
			uri, err := g.generate(ctx, el.Content, style)
			if err != nil {
				g.logger.Warn("element image failed, using placeholder",
					"slide", i, "element", el.ID, "error", err)
				el.Content = domain.PlaceholderImage(el.Style.Width, el.Style.Height)
				degraded++
				continue
			}
			el.Content = uri
			generated++
		}
	}

	g.logger.Info("image generation finished",
		"policy", g.policy.Name(),
		"generated", generated,
		"degraded", degraded,
		"duration_ms", time.Since(start).Milliseconds())
	return out
}

func (g *ImageGenerator) generate(ctx context.Context, prompt, style string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("empty image prompt")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.client.GenerateImage(ctx, agent.ImageRequest{
		Stage:       string(core.StageImages),
		Prompt:      prompt,
		AspectRatio: g.settings.AspectRatio,
		Style:       style,
	})
}

func cloneSpec(spec domain.VisualSpecification) domain.VisualSpecification {
	out := spec
	out.Slides = make([]domain.SlideVisual, len(spec.Slides))
	for i, s := range spec.Slides {
		s.Elements = append([]domain.Element(nil), s.Elements...)
		out.Slides[i] = s
	}
	return out
}
