package carousel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

func TestImagePolicies(t *testing.T) {
	tests := []struct {
		policy ImagePolicy
		want   []int
	}{
		{EdgeSlides{}, []int{0, 4}},
		{AllSlides{}, []int{0, 1, 2, 3, 4}},
		{NoSlides{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.policy.Name(), func(t *testing.T) {
			var got []int
			for i := 0; i < 5; i++ {
				if tt.policy.Includes(i, 5) {
					got = append(got, i)
				}
			}
			assert.Equal(t, tt.want, got)

			byName, err := PolicyByName(tt.policy.Name())
			require.NoError(t, err)
			assert.Equal(t, tt.policy, byName)
		})
	}

	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, EdgeSlides{}, p)

	_, err = PolicyByName("some")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

// promptSpec has an image prompt on every slide's background and one image
// element in the middle.
func promptSpec() domain.VisualSpecification {
	spec := domain.VisualSpecification{Tokens: domain.DefaultTokens()}
	for i := 0; i < 5; i++ {
		s := domain.SlideVisual{
			Index:      i,
			Layout:     domain.LayoutForIndex(i, 5),
			Canvas:     domain.DefaultCanvas(),
			Background: domain.Background{Type: domain.BackgroundImage, Image: "scene " + string(rune('A'+i))},
			Elements: []domain.Element{
				{ID: "h", Role: domain.RoleHeadline, Type: domain.ElementText, Content: "Headline"},
				{ID: "img", Role: domain.RoleImage, Type: domain.ElementImage, Content: "product shot", Style: domain.ElementStyle{Width: 400, Height: 300}},
			},
		}
		spec.Slides = append(spec.Slides, s)
	}
	spec.Slides[4].Elements[1].Content = "https://cdn.example.com/already.png"
	return spec
}

func TestImageGeneratorEdgePolicy(t *testing.T) {
	mock := agent.NewMockClient()
	gen := NewImageGenerator(mock, WithImageSettings(ImageSettings{AspectRatio: "4:5", Style: "flat"}))

	in := testInput()
	spec := promptSpec()
	out := gen.Generate(context.Background(), in, spec)

	calls := mock.ImageCalls()
	require.Len(t, calls, 3, "slide 0 background + element, slide 4 background")
	assert.Equal(t, "scene A", calls[0].Prompt)
	assert.Equal(t, "product shot", calls[1].Prompt)
	assert.Equal(t, "scene E", calls[2].Prompt)
	for _, c := range calls {
		assert.Equal(t, "4:5", c.AspectRatio)
		assert.Equal(t, "bright editorial photography", c.Style, "brand style wins over config")
	}

	assert.True(t, domain.IsResolvedImage(out.Slides[0].Background.Image))
	assert.True(t, domain.IsResolvedImage(out.Slides[0].Elements[1].Content))
	assert.True(t, domain.IsResolvedImage(out.Slides[4].Background.Image))
	assert.Equal(t, "https://cdn.example.com/already.png", out.Slides[4].Elements[1].Content)

	for i := 1; i < 4; i++ {
		assert.True(t, out.Slides[i].Background.NeedsImageGeneration(), "slide %d left for manual insertion", i)
	}
	assert.Equal(t, "scene A", spec.Slides[0].Background.Image, "input is not mutated")
	assert.Equal(t, "product shot", spec.Slides[0].Elements[1].Content)
}

func TestImageGeneratorDegrades(t *testing.T) {
	mock := agent.NewMockClient()
	mock.FailImages(errors.New("quota exceeded"))
	gen := NewImageGenerator(mock,
		WithPolicy(AllSlides{}),
		WithImageSettings(ImageSettings{FallbackColor: "#222222"}))

	run := core.NewRun("r1", testInput())
	spec := promptSpec()
	run.Visual = &spec

	out, err := gen.Execute(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, *run.Visual, out)

	for i, s := range run.Visual.Slides {
		assert.Equal(t, domain.Background{Type: domain.BackgroundSolid, Color: "#222222"}, s.Background, "slide %d", i)
	}
	placeholder := run.Visual.Slides[0].Elements[1].Content
	assert.True(t, strings.HasPrefix(placeholder, "data:image/svg+xml;base64,"))
	assert.Equal(t, domain.PlaceholderImage(400, 300), placeholder)
}

func TestImageGeneratorFallsBackToPrimaryColor(t *testing.T) {
	mock := agent.NewMockClient()
	mock.FailImages(errors.New("boom"))
	out := NewImageGenerator(mock).Generate(context.Background(), testInput(), promptSpec())
	assert.Equal(t, domain.DefaultTokens().Colors.Primary, out.Slides[0].Background.Color)
}

func TestImageGeneratorNoSlides(t *testing.T) {
	mock := agent.NewMockClient()
	gen := NewImageGenerator(mock, WithPolicy(NoSlides{}))
	spec := promptSpec()
	out := gen.Generate(context.Background(), testInput(), spec)
	assert.Empty(t, mock.ImageCalls())
	assert.Equal(t, spec, out)
}

func TestImageGeneratorRequiresVisual(t *testing.T) {
	_, err := NewImageGenerator(agent.NewMockClient()).Execute(context.Background(), core.NewRun("r1", testInput()))
	assert.Error(t, err)
}

func TestImageGeneratorCanceledContextDegrades(t *testing.T) {
	mock := agent.NewMockClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewImageGenerator(mock).Generate(ctx, testInput(), promptSpec())
	assert.Empty(t, mock.ImageCalls())
	assert.Equal(t, domain.BackgroundSolid, out.Slides[0].Background.Type)
}

func TestPlaceholderImageDefaults(t *testing.T) {
	assert.Equal(t, domain.PlaceholderImage(800, 800), domain.PlaceholderImage(0, 0))
	assert.NotEqual(t, domain.PlaceholderImage(800, 800), domain.PlaceholderImage(800, 600))
}
