package carousel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/carousel/internal/agent"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

func compositorInput(t *testing.T) CompositorInput {
	t.Helper()
	run := runStages(t, agent.NewMockClient(), 3)
	return CompositorInput{Input: run.Input, Strategy: *run.Strategy, Story: *run.Story, Copy: *run.Copy}
}

func assertLayoutInvariants(t *testing.T, spec domain.VisualSpecification) {
	t.Helper()
	n := len(spec.Slides)
	for i, s := range spec.Slides {
		assert.Equal(t, i, s.Index)
		assert.Positive(t, s.Canvas.Width)
		assert.Positive(t, s.Canvas.Height)
		switch i {
		case 0:
			assert.Equal(t, domain.LayoutCover, s.Layout)
		case n - 1:
			assert.Equal(t, domain.LayoutClosing, s.Layout)
		default:
			assert.Equal(t, domain.LayoutBody, s.Layout)
		}
		seen := map[string]bool{}
		for _, e := range s.Elements {
			assert.NotEmpty(t, e.ID)
			assert.False(t, seen[e.ID], "duplicate element id %s", e.ID)
			seen[e.ID] = true
		}
	}
}

func elementByRole(s domain.SlideVisual, role string) (domain.Element, bool) {
	for _, e := range s.Elements {
		if e.Role == role {
			return e, true
		}
	}
	return domain.Element{}, false
}

func TestParseVisualGolden(t *testing.T) {
	run := runStages(t, agent.NewMockClient(), 4)
	require.NotNil(t, run.Visual)
	spec := *run.Visual

	require.Len(t, spec.Slides, 5)
	assertLayoutInvariants(t, spec)

	assert.Equal(t, domain.BackgroundImage, spec.Slides[0].Background.Type)
	assert.True(t, spec.Slides[0].Background.NeedsImageGeneration())

	body, ok := elementByRole(spec.Slides[4], domain.RoleBody)
	require.True(t, ok, "closing body should be back-filled from copy")
	assert.Equal(t, "Try it free for 14 days.", body.Content)
	assert.Equal(t, "s4-body", body.ID)

	assert.Equal(t, "#123456", spec.Tokens.Colors.Primary, "brand overrides default")
	assert.Equal(t, "#F2A541", spec.Tokens.Colors.Accent, "model overrides brand")
	assert.Equal(t, "#FAFAFA", spec.Tokens.Colors.Background)
	assert.Equal(t, "Source Sans 3", spec.Tokens.Fonts.Body)
	assert.Equal(t, "Inter", spec.Tokens.Fonts.Heading)
}

func TestParseVisualMissingSlides(t *testing.T) {
	in := compositorInput(t)

	for _, raw := range []string{`{}`, `{"slides": "later"}`, `{"slides": null}`} {
		spec, notes, err := ParseVisual(in, raw)
		require.NoError(t, err, raw)
		require.Len(t, spec.Slides, 5)
		assertLayoutInvariants(t, spec)
		assert.True(t, hasNote(notes, "slides: missing or not an array"))

		for i, s := range spec.Slides {
			assert.Equal(t, domain.DefaultCanvas(), s.Canvas)
			assert.Equal(t, domain.Background{Type: domain.BackgroundSolid, Color: "#FAFAFA"}, s.Background)
			h, ok := elementByRole(s, domain.RoleHeadline)
			require.True(t, ok, "slide %d headline", i)
			assert.Equal(t, in.Copy.Slides[i].Headline, h.Content)
			assert.NotEmpty(t, s.ImagePrompt)
		}
	}
}

func TestParseVisualRepairs(t *testing.T) {
	in := compositorInput(t)
	in.Input.Brand.Visual.LogoURL = "https://cdn.example.com/logo.svg"

	raw := `{"slides": [
	  {"layout": "content-split", "canvas": {"width": 0},
	   "background": {"type": "image"},
	   "imagePrompt": "A calm desk at sunrise",
	   "elements": [
	     {"role": "headline", "content": "Why does planning take all week?"},
	     "stray",
	     {"id": "dup", "type": "image", "content": "A planner"},
	     {"id": "dup", "role": "sparkle", "type": "shape"}
	   ]},
	  {"background": {"type": "gradient"}},
	  {"background": {"type": "plaid", "color": "#000000"}},
	  {"background": {"type": "solid"}, "elements": [{"role": "bullets", "content": ["a", "b"]}]},
	  {}, {}
	]}`

	spec, notes, err := ParseVisual(in, raw)
	require.NoError(t, err)
	require.Len(t, spec.Slides, 5)
	assertLayoutInvariants(t, spec)
	assert.True(t, hasNote(notes, "truncated"))

	cover := spec.Slides[0]
	assert.Equal(t, domain.DefaultCanvas(), cover.Canvas)
	assert.Equal(t, "A calm desk at sunrise", cover.Background.Image, "image background takes the slide prompt")
	assert.True(t, hasNote(notes, `slides[0].layout: "content-split" replaced`))

	headline, ok := elementByRole(cover, domain.RoleHeadline)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(headline.ID, "el-"))
	assert.Equal(t, domain.ElementText, headline.Type)

	img, ok := elementByRole(cover, domain.RoleImage)
	require.True(t, ok)
	assert.Equal(t, "dup", img.ID)
	assert.True(t, img.NeedsImageGeneration())

	deco, ok := elementByRole(cover, domain.RoleDecoration)
	require.True(t, ok)
	assert.NotEqual(t, "dup", deco.ID)

	logo, ok := elementByRole(cover, domain.RoleLogo)
	require.True(t, ok)
	assert.Equal(t, domain.ElementLogo, logo.Type)
	assert.Equal(t, "https://cdn.example.com/logo.svg", logo.Content)

	assert.Equal(t, domain.BackgroundSolid, spec.Slides[1].Background.Type)
	assert.Equal(t, domain.Background{Type: domain.BackgroundSolid, Color: "#000000"}, spec.Slides[2].Background)
	assert.Equal(t, "#FAFAFA", spec.Slides[3].Background.Color)

	bullets, ok := elementByRole(spec.Slides[3], domain.RoleBullets)
	require.True(t, ok)
	assert.Equal(t, "a\nb", bullets.Content)

	_, hasLogo := elementByRole(spec.Slides[4], domain.RoleLogo)
	assert.False(t, hasLogo, "logo only goes on the cover")
}

func TestBuildCompositorPrompt(t *testing.T) {
	prompt, err := BuildCompositorPrompt(compositorInput(t))
	require.NoError(t, err)
	assert.Contains(t, prompt, "### Slide 0 (layout cover-hero, beat curiosity)")
	assert.Contains(t, prompt, "### Slide 4 (layout closing-cta, beat empowerment)")
	assert.Contains(t, prompt, `"headline": "Meetings ate your roadmap"`)
	assert.Contains(t, prompt, "primary #123456")
}
