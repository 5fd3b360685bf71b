package carousel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
	"github.com/dotcommander/carousel/internal/phase"
)

type CompositorInput struct {
	Input    domain.PipelineInput
	Strategy domain.StrategyBlueprint
	Story    domain.StoryStructure
	Copy     domain.CopyOutput
}

// VisualCompositor positions every copy field on a fixed layout and
// attaches an image prompt to each slide.
type VisualCompositor struct {
	*phase.Agent[CompositorInput, domain.VisualSpecification]
}

func NewVisualCompositor(client agent.ModelClient, base phase.BasePhase, opts ...phase.AgentOption) *VisualCompositor {
	v := &VisualCompositor{}
	v.Agent = phase.NewAgent(base, client, compositorSystem, BuildCompositorPrompt,
		func(in CompositorInput, raw string) (domain.VisualSpecification, error) {
			out, notes, err := ParseVisual(in, raw)
			logRepairs(base, notes)
			return out, err
		}, opts...)
	return v
}

func (v *VisualCompositor) Execute(ctx context.Context, run *core.Run) (any, error) {
	if run.Strategy == nil || run.Story == nil || run.Copy == nil {
		return nil, errors.New("visual compositor requires strategy, story and copy")
	}
	out, err := v.Agent.Execute(ctx, CompositorInput{
		Input:    run.Input,
		Strategy: *run.Strategy,
		Story:    *run.Story,
		Copy:     *run.Copy,
	})
	if err != nil {
		return nil, err
	}
	run.Visual = &out
	return out, nil
}

type compositorSlideView struct {
	Index     int
	Layout    string
	Beat      domain.EmotionalBeat
	Direction string
	Copy      domain.SlideCopy
}

func slideTotal(in CompositorInput) int {
	switch {
	case in.Strategy.SlideCount > 0:
		return in.Strategy.SlideCount
	case len(in.Story.Slides) > 0:
		return len(in.Story.Slides)
	}
	return len(in.Copy.Slides)
}

func (in CompositorInput) blueprint(i int) domain.SlideBlueprint {
	if i < len(in.Story.Slides) {
		return in.Story.Slides[i]
	}
	return domain.SlideBlueprint{Index: i}
}

func (in CompositorInput) slideCopy(i int) domain.SlideCopy {
	if i < len(in.Copy.Slides) {
		return in.Copy.Slides[i]
	}
	return domain.SlideCopy{Index: i}
}

func BuildCompositorPrompt(in CompositorInput) (string, error) {
	total := slideTotal(in)
	slides := make([]compositorSlideView, total)
	for i := range slides {
		bp := in.blueprint(i)
		slides[i] = compositorSlideView{
			Index:     i,
			Layout:    domain.LayoutForIndex(i, total),
			Beat:      bp.EmotionalBeat,
			Direction: bp.VisualDirection,
			Copy:      in.slideCopy(i),
		}
	}
	return phase.ExecutePrompt(compositorPrompt, struct {
		In       domain.PipelineInput
		Strategy domain.StrategyBlueprint
		Slides   []compositorSlideView
	}{in.Input, in.Strategy, slides})
}

// ParseVisual never fails on a decodable object. A missing or malformed
// slides array is treated as empty and every slide is rebuilt from the
// copy: layout by position, default canvas, a solid brand background and
// one text element per populated copy field.
func ParseVisual(in CompositorInput, raw string) (domain.VisualSpecification, []string, error) {
	var notes []string
	obj, err := phase.DecodeObject(raw)
	if err != nil {
		return domain.VisualSpecification{}, nil, core.NewSchemaError(core.StageCompositor, "", err.Error())
	}
	f := newFields(obj, "", &notes)

	out := domain.VisualSpecification{Tokens: parseTokens(f, in.Input.Brand.Visual)}

	items, ok := f.array("slides")
	if !ok {
		f.note("slides: missing or not an array, treated as empty")
	}
	total := slideTotal(in)
	if total == 0 {
		total = len(items)
	}
	if len(items) > total {
		f.note("slides: %d returned for %d slides, truncated", len(items), total)
		items = items[:total]
	}

	out.Slides = make([]domain.SlideVisual, total)
	for i := range out.Slides {
		sf := newFields(nil, fmt.Sprintf("slides[%d]", i), &notes)
		switch {
		case i >= len(items):
			f.note("slides[%d]: missing, composed from copy", i)
		default:
			if el, ok := f.element("slides", i, items[i]); ok {
				sf = el
			} else {
				f.note("slides[%d]: not an object, composed from copy", i)
			}
		}
		out.Slides[i] = composeSlide(sf, i, total, in, out.Tokens)
	}
	return out, notes, nil
}

func composeSlide(sf fields, i, total int, in CompositorInput, tokens domain.DesignTokens) domain.SlideVisual {
	layout := domain.LayoutForIndex(i, total)
	if l := sf.str("layout"); l != "" && l != layout {
		sf.note("slides[%d].layout: %q replaced by %s", i, l, layout)
	}

	bp := in.blueprint(i)
	prompt := sf.str("imagePrompt")
	if prompt == "" {
		prompt = fallbackImagePrompt(bp, in.Input.Brand.Visual.ImageStyle)
	}

	slide := domain.SlideVisual{
		Index:       i,
		Layout:      layout,
		Canvas:      parseCanvas(sf, i),
		Background:  parseBackground(sf, i, tokens, prompt),
		Elements:    parseElements(sf, i),
		ImagePrompt: prompt,
	}
	slide.Elements = backfillElements(slide.Elements, in.slideCopy(i), i)
	if i == 0 && in.Input.Brand.Visual.LogoURL != "" && !hasRole(slide.Elements, domain.RoleLogo) {
		slide.Elements = append(slide.Elements, domain.Element{
			ID:      uniqueID(slide.Elements, fmt.Sprintf("s%d-logo", i)),
			Role:    domain.RoleLogo,
			Type:    domain.ElementLogo,
			Content: in.Input.Brand.Visual.LogoURL,
		})
	}
	return slide
}

func fallbackImagePrompt(bp domain.SlideBlueprint, style string) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{bp.VisualDirection, bp.ContentBrief, style} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, strings.TrimSuffix(s, "."))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ". ")
}

func parseCanvas(sf fields, i int) domain.Canvas {
	cf, ok := sf.object("canvas")
	if !ok {
		sf.note("slides[%d].canvas: missing, using %dx%d", i, domain.CanvasWidth, domain.CanvasHeight)
		return domain.DefaultCanvas()
	}
	w, wok := cf.integer("width")
	h, hok := cf.integer("height")
	if !wok || !hok || w <= 0 || h <= 0 {
		sf.note("slides[%d].canvas: invalid, using %dx%d", i, domain.CanvasWidth, domain.CanvasHeight)
		return domain.DefaultCanvas()
	}
	return domain.Canvas{Width: w, Height: h}
}

func parseBackground(sf fields, i int, tokens domain.DesignTokens, prompt string) domain.Background {
	solid := domain.Background{Type: domain.BackgroundSolid, Color: tokens.Colors.Background}

	bf, ok := sf.object("background")
	if !ok {
		sf.note("slides[%d].background: missing, using solid %s", i, solid.Color)
		return solid
	}

	bg := domain.Background{
		Type:     strings.ToLower(bf.str("type")),
		Color:    bf.str("color"),
		Gradient: bf.str("gradient"),
		Image:    bf.str("image"),
		Overlay:  bf.str("overlay"),
	}

	switch bg.Type {
	case domain.BackgroundSolid:
		if bg.Color == "" {
			bg.Color = solid.Color
		}
		bg.Gradient, bg.Image = "", ""
	case domain.BackgroundGradient:
		if bg.Gradient == "" {
			sf.note("slides[%d].background: gradient without value, using solid", i)
			return solid
		}
		bg.Image = ""
	case domain.BackgroundImage:
		if bg.Image == "" {
			if prompt == "" {
				sf.note("slides[%d].background: image without prompt, using solid", i)
				return solid
			}
			bg.Image = prompt
		}
	default:
		sf.note("slides[%d].background.type: %q unknown, using solid", i, bg.Type)
		if bg.Color != "" {
			solid.Color = bg.Color
		}
		return solid
	}
	return bg
}

var knownRoles = map[string]bool{
	domain.RoleHeadline: true, domain.RoleSubheadline: true, domain.RoleBody: true,
	domain.RoleBullets: true, domain.RoleStat: true, domain.RoleCTA: true,
	domain.RoleCaption: true, domain.RoleImage: true, domain.RoleLogo: true,
	domain.RoleDecoration: true,
}

func parseElements(sf fields, i int) []domain.Element {
	items, ok := sf.array("elements")
	if !ok {
		return []domain.Element{}
	}

	out := make([]domain.Element, 0, len(items))
	for j, item := range items {
		ef, ok := sf.element("elements", j, item)
		if !ok {
			sf.note("slides[%d].elements[%d]: not an object, skipped", i, j)
			continue
		}

		el := domain.Element{
			ID:      ef.str("id"),
			Role:    strings.ToLower(ef.str("role")),
			Type:    strings.ToLower(ef.str("type")),
			Content: elementContent(ef),
			Style:   parseStyle(ef),
		}
		if el.Role != "" && !knownRoles[el.Role] {
			sf.note("slides[%d].elements[%d].role: %q unknown", i, j, el.Role)
			el.Role = ""
		}
		el.Type = elementType(el.Type, el.Role)
		if el.Role == "" {
			el.Role = defaultRole(el.Type)
		}
		if el.ID == "" || !uniqueIDFree(out, el.ID) {
			el.ID = "el-" + uuid.New().String()
			sf.note("slides[%d].elements[%d].id: generated %s", i, j, el.ID)
		}
		out = append(out, el)
	}
	return out
}

// elementContent accepts a list for bullet elements and joins it by line.
func elementContent(ef fields) string {
	if raw, ok := ef.obj["content"]; ok && phase.IsArray(raw) {
		return strings.Join(ef.strList("content"), "\n")
	}
	return ef.str("content")
}

func elementType(t, role string) string {
	switch t {
	case domain.ElementText, domain.ElementImage, domain.ElementShape, domain.ElementLogo:
		return t
	}
	switch role {
	case domain.RoleImage:
		return domain.ElementImage
	case domain.RoleLogo:
		return domain.ElementLogo
	case domain.RoleDecoration:
		return domain.ElementShape
	}
	return domain.ElementText
}

func defaultRole(t string) string {
	switch t {
	case domain.ElementImage:
		return domain.RoleImage
	case domain.ElementLogo:
		return domain.RoleLogo
	case domain.ElementShape:
		return domain.RoleDecoration
	}
	return domain.RoleBody
}

func parseStyle(ef fields) domain.ElementStyle {
	st, ok := ef.object("style")
	if !ok {
		return domain.ElementStyle{}
	}
	num := func(name string) int {
		n, _ := st.integer(name)
		return n
	}
	return domain.ElementStyle{
		FontFamily: st.str("fontFamily"),
		FontSize:   num("fontSize"),
		FontWeight: num("fontWeight"),
		Color:      st.str("color"),
		Align:      strings.ToLower(st.str("align")),
		X:          num("x"),
		Y:          num("y"),
		Width:      num("width"),
		Height:     num("height"),
	}
}

// backfillElements adds a text element for every populated copy field the
// model did not place.
func backfillElements(elements []domain.Element, sc domain.SlideCopy, i int) []domain.Element {
	type slot struct {
		role, value string
	}
	slots := []slot{
		{domain.RoleHeadline, sc.Headline},
		{domain.RoleSubheadline, sc.Subheadline},
		{domain.RoleBody, sc.Body},
		{domain.RoleBullets, strings.Join(compact(append([]string(nil), sc.Bullets...)), "\n")},
		{domain.RoleStat, sc.Stat},
		{domain.RoleCTA, sc.CTA},
		{domain.RoleCaption, sc.Caption},
	}
	for _, s := range slots {
		if strings.TrimSpace(s.value) == "" || hasRole(elements, s.role) {
			continue
		}
		elements = append(elements, domain.Element{
			ID:      uniqueID(elements, fmt.Sprintf("s%d-%s", i, s.role)),
			Role:    s.role,
			Type:    domain.ElementText,
			Content: s.value,
		})
	}
	return elements
}

func hasRole(elements []domain.Element, role string) bool {
	for _, e := range elements {
		if e.Role == role {
			return true
		}
	}
	return false
}

func uniqueIDFree(elements []domain.Element, id string) bool {
	for _, e := range elements {
		if e.ID == id {
			return false
		}
	}
	return true
}

func uniqueID(elements []domain.Element, want string) string {
	if uniqueIDFree(elements, want) {
		return want
	}
	return "el-" + uuid.New().String()
}

// parseTokens merges model tokens over the brand identity over defaults.
func parseTokens(f fields, brand domain.VisualIdentity) domain.DesignTokens {
	var model domain.DesignTokens
	if tf, ok := f.object("tokens"); ok {
		if cf, ok := tf.object("colors"); ok {
			model.Colors = domain.ColorTokens{
				Primary:    cf.str("primary"),
				Secondary:  cf.str("secondary"),
				Accent:     cf.str("accent"),
				Background: cf.str("background"),
				Text:       cf.str("text"),
			}
		}
		if ff, ok := tf.object("fonts"); ok {
			model.Fonts = domain.FontTokens{
				Heading: ff.str("heading"),
				Body:    ff.str("body"),
			}
		}
	}
	return domain.MergeTokens(domain.DefaultTokens(), domain.BrandTokens(brand), model)
}
