package carousel

import (
	"context"
	"errors"
	"strings"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
	"github.com/dotcommander/carousel/internal/phase"
)

type CopywriterInput struct {
	Input    domain.PipelineInput
	Strategy domain.StrategyBlueprint
	Story    domain.StoryStructure
}

// Copywriter writes the literal on-brand text of every slide.
type Copywriter struct {
	*phase.Agent[CopywriterInput, domain.CopyOutput]
}

func NewCopywriter(client agent.ModelClient, base phase.BasePhase, opts ...phase.AgentOption) *Copywriter {
	c := &Copywriter{}
	c.Agent = phase.NewAgent(base, client, copywriterSystem, BuildCopywriterPrompt,
		func(in CopywriterInput, raw string) (domain.CopyOutput, error) {
			out, notes, err := ParseCopy(in, raw)
			logRepairs(base, notes)
			return out, err
		}, opts...)
	return c
}

func (c *Copywriter) Execute(ctx context.Context, run *core.Run) (any, error) {
	if run.Strategy == nil || run.Story == nil {
		return nil, errors.New("copywriter requires a strategy blueprint and story structure")
	}
	out, err := c.Agent.Execute(ctx, CopywriterInput{Input: run.Input, Strategy: *run.Strategy, Story: *run.Story})
	if err != nil {
		return nil, err
	}
	run.Copy = &out
	return out, nil
}

type copySlideView struct {
	Blueprint domain.SlideBlueprint
	Limits    domain.CharLimits
}

// limitsFor returns the template ceilings for slide i.
func limitsFor(templateID string, i int) domain.CharLimits {
	tmpl, ok := domain.LookupTemplate(templateID)
	if !ok {
		return domain.CharLimits{}
	}
	s, ok := tmpl.Slide(i)
	if !ok {
		return domain.CharLimits{}
	}
	return s.Limits
}

func BuildCopywriterPrompt(in CopywriterInput) (string, error) {
	slides := make([]copySlideView, len(in.Story.Slides))
	for i, bp := range in.Story.Slides {
		slides[i] = copySlideView{Blueprint: bp, Limits: limitsFor(in.Strategy.TemplateID, i)}
	}
	return phase.ExecutePrompt(copywriterPrompt, struct {
		In       domain.PipelineInput
		Strategy domain.StrategyBlueprint
		Story    domain.StoryStructure
		Slides   []copySlideView
	}{in.Input, in.Strategy, in.Story, slides})
}

// ParseCopy requires a slides array. Everything else is repaired: slides
// are aligned to the story, fields the template does not allow are
// dropped, over-long fields are trimmed at a word boundary, charCounts are
// recomputed and missing microcopy is defaulted.
func ParseCopy(in CopywriterInput, raw string) (domain.CopyOutput, []string, error) {
	var notes []string
	obj, err := phase.DecodeObject(raw)
	if err != nil {
		return domain.CopyOutput{}, nil, core.NewSchemaError(core.StageCopywriter, "", err.Error())
	}
	f := newFields(obj, "", &notes)

	items, ok := f.array("slides")
	if !ok {
		return domain.CopyOutput{}, notes, core.NewSchemaError(core.StageCopywriter, "slides", "required array is missing or not an array")
	}

	want := len(in.Story.Slides)
	if want == 0 {
		want = len(items)
	}
	if len(items) > want {
		f.note("slides: %d returned for %d story slides, truncated", len(items), want)
		items = items[:want]
	}

	out := domain.CopyOutput{
		Slides:               make([]domain.SlideCopy, want),
		AlternativeHeadlines: f.strList("alternativeHeadlines"),
		AlternativeCTAs:      f.strList("alternativeCtas"),
		Microcopy:            parseMicrocopy(f),
	}
	if len(items) < want {
		f.note("slides: %d returned for %d story slides, padded with empty slides", len(items), want)
	}

	for i := range out.Slides {
		slide := domain.SlideCopy{Index: i}
		if i < len(items) {
			sf, ok := f.element("slides", i, items[i])
			if !ok {
				f.note("slides[%d]: not an object, left empty", i)
			} else {
				slide = decodeSlideCopy(sf, i)
			}
		}
		enforceLimits(&slide, limitsFor(in.Strategy.TemplateID, i), f)
		slide.CharCounts = slide.CountChars()
		out.Slides[i] = slide
	}

	return out, notes, nil
}

func decodeSlideCopy(sf fields, i int) domain.SlideCopy {
	if idx, ok := sf.integer("index"); ok && idx != i {
		sf.note("slides[%d].index: %d renumbered", i, idx)
	}
	return domain.SlideCopy{
		Index:       i,
		Headline:    sf.str("headline"),
		Subheadline: sf.str("subheadline"),
		Body:        sf.str("body"),
		Bullets:     sf.strList("bullets"),
		Stat:        sf.str("stat"),
		CTA:         sf.str("cta"),
		Caption:     sf.str("caption"),
	}
}

// enforceLimits drops fields with no allowance and trims fields over it.
func enforceLimits(s *domain.SlideCopy, limits domain.CharLimits, f fields) {
	fit := func(field string, value *string) {
		if *value == "" {
			return
		}
		limit := limits.For(field)
		switch {
		case limit == 0:
			f.note("slides[%d].%s: not used on a %s slide, dropped", s.Index, field, slideKind(limits))
			*value = ""
		case phase.CharCount(*value) > limit:
			f.note("slides[%d].%s: %d chars over limit %d, trimmed", s.Index, field, phase.CharCount(*value), limit)
			*value = phase.TruncateWords(*value, limit)
		}
	}

	fit(domain.FieldHeadline, &s.Headline)
	fit(domain.FieldSubheadline, &s.Subheadline)
	fit(domain.FieldBody, &s.Body)
	fit(domain.FieldStat, &s.Stat)
	fit(domain.FieldCTA, &s.CTA)
	fit(domain.FieldCaption, &s.Caption)

	if len(s.Bullets) > 0 && limits.Bullet == 0 {
		f.note("slides[%d].bullets: not used on a %s slide, dropped", s.Index, slideKind(limits))
		s.Bullets = nil
	}
	for i := range s.Bullets {
		fit(domain.FieldBullet, &s.Bullets[i])
	}
	s.Bullets = compact(s.Bullets)
}

func slideKind(l domain.CharLimits) string {
	switch {
	case l == (domain.CharLimits{}):
		return "unknown"
	case l.CTA > 0:
		return "closing"
	case l.Body == 0:
		return "cover"
	}
	return "body"
}

func compact(items []string) []string {
	if items == nil {
		return nil
	}
	out := items[:0]
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseMicrocopy(f fields) domain.Microcopy {
	def := domain.DefaultMicrocopy()
	mf, ok := f.object("microcopy")
	if !ok {
		f.note("microcopy: missing, using defaults")
		return def
	}
	pick := func(key, fallback string) string {
		if v := mf.str(key); v != "" {
			return v
		}
		return fallback
	}
	return domain.Microcopy{
		SwipeHint: pick("swipeHint", def.SwipeHint),
		SaveHint:  pick("saveHint", def.SaveHint),
		ShareHint: pick("shareHint", def.ShareHint),
	}
}
