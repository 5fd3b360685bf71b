package carousel

import (
	"context"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
	"github.com/dotcommander/carousel/internal/phase"
)

// BrandStrategist picks the template, narrative angle and emotional arc.
type BrandStrategist struct {
	*phase.Agent[domain.PipelineInput, domain.StrategyBlueprint]
}

func NewBrandStrategist(client agent.ModelClient, base phase.BasePhase, opts ...phase.AgentOption) *BrandStrategist {
	s := &BrandStrategist{}
	s.Agent = phase.NewAgent(base, client, strategistSystem, BuildStrategistPrompt,
		func(_ domain.PipelineInput, raw string) (domain.StrategyBlueprint, error) {
			out, notes, err := ParseStrategy(raw)
			logRepairs(base, notes)
			return out, err
		}, opts...)
	return s
}

func (s *BrandStrategist) Execute(ctx context.Context, run *core.Run) (any, error) {
	out, err := s.Agent.Execute(ctx, run.Input)
	if err != nil {
		return nil, err
	}
	run.Strategy = &out
	return out, nil
}

type strategistView struct {
	In        domain.PipelineInput
	Templates []domain.Template
	Angles    []string
	Beats     []string
}

// BuildStrategistPrompt serializes the full input plus the catalog.
func BuildStrategistPrompt(in domain.PipelineInput) (string, error) {
	view := strategistView{In: in, Templates: domain.Templates()}
	for _, a := range domain.NarrativeAngles() {
		view.Angles = append(view.Angles, string(a))
	}
	for _, b := range domain.EmotionalBeats() {
		view.Beats = append(view.Beats, string(b))
	}
	return phase.ExecutePrompt(strategistPrompt, view)
}

// ParseStrategy validates a strategist reply against the catalog. An
// unknown template is a hard failure; slide count, angle and arc are
// repaired to fit the chosen template and every repair is reported in
// notes.
func ParseStrategy(raw string) (domain.StrategyBlueprint, []string, error) {
	var notes []string
	obj, err := phase.DecodeObject(raw)
	if err != nil {
		return domain.StrategyBlueprint{}, nil, core.NewSchemaError(core.StageStrategist, "", err.Error())
	}
	f := newFields(obj, "", &notes)

	if !f.has("templateId") {
		return domain.StrategyBlueprint{}, notes, core.NewSchemaError(core.StageStrategist, "templateId", "required")
	}
	templateID := f.str("templateId")
	tmpl, ok := domain.LookupTemplate(templateID)
	if !ok {
		return domain.StrategyBlueprint{}, notes, &core.InvalidTemplateError{
			TemplateID: templateID,
			Known:      domain.TemplateIDs(),
		}
	}

	out := domain.StrategyBlueprint{
		TemplateID:        tmpl.ID,
		SlideCount:        tmpl.SlideCount,
		ToneConstraints:   f.strList("toneConstraints"),
		VisualConstraints: f.strList("visualConstraints"),
		CTAConstraints:    f.strList("ctaConstraints"),
		Reasoning:         f.str("reasoning"),
	}

	if n, ok := f.integer("slideCount"); ok && n != tmpl.SlideCount {
		f.note("slideCount: %d does not match template %s, using %d", n, tmpl.ID, tmpl.SlideCount)
	}

	rawAngle := f.str("narrativeAngle")
	angle, ok := domain.ParseNarrativeAngle(rawAngle)
	if !ok {
		f.note("narrativeAngle: %q unknown, using %s", rawAngle, tmpl.DefaultAngle)
		angle = tmpl.DefaultAngle
	}
	out.NarrativeAngle = angle

	out.EmotionalArc = fitArc(f, tmpl)
	return out, notes, nil
}

// fitArc normalizes each beat and then truncates or pads the arc to the
// template's slide count.
func fitArc(f fields, tmpl domain.Template) []domain.EmotionalBeat {
	items, present := f.obj["emotionalArc"]
	if !present || !phase.IsArray(items) {
		f.note("emotionalArc: missing, using template defaults")
		arc := make([]domain.EmotionalBeat, len(tmpl.Slides))
		for i, s := range tmpl.Slides {
			arc[i] = s.DefaultBeat
		}
		return arc
	}

	raw := f.strList("emotionalArc")
	arc := make([]domain.EmotionalBeat, 0, tmpl.SlideCount)
	for i, s := range raw {
		beat, ok := domain.ParseEmotionalBeat(s)
		if !ok {
			fallback := domain.TerminalBeat
			if ts, ok := tmpl.Slide(i); ok {
				fallback = ts.DefaultBeat
			}
			f.note("emotionalArc[%d]: %q unknown, using %s", i, s, fallback)
			beat = fallback
		}
		arc = append(arc, beat)
	}

	switch {
	case len(arc) > tmpl.SlideCount:
		f.note("emotionalArc: %d beats for %d slides, truncated", len(arc), tmpl.SlideCount)
		arc = arc[:tmpl.SlideCount]
	case len(arc) < tmpl.SlideCount:
		f.note("emotionalArc: %d beats for %d slides, padded with %s", len(arc), tmpl.SlideCount, domain.TerminalBeat)
		for len(arc) < tmpl.SlideCount {
			arc = append(arc, domain.TerminalBeat)
		}
	}
	return arc
}

func logRepairs(base phase.BasePhase, notes []string) {
	for _, n := range notes {
		base.Logger().Warn("repaired model output", "repair", n)
	}
}
