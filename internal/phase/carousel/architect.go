package carousel

import (
	"context"
	"errors"
	"fmt"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
	"github.com/dotcommander/carousel/internal/phase"
)

type ArchitectInput struct {
	Input    domain.PipelineInput
	Strategy domain.StrategyBlueprint
}

// StoryArchitect expands the template skeleton into per-slide briefs.
type StoryArchitect struct {
	*phase.Agent[ArchitectInput, domain.StoryStructure]
}

func NewStoryArchitect(client agent.ModelClient, base phase.BasePhase, opts ...phase.AgentOption) *StoryArchitect {
	s := &StoryArchitect{}
	s.Agent = phase.NewAgent(base, client, architectSystem, BuildArchitectPrompt,
		func(in ArchitectInput, raw string) (domain.StoryStructure, error) {
			out, notes, err := ParseStory(in, raw)
			logRepairs(base, notes)
			return out, err
		}, opts...)
	return s
}

func (s *StoryArchitect) Execute(ctx context.Context, run *core.Run) (any, error) {
	if run.Strategy == nil {
		return nil, errors.New("story architect requires a strategy blueprint")
	}
	out, err := s.Agent.Execute(ctx, ArchitectInput{Input: run.Input, Strategy: *run.Strategy})
	if err != nil {
		return nil, err
	}
	run.Story = &out
	return out, nil
}

type skeletonSlide struct {
	Index  int
	Type   domain.SlideType
	Layout string
	Beat   domain.EmotionalBeat
}

func skeleton(strategy domain.StrategyBlueprint) ([]skeletonSlide, domain.Template, error) {
	tmpl, ok := domain.LookupTemplate(strategy.TemplateID)
	if !ok {
		return nil, domain.Template{}, &core.InvalidTemplateError{TemplateID: strategy.TemplateID, Known: domain.TemplateIDs()}
	}
	out := make([]skeletonSlide, tmpl.SlideCount)
	for i, s := range tmpl.Slides {
		beat := s.DefaultBeat
		if i < len(strategy.EmotionalArc) {
			beat = strategy.EmotionalArc[i]
		}
		out[i] = skeletonSlide{
			Index:  i,
			Type:   s.Type,
			Layout: domain.LayoutForIndex(i, tmpl.SlideCount),
			Beat:   beat,
		}
	}
	return out, tmpl, nil
}

func BuildArchitectPrompt(in ArchitectInput) (string, error) {
	slides, _, err := skeleton(in.Strategy)
	if err != nil {
		return "", err
	}
	return phase.ExecutePrompt(architectPrompt, struct {
		In       domain.PipelineInput
		Strategy domain.StrategyBlueprint
		Skeleton []skeletonSlide
	}{in.Input, in.Strategy, slides})
}

// ParseStory requires a slides array and a copywriterNotes object. Slide
// type, layout and beat are forced from the template and blueprint; extra
// slides are dropped, too few is a schema error.
func ParseStory(in ArchitectInput, raw string) (domain.StoryStructure, []string, error) {
	var notes []string
	obj, err := phase.DecodeObject(raw)
	if err != nil {
		return domain.StoryStructure{}, nil, core.NewSchemaError(core.StageArchitect, "", err.Error())
	}
	f := newFields(obj, "", &notes)

	items, ok := f.array("slides")
	if !ok {
		return domain.StoryStructure{}, notes, core.NewSchemaError(core.StageArchitect, "slides", "required array is missing or not an array")
	}
	notesObj, ok := f.object("copywriterNotes")
	if !ok {
		return domain.StoryStructure{}, notes, core.NewSchemaError(core.StageArchitect, "copywriterNotes", "required object is missing or not an object")
	}

	slides, tmpl, err := skeleton(in.Strategy)
	if err != nil {
		return domain.StoryStructure{}, notes, err
	}

	if len(items) < tmpl.SlideCount {
		return domain.StoryStructure{}, notes, core.NewSchemaError(core.StageArchitect, "slides",
			fmt.Sprintf("got %d slides, template %s needs %d", len(items), tmpl.ID, tmpl.SlideCount))
	}
	if len(items) > tmpl.SlideCount {
		f.note("slides: %d returned for %d-slide template, truncated", len(items), tmpl.SlideCount)
		items = items[:tmpl.SlideCount]
	}

	out := domain.StoryStructure{Slides: make([]domain.SlideBlueprint, len(items))}
	for i, item := range items {
		sf, ok := f.element("slides", i, item)
		if !ok {
			return domain.StoryStructure{}, notes, core.NewSchemaError(core.StageArchitect, fmt.Sprintf("slides[%d]", i), "not an object")
		}
		want := slides[i]

		if t := sf.str("type"); t != "" && domain.SlideType(normalize(t)) != want.Type {
			sf.note("slides[%d].type: %q replaced by template type %s", i, t, want.Type)
		}
		if b := sf.str("emotionalBeat"); b != "" {
			if beat, ok := domain.ParseEmotionalBeat(b); !ok || beat != want.Beat {
				sf.note("slides[%d].emotionalBeat: %q replaced by blueprint beat %s", i, b, want.Beat)
			}
		}

		out.Slides[i] = domain.SlideBlueprint{
			Index:           i,
			Type:            want.Type,
			Layout:          want.Layout,
			Purpose:         sf.str("purpose"),
			EmotionalBeat:   want.Beat,
			ContentBrief:    sf.str("contentBrief"),
			VisualDirection: sf.str("visualDirection"),
			TransitionHint:  sf.str("transitionHint"),
		}
	}

	brand := in.Input.Brand.Voice
	out.CopywriterNotes = domain.CopywriterNotes{
		KeyMessage:     notesObj.str("keyMessage"),
		ToneReminders:  mergeUnique(notesObj.strList("toneReminders"), in.Strategy.ToneConstraints),
		PhrasesToUse:   mergeUnique(notesObj.strList("phrasesToUse"), brand.PhrasesToUse),
		PhrasesToAvoid: mergeUnique(notesObj.strList("phrasesToAvoid"), brand.PhrasesToAvoid),
	}
	return out, notes, nil
}
