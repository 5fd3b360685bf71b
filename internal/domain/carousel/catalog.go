package carousel

import (
	"fmt"
	"sort"
)

// Layout identifiers. Every slide lands on exactly one of these by position.
const (
	LayoutCover   = "cover-hero"
	LayoutBody    = "content-split"
	LayoutClosing = "closing-cta"
)

// Default canvas: 4:5 portrait, the feed-native carousel size.
const (
	CanvasWidth  = 1080
	CanvasHeight = 1350
)

// DefaultCanvas returns the canvas used when a slide omits one.
func DefaultCanvas() Canvas {
	return Canvas{Width: CanvasWidth, Height: CanvasHeight}
}

// LayoutForIndex maps a slide position to its layout: first slide is the
// cover, last is the closing slide, everything else is a body slide.
func LayoutForIndex(index, total int) string {
	switch {
	case index == 0:
		return LayoutCover
	case index == total-1:
		return LayoutClosing
	default:
		return LayoutBody
	}
}

// Copy field names used in character limits and charCounts.
const (
	FieldHeadline    = "headline"
	FieldSubheadline = "subheadline"
	FieldBody        = "body"
	FieldBullet      = "bullet"
	FieldStat        = "stat"
	FieldCTA         = "cta"
	FieldCaption     = "caption"
)

// CharLimits declares per-field ceilings. Zero means the field is not used
// on that slide.
type CharLimits struct {
	Headline    int `json:"headline"`
	Subheadline int `json:"subheadline"`
	Body        int `json:"body"`
	Bullet      int `json:"bullet"`
	Stat        int `json:"stat"`
	CTA         int `json:"cta"`
	Caption     int `json:"caption"`
}

// For returns the ceiling declared for field.
func (l CharLimits) For(field string) int {
	switch field {
	case FieldHeadline:
		return l.Headline
	case FieldSubheadline:
		return l.Subheadline
	case FieldBody:
		return l.Body
	case FieldBullet:
		return l.Bullet
	case FieldStat:
		return l.Stat
	case FieldCTA:
		return l.CTA
	case FieldCaption:
		return l.Caption
	}
	return 0
}

// TemplateSlide is one position in a template skeleton.
type TemplateSlide struct {
	Type        SlideType     `json:"type"`
	DefaultBeat EmotionalBeat `json:"defaultBeat"`
	Limits      CharLimits    `json:"limits"`
}

// Template is a fixed named skeleton the strategist must choose from.
type Template struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	SlideCount   int             `json:"slideCount"`
	DefaultAngle NarrativeAngle  `json:"defaultAngle"`
	Slides       []TemplateSlide `json:"slides"`
}

// Slide returns the skeleton entry at index, or false if out of range.
func (t Template) Slide(index int) (TemplateSlide, bool) {
	if index < 0 || index >= len(t.Slides) {
		return TemplateSlide{}, false
	}
	return t.Slides[index], true
}

var (
	coverLimits   = CharLimits{Headline: 60, Subheadline: 90, Caption: 40}
	bodyLimits    = CharLimits{Headline: 50, Subheadline: 80, Body: 220, Bullet: 60, Stat: 12, Caption: 60}
	listLimits    = CharLimits{Headline: 45, Body: 160, Bullet: 55, Stat: 12}
	proofLimits   = CharLimits{Headline: 50, Body: 180, Stat: 12, Caption: 80}
	closingLimits = CharLimits{Headline: 50, Subheadline: 80, Body: 120, CTA: 30, Caption: 60}
)

func slide(t SlideType, beat EmotionalBeat, limits CharLimits) TemplateSlide {
	return TemplateSlide{Type: t, DefaultBeat: beat, Limits: limits}
}

func newTemplate(id, name, description string, angle NarrativeAngle, slides ...TemplateSlide) Template {
	return Template{
		ID:           id,
		Name:         name,
		Description:  description,
		SlideCount:   len(slides),
		DefaultAngle: angle,
		Slides:       slides,
	}
}

var catalog = map[string]Template{}

func register(t Template) {
	if _, dup := catalog[t.ID]; dup {
		panic(fmt.Sprintf("carousel: duplicate template %q", t.ID))
	}
	catalog[t.ID] = t
}

func init() {
	register(newTemplate("problem-solution-5", "Problem → Solution",
		"Name a painful problem, deepen it, reveal the solution, prove it, invite action.",
		AngleProblemSolution,
		slide(SlideHook, BeatCuriosity, coverLimits),
		slide(SlideProblem, BeatPain, bodyLimits),
		slide(SlideSolution, BeatHope, bodyLimits),
		slide(SlideProof, BeatTrust, proofLimits),
		slide(SlideCTA, BeatEmpowerment, closingLimits),
	))
	register(newTemplate("listicle-7", "Numbered List",
		"A hook followed by five scannable tips and a closing call to action.",
		AngleListicle,
		slide(SlideHook, BeatCuriosity, coverLimits),
		slide(SlideListItem, BeatHope, listLimits),
		slide(SlideListItem, BeatTrust, listLimits),
		slide(SlideListItem, BeatDesire, listLimits),
		slide(SlideListItem, BeatProof, listLimits),
		slide(SlideListItem, BeatDesire, listLimits),
		slide(SlideCTA, BeatEmpowerment, closingLimits),
	))
	register(newTemplate("story-arc-6", "Story Arc",
		"A short customer or founder story moving from struggle to transformation.",
		AngleStorytelling,
		slide(SlideHook, BeatCuriosity, coverLimits),
		slide(SlideStory, BeatPain, bodyLimits),
		slide(SlideStory, BeatAgitation, bodyLimits),
		slide(SlideStory, BeatHope, bodyLimits),
		slide(SlideProof, BeatTrust, proofLimits),
		slide(SlideCTA, BeatEmpowerment, closingLimits),
	))
	register(newTemplate("myth-busting-6", "Myth Busting",
		"Challenge common beliefs one at a time and replace them with the truth.",
		AngleContrarian,
		slide(SlideHook, BeatCuriosity, coverLimits),
		slide(SlideInsight, BeatAgitation, bodyLimits),
		slide(SlideInsight, BeatAgitation, bodyLimits),
		slide(SlideInsight, BeatHope, bodyLimits),
		slide(SlideSolution, BeatTrust, bodyLimits),
		slide(SlideCTA, BeatEmpowerment, closingLimits),
	))
	register(newTemplate("before-after-4", "Before / After",
		"Contrast the world before and after the product in four tight slides.",
		AngleSocialProof,
		slide(SlideHook, BeatCuriosity, coverLimits),
		slide(SlideProblem, BeatPain, bodyLimits),
		slide(SlideProof, BeatDesire, proofLimits),
		slide(SlideCTA, BeatEmpowerment, closingLimits),
	))
	register(newTemplate("educational-5", "Mini Lesson",
		"Teach one concept step by step, then show where to learn more.",
		AngleEducational,
		slide(SlideHook, BeatCuriosity, coverLimits),
		slide(SlideInsight, BeatCuriosity, bodyLimits),
		slide(SlideInsight, BeatTrust, bodyLimits),
		slide(SlideSolution, BeatDesire, bodyLimits),
		slide(SlideCTA, BeatEmpowerment, closingLimits),
	))
}

// LookupTemplate returns the catalog entry for id.
func LookupTemplate(id string) (Template, bool) {
	t, ok := catalog[id]
	return t, ok
}

// Templates returns every catalog entry ordered by ID.
func Templates() []Template {
	out := make([]Template, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TemplateIDs returns the sorted catalog keys.
func TemplateIDs() []string {
	ts := Templates()
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids
}
