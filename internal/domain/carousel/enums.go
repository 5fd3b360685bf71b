package carousel

import "strings"

// EmotionalBeat is a named point on the fixed emotional progression.
type EmotionalBeat string

const (
	BeatCuriosity   EmotionalBeat = "curiosity"
	BeatPain        EmotionalBeat = "pain"
	BeatAgitation   EmotionalBeat = "agitation"
	BeatHope        EmotionalBeat = "hope"
	BeatTrust       EmotionalBeat = "trust"
	BeatProof       EmotionalBeat = "proof"
	BeatDesire      EmotionalBeat = "desire"
	BeatUrgency     EmotionalBeat = "urgency"
	BeatEmpowerment EmotionalBeat = "empowerment"
)

// TerminalBeat pads an emotional arc that came back too short.
const TerminalBeat = BeatEmpowerment

var emotionalBeats = []EmotionalBeat{
	BeatCuriosity, BeatPain, BeatAgitation, BeatHope, BeatTrust,
	BeatProof, BeatDesire, BeatUrgency, BeatEmpowerment,
}

// EmotionalBeats returns the full enum in progression order.
func EmotionalBeats() []EmotionalBeat {
	return append([]EmotionalBeat(nil), emotionalBeats...)
}

// ParseEmotionalBeat normalizes case and whitespace and reports whether the
// value is a known beat.
func ParseEmotionalBeat(s string) (EmotionalBeat, bool) {
	b := EmotionalBeat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range emotionalBeats {
		if b == known {
			return b, true
		}
	}
	return "", false
}

// NarrativeAngle is the storytelling approach the strategist commits to.
type NarrativeAngle string

const (
	AngleProblemSolution NarrativeAngle = "problem-solution"
	AngleStorytelling    NarrativeAngle = "storytelling"
	AngleEducational     NarrativeAngle = "educational"
	AngleContrarian      NarrativeAngle = "contrarian"
	AngleSocialProof     NarrativeAngle = "social-proof"
	AngleListicle        NarrativeAngle = "listicle"
)

var narrativeAngles = []NarrativeAngle{
	AngleProblemSolution, AngleStorytelling, AngleEducational,
	AngleContrarian, AngleSocialProof, AngleListicle,
}

func NarrativeAngles() []NarrativeAngle {
	return append([]NarrativeAngle(nil), narrativeAngles...)
}

func ParseNarrativeAngle(s string) (NarrativeAngle, bool) {
	a := NarrativeAngle(strings.ToLower(strings.TrimSpace(s)))
	a = NarrativeAngle(strings.ReplaceAll(string(a), "_", "-"))
	for _, known := range narrativeAngles {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// SlideType is the structural role of a slide inside a template.
type SlideType string

const (
	SlideHook     SlideType = "hook"
	SlideProblem  SlideType = "problem"
	SlideInsight  SlideType = "insight"
	SlideSolution SlideType = "solution"
	SlideProof    SlideType = "proof"
	SlideListItem SlideType = "list-item"
	SlideStory    SlideType = "story"
	SlideCTA      SlideType = "cta"
)
