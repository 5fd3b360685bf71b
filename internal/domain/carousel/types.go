package carousel

// Shared value objects handed from one pipeline stage to the next. Every
// artifact is produced by exactly one stage and read-only downstream.

// AssetType identifies what the wizard is asking the pipeline to build.
type AssetType string

const (
	AssetCarousel AssetType = "carousel"
	AssetPost     AssetType = "post"
	AssetStory    AssetType = "story"
)

// PipelineInput is created once at wizard submission and never mutated.
type PipelineInput struct {
	AssetType       AssetType   `json:"assetType"`
	ProductContext  string      `json:"productContext"`
	CampaignGoal    string      `json:"campaignGoal"`
	ContentBrief    string      `json:"contentBrief"`
	Language        string      `json:"language,omitempty"`
	ReferenceImages []string    `json:"referenceImages,omitempty"`
	Brand           BrandConfig `json:"brand"`
}

// BrandConfig is the persisted brand profile.
type BrandConfig struct {
	Name         string         `json:"name" yaml:"name"`
	Industry     string         `json:"industry,omitempty" yaml:"industry"`
	Audience     string         `json:"audience,omitempty" yaml:"audience"`
	Voice        VoiceConfig    `json:"voice" yaml:"voice"`
	CopyExamples []string       `json:"copyExamples,omitempty" yaml:"copy_examples"`
	Visual       VisualIdentity `json:"visual" yaml:"visual"`
}

type VoiceConfig struct {
	Attributes     []string `json:"attributes" yaml:"attributes"`
	ToneGuidelines string   `json:"toneGuidelines,omitempty" yaml:"tone_guidelines"`
	PhrasesToUse   []string `json:"phrasesToUse,omitempty" yaml:"phrases_to_use"`
	PhrasesToAvoid []string `json:"phrasesToAvoid,omitempty" yaml:"phrases_to_avoid"`
}

type VisualIdentity struct {
	LogoURL    string      `json:"logoUrl,omitempty" yaml:"logo_url"`
	Colors     ColorTokens `json:"colors" yaml:"colors"`
	Typography FontTokens  `json:"typography" yaml:"typography"`
	ImageStyle string      `json:"imageStyle,omitempty" yaml:"image_style"`
}

// StrategyBlueprint is the contract every downstream stage must honor.
// len(EmotionalArc) == SlideCount == catalog slide count for TemplateID.
type StrategyBlueprint struct {
	TemplateID        string          `json:"templateId"`
	SlideCount        int             `json:"slideCount"`
	NarrativeAngle    NarrativeAngle  `json:"narrativeAngle"`
	EmotionalArc      []EmotionalBeat `json:"emotionalArc"`
	ToneConstraints   []string        `json:"toneConstraints"`
	VisualConstraints []string        `json:"visualConstraints"`
	CTAConstraints    []string        `json:"ctaConstraints"`
	Reasoning         string          `json:"reasoning"`
}

// StoryStructure expands the template skeleton into per-slide intent.
type StoryStructure struct {
	Slides          []SlideBlueprint `json:"slides"`
	CopywriterNotes CopywriterNotes  `json:"copywriterNotes"`
}

type SlideBlueprint struct {
	Index           int           `json:"index"`
	Type            SlideType     `json:"type"`
	Layout          string        `json:"layout"`
	Purpose         string        `json:"purpose"`
	EmotionalBeat   EmotionalBeat `json:"emotionalBeat"`
	ContentBrief    string        `json:"contentBrief"`
	VisualDirection string        `json:"visualDirection"`
	TransitionHint  string        `json:"transitionHint,omitempty"`
}

type CopywriterNotes struct {
	KeyMessage     string   `json:"keyMessage"`
	ToneReminders  []string `json:"toneReminders"`
	PhrasesToUse   []string `json:"phrasesToUse"`
	PhrasesToAvoid []string `json:"phrasesToAvoid"`
}

// CopyOutput carries the literal on-slide text.
type CopyOutput struct {
	Slides               []SlideCopy `json:"slides"`
	AlternativeHeadlines []string    `json:"alternativeHeadlines"`
	AlternativeCTAs      []string    `json:"alternativeCtas"`
	Microcopy            Microcopy   `json:"microcopy"`
}

// SlideCopy holds one slide's text. Empty strings mean "not populated".
type SlideCopy struct {
	Index       int            `json:"index"`
	Headline    string         `json:"headline,omitempty"`
	Subheadline string         `json:"subheadline,omitempty"`
	Body        string         `json:"body,omitempty"`
	Bullets     []string       `json:"bullets,omitempty"`
	Stat        string         `json:"stat,omitempty"`
	CTA         string         `json:"cta,omitempty"`
	Caption     string         `json:"caption,omitempty"`
	CharCounts  map[string]int `json:"charCounts"`
}

type Microcopy struct {
	SwipeHint string `json:"swipeHint"`
	SaveHint  string `json:"saveHint"`
	ShareHint string `json:"shareHint"`
}

// VisualSpecification is the fully positioned design of every slide.
type VisualSpecification struct {
	Slides []SlideVisual `json:"slides"`
	Tokens DesignTokens  `json:"tokens"`
}

type SlideVisual struct {
	Index       int        `json:"index"`
	Layout      string     `json:"layout"`
	Canvas      Canvas     `json:"canvas"`
	Background  Background `json:"background"`
	Elements    []Element  `json:"elements"`
	ImagePrompt string     `json:"imagePrompt,omitempty"`
}

type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Background kinds.
const (
	BackgroundSolid    = "solid"
	BackgroundGradient = "gradient"
	BackgroundImage    = "image"
)

// Background.Image holds either a resolved URI or, before the image stage
// has run, a raw generation prompt.
type Background struct {
	Type     string `json:"type"`
	Color    string `json:"color,omitempty"`
	Gradient string `json:"gradient,omitempty"`
	Image    string `json:"image,omitempty"`
	Overlay  string `json:"overlay,omitempty"`
}

// Element types.
const (
	ElementText  = "text"
	ElementImage = "image"
	ElementShape = "shape"
	ElementLogo  = "logo"
)

// Element roles map onto fixed render slots.
const (
	RoleHeadline    = "headline"
	RoleSubheadline = "subheadline"
	RoleBody        = "body"
	RoleBullets     = "bullets"
	RoleStat        = "stat"
	RoleCTA         = "cta"
	RoleCaption     = "caption"
	RoleImage       = "image"
	RoleLogo        = "logo"
	RoleDecoration  = "decoration"
)

// Element is one positioned item on a slide. For image elements Content is
// a URI once resolved and a generation prompt before that.
type Element struct {
	ID      string       `json:"id"`
	Role    string       `json:"role"`
	Type    string       `json:"type"`
	Content string       `json:"content"`
	Style   ElementStyle `json:"style"`
}

type ElementStyle struct {
	FontFamily string `json:"fontFamily,omitempty"`
	FontSize   int    `json:"fontSize,omitempty"`
	FontWeight int    `json:"fontWeight,omitempty"`
	Color      string `json:"color,omitempty"`
	Align      string `json:"align,omitempty"`
	X          int    `json:"x,omitempty"`
	Y          int    `json:"y,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

type DesignTokens struct {
	Colors ColorTokens `json:"colors"`
	Fonts  FontTokens  `json:"fonts"`
}

type ColorTokens struct {
	Primary    string `json:"primary,omitempty" yaml:"primary"`
	Secondary  string `json:"secondary,omitempty" yaml:"secondary"`
	Accent     string `json:"accent,omitempty" yaml:"accent"`
	Background string `json:"background,omitempty" yaml:"background"`
	Text       string `json:"text,omitempty" yaml:"text"`
}

type FontTokens struct {
	Heading string `json:"heading,omitempty" yaml:"heading"`
	Body    string `json:"body,omitempty" yaml:"body"`
}

// Check severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// QualityReport is advisory; a failing report never aborts rendering.
type QualityReport struct {
	Passed  bool           `json:"passed"`
	Score   int            `json:"score"`
	Checks  []QualityCheck `json:"checks"`
	Summary string         `json:"summary,omitempty"`
}

type QualityCheck struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	Severity   string `json:"severity"`
	Message    string `json:"message,omitempty"`
	SlideIndex *int   `json:"slideIndex,omitempty"`
}

// RenderOutput is the terminal artifact consumed by preview and export.
type RenderOutput struct {
	Slides       []RenderedSlide `json:"slides"`
	GlobalCSS    string          `json:"globalCss"`
	FontFamilies []string        `json:"fontFamilies"`
}

type RenderedSlide struct {
	Index  int    `json:"index"`
	Layout string `json:"layout"`
	HTML   string `json:"html"`
	CSS    string `json:"css"`
}
