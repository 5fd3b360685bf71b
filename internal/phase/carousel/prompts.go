package carousel

import (
	"github.com/dotcommander/carousel/internal/phase"
)

// brandBlock is shared by every user prompt so each stage stays grounded
// in the same brand and brief.
const brandBlock = `{{define "brand"}}## Brand
Name: {{.Brand.Name}}
Industry: {{orNone .Brand.Industry}}
Audience: {{orNone .Brand.Audience}}
Voice attributes: {{if .Brand.Voice.Attributes}}{{join .Brand.Voice.Attributes ", "}}{{else}}(none){{end}}
Tone guidelines: {{orNone .Brand.Voice.ToneGuidelines}}
Phrases to use:
{{bullets .Brand.Voice.PhrasesToUse}}
Phrases to avoid:
{{bullets .Brand.Voice.PhrasesToAvoid}}
Copy examples:
{{bullets .Brand.CopyExamples}}
Image style: {{orNone .Brand.Visual.ImageStyle}}

## Request
Asset type: {{.AssetType}}
Language: {{orNone .Language}}
Product or service: {{orNone .ProductContext}}
Campaign goal: {{orNone .CampaignGoal}}
Content brief: {{orNone .ContentBrief}}
Reference images: {{len .ReferenceImages}}{{end}}`

const strategistSystem = `You are a senior brand strategist planning a social media carousel.

Choose exactly one template from the catalog you are given. Never invent a template.
Choose one narrative angle from the allowed list.
Produce one emotional beat per slide, in order, using only the allowed beats. The arc must have exactly as many beats as the template has slides and should end on "empowerment".

Respond with a single JSON object:
{
  "templateId": "<catalog id>",
  "slideCount": <number>,
  "narrativeAngle": "<angle>",
  "emotionalArc": ["<beat>", ...],
  "toneConstraints": ["..."],
  "visualConstraints": ["..."],
  "ctaConstraints": ["..."],
  "reasoning": "<why this template and angle fit>"
}`

var strategistPrompt = phase.MustParsePrompt("brand-strategist", brandBlock+`
{{template "brand" .In}}

## Template catalog
{{range .Templates}}- {{.ID}} ({{.SlideCount}} slides, recommended angle {{.DefaultAngle}}): {{.Description}}
  Slides: {{range $i, $s := .Slides}}{{if $i}}, {{end}}{{inc $i}}={{$s.Type}}/{{$s.DefaultBeat}}{{end}}
{{end}}
## Allowed narrative angles
{{join .Angles ", "}}

## Allowed emotional beats
{{join .Beats ", "}}`)

const architectSystem = `You are a story architect turning a carousel strategy into a slide-by-slide structure.

For every slide in the template skeleton, describe its purpose, a content brief (WHAT to say, never the literal copy), and a visual direction (mood and emphasis only, never literal colors, fonts or positions; a separate designer handles those).
Keep the slide order, slide types and emotional beats exactly as given.

Respond with a single JSON object:
{
  "slides": [
    {"index": 0, "type": "<slide type>", "layout": "<layout>", "purpose": "...", "emotionalBeat": "<beat>", "contentBrief": "...", "visualDirection": "...", "transitionHint": "..."}
  ],
  "copywriterNotes": {
    "keyMessage": "...",
    "toneReminders": ["..."],
    "phrasesToUse": ["..."],
    "phrasesToAvoid": ["..."]
  }
}`

var architectPrompt = phase.MustParsePrompt("story-architect", brandBlock+`
{{template "brand" .In}}

## Strategy
Template: {{.Strategy.TemplateID}} ({{.Strategy.SlideCount}} slides)
Narrative angle: {{.Strategy.NarrativeAngle}}
Tone constraints:
{{bullets .Strategy.ToneConstraints}}
CTA constraints:
{{bullets .Strategy.CTAConstraints}}
Reasoning: {{orNone .Strategy.Reasoning}}

## Slide skeleton
{{range .Skeleton}}- Slide {{.Index}}: type={{.Type}}, layout={{.Layout}}, emotionalBeat={{.Beat}}
{{end}}`)

const copywriterSystem = `You are a conversion copywriter writing the literal text of a social media carousel in the brand's voice.

Respect every character limit exactly; a field with a limit of 0 must be left out.
Use the brand's preferred phrases where natural and never use the phrases to avoid.
For every field you write, report its character count in "charCounts".

Respond with a single JSON object:
{
  "slides": [
    {"index": 0, "headline": "...", "subheadline": "...", "body": "...", "bullets": ["..."], "stat": "...", "cta": "...", "caption": "...", "charCounts": {"headline": 0}}
  ],
  "alternativeHeadlines": ["..."],
  "alternativeCtas": ["..."],
  "microcopy": {"swipeHint": "...", "saveHint": "...", "shareHint": "..."}
}`

var copywriterPrompt = phase.MustParsePrompt("copywriter", brandBlock+`
{{template "brand" .In}}

## Strategy
Narrative angle: {{.Strategy.NarrativeAngle}}
Tone constraints:
{{bullets .Strategy.ToneConstraints}}
CTA constraints:
{{bullets .Strategy.CTAConstraints}}

## Copywriter notes
Key message: {{orNone .Story.CopywriterNotes.KeyMessage}}
Tone reminders:
{{bullets .Story.CopywriterNotes.ToneReminders}}
Phrases to use:
{{bullets .Story.CopywriterNotes.PhrasesToUse}}
Phrases to avoid:
{{bullets .Story.CopywriterNotes.PhrasesToAvoid}}

## Slides
{{range .Slides}}### Slide {{.Blueprint.Index}} ({{.Blueprint.Type}}, {{.Blueprint.EmotionalBeat}})
Purpose: {{orNone .Blueprint.Purpose}}
Content brief: {{orNone .Blueprint.ContentBrief}}
Character limits: headline {{.Limits.Headline}}, subheadline {{.Limits.Subheadline}}, body {{.Limits.Body}}, each bullet {{.Limits.Bullet}}, stat {{.Limits.Stat}}, cta {{.Limits.CTA}}, caption {{.Limits.Caption}}
{{end}}`)

const compositorSystem = `You are a visual designer composing carousel slides on a 1080x1350 canvas.

Layouts are fixed by position: the first slide uses "cover-hero", the last uses "closing-cta", every other slide uses "content-split".
Emit one element per copy field, reusing the copy verbatim, with role one of: headline, subheadline, body, bullets, stat, cta, caption, image, logo, decoration.
Backgrounds are {"type": "solid"|"gradient"|"image"}. For an image background or image element, put a detailed image-generation prompt in "image" or "content"; it will be replaced by a generated image.
Give every slide an "imagePrompt" describing the ideal supporting image.

Respond with a single JSON object:
{
  "slides": [
    {"index": 0, "layout": "cover-hero", "canvas": {"width": 1080, "height": 1350},
     "background": {"type": "solid", "color": "#FFFFFF"},
     "elements": [{"id": "...", "role": "headline", "type": "text", "content": "...", "style": {"fontSize": 64, "fontWeight": 700, "color": "#000000", "align": "left", "x": 80, "y": 120, "width": 920}}],
     "imagePrompt": "..."}
  ],
  "tokens": {"colors": {"primary": "...", "secondary": "...", "accent": "...", "background": "...", "text": "..."}, "fonts": {"heading": "...", "body": "..."}}
}`

var compositorPrompt = phase.MustParsePrompt("visual-compositor", brandBlock+`
{{template "brand" .In}}

## Visual identity
Colors: primary {{orNone .In.Brand.Visual.Colors.Primary}}, secondary {{orNone .In.Brand.Visual.Colors.Secondary}}, accent {{orNone .In.Brand.Visual.Colors.Accent}}, background {{orNone .In.Brand.Visual.Colors.Background}}, text {{orNone .In.Brand.Visual.Colors.Text}}
Fonts: heading {{orNone .In.Brand.Visual.Typography.Heading}}, body {{orNone .In.Brand.Visual.Typography.Body}}
Logo: {{if .In.Brand.Visual.LogoURL}}provided{{else}}(none){{end}}
Visual constraints:
{{bullets .Strategy.VisualConstraints}}

## Slides
{{range .Slides}}### Slide {{.Index}} (layout {{.Layout}}, beat {{.Beat}})
Visual direction: {{orNone .Direction}}
Copy:
{{json .Copy}}
{{end}}`)

const qualitySystem = `You are a brand quality reviewer checking a finished carousel before it is published.

Assess only what needs judgment: brand voice alignment, narrative flow between slides, emotional arc fit, and clarity of the call to action. Deterministic checks such as character limits are handled elsewhere.
Severity is one of "info", "warning", "error". Use "error" only for problems that would embarrass the brand.

Respond with a single JSON object:
{
  "checks": [{"name": "brand-voice-alignment", "passed": true, "severity": "warning", "message": "...", "slideIndex": 0}],
  "summary": "..."
}`

var qualityPrompt = phase.MustParsePrompt("quality-validator", brandBlock+`
{{template "brand" .In}}

## Intended emotional arc
{{join .Arc ", "}}

## Copy
{{json .Copy.Slides}}

## Visual summary
{{range .Visual}}- Slide {{.Index}}: layout {{.Layout}}, background {{.Background}}, {{.Elements}} elements
{{end}}`)
