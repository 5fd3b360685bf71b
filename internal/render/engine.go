// Package render turns a positioned VisualSpecification into HTML and CSS.
// Rendering is deterministic: the same spec always yields byte-identical
// output.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

var _ core.Renderer = (*Engine)(nil)

// Engine renders slides through fixed per-layout templates.
type Engine struct {
	md        goldmark.Markdown
	layouts   map[string]*template.Template
	swipeHint string
	logger    *slog.Logger
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSwipeHint sets the hint printed in the cover footer.
func WithSwipeHint(hint string) Option {
	return func(e *Engine) {
		e.swipeHint = strings.TrimSpace(hint)
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		// Raw HTML in model copy is dropped; goldmark omits it unless
		// WithUnsafe is set.
		md:        goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps())),
		layouts:   parseLayouts(),
		swipeHint: domain.DefaultMicrocopy().SwipeHint,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "render")
	return e
}

// Render produces one RenderedSlide per slide plus the shared stylesheet
// and the ordered set of font families to load.
func (e *Engine) Render(spec domain.VisualSpecification) (domain.RenderOutput, error) {
	tokens := domain.MergeTokens(domain.DefaultTokens(), spec.Tokens)
	out := domain.RenderOutput{
		Slides:       make([]domain.RenderedSlide, 0, len(spec.Slides)),
		GlobalCSS:    globalCSS(tokens),
		FontFamilies: fontFamilies(spec, tokens),
	}

	total := len(spec.Slides)
	for i, s := range spec.Slides {
		layout := s.Layout
		if _, ok := e.layouts[layout]; !ok {
			layout = domain.LayoutForIndex(i, total)
			e.logger.Warn("unknown layout, using positional default", "slide", i, "layout", s.Layout, "fallback", layout)
		}
		html, err := e.renderSlide(i, total, layout, s)
		if err != nil {
			return domain.RenderOutput{}, fmt.Errorf("rendering slide %d: %w", i, err)
		}
		out.Slides = append(out.Slides, domain.RenderedSlide{
			Index:  i,
			Layout: layout,
			HTML:   html,
			CSS:    slideCSS(i, s, tokens),
		})
	}
	return out, nil
}

type slots struct {
	Headline    []template.HTML
	Subheadline []template.HTML
	Body        []template.HTML
	Bullets     []template.HTML
	Stat        []template.HTML
	CTA         []template.HTML
	Caption     []template.HTML
	Image       []template.HTML
	Logo        []template.HTML
	Decoration  []template.HTML
}

func (s *slots) add(role string, h template.HTML) {
	switch role {
	case domain.RoleHeadline:
		s.Headline = append(s.Headline, h)
	case domain.RoleSubheadline:
		s.Subheadline = append(s.Subheadline, h)
	case domain.RoleBody:
		s.Body = append(s.Body, h)
	case domain.RoleBullets:
		s.Bullets = append(s.Bullets, h)
	case domain.RoleStat:
		s.Stat = append(s.Stat, h)
	case domain.RoleCTA:
		s.CTA = append(s.CTA, h)
	case domain.RoleCaption:
		s.Caption = append(s.Caption, h)
	case domain.RoleImage:
		s.Image = append(s.Image, h)
	case domain.RoleLogo:
		s.Logo = append(s.Logo, h)
	default:
		s.Decoration = append(s.Decoration, h)
	}
}

type slideView struct {
	Index     int
	Total     int
	SwipeHint string
	Slots     slots
}

// elementView is the data passed to the "element" template.
type elementView struct {
	Kind    string
	Role    string
	ID      string
	Primary bool
	Text    string
	HTML    template.HTML
	Items   []string
	Src     template.URL
	Alt     string
}

func (e *Engine) renderSlide(i, total int, layout string, s domain.SlideVisual) (string, error) {
	tmpl := e.layouts[layout]
	view := slideView{Index: i, Total: total, SwipeHint: e.swipeHint}

	for _, el := range s.Elements {
		ev, err := e.elementView(i, layout, el)
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, "element", ev); err != nil {
			return "", fmt.Errorf("element %q: %w", el.ID, err)
		}
		view.Slots.add(ev.Role, template.HTML(buf.String()))
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layout, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Engine) elementView(i int, layout string, el domain.Element) (elementView, error) {
	role := el.Role
	if role == "" {
		role = roleForType(el.Type)
	}
	ev := elementView{
		Role:    role,
		ID:      el.ID,
		Primary: layout == domain.LayoutCover,
		Text:    strings.TrimSpace(el.Content),
	}

	switch {
	case el.Type == domain.ElementImage || el.Type == domain.ElementLogo:
		ev.Kind = "image"
		ev.Src = imageSource(el)
		ev.Alt = altText(el)
		if el.Type == domain.ElementLogo {
			ev.Alt = "Logo"
		}
	case el.Type == domain.ElementShape:
		ev.Kind = "shape"
	case role == domain.RoleBullets:
		ev.Kind = "list"
		ev.Items = bulletItems(el.Content)
	case role == domain.RoleBody:
		ev.Kind = "markdown"
		var buf bytes.Buffer
		if err := e.md.Convert([]byte(ev.Text), &buf); err != nil {
			return ev, fmt.Errorf("converting body of slide %d: %w", i, err)
		}
		ev.HTML = template.HTML(strings.TrimSpace(buf.String()))
	default:
		ev.Kind = "text"
	}
	return ev, nil
}

func roleForType(t string) string {
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

// imageSource returns a URI safe for a src attribute. Unresolved prompts
// and unsupported schemes become a placeholder sized to the element.
func imageSource(el domain.Element) template.URL {
	if uri, ok := safeImageURI(el.Content); ok {
		return template.URL(uri)
	}
	return template.URL(domain.PlaceholderImage(el.Style.Width, el.Style.Height))
}

func safeImageURI(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !domain.IsResolvedImage(s) {
		return "", false
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "blob:"):
	case strings.HasPrefix(lower, "data:image/"):
	default:
		return "", false
	}
	if strings.ContainsAny(s, "\"'<>\\\n\r") {
		return "", false
	}
	return s, true
}

func altText(el domain.Element) string {
	if domain.IsResolvedImage(el.Content) {
		return ""
	}
	return strings.TrimSpace(el.Content)
}

func bulletItems(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range []string{"- ", "* ", "• "} {
			line = strings.TrimPrefix(line, marker)
		}
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}
