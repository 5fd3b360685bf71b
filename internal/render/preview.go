package render

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"

	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

// FontsURL builds a Google Fonts stylesheet link for families. It returns
// "" when there is nothing to load.
func FontsURL(families []string) string {
	if len(families) == 0 {
		return ""
	}
	parts := make([]string, 0, len(families)+1)
	for _, f := range families {
		parts = append(parts, "family="+url.QueryEscape(f)+":wght@400;700;800")
	}
	parts = append(parts, "display=swap")
	return "https://fonts.googleapis.com/css2?" + strings.Join(parts, "&")
}

type previewView struct {
	Lang     string
	Title    string
	FontsURL string
	CSS      template.CSS
	Slides   []template.HTML
}

// Preview assembles a standalone HTML document showing every slide in
// order. The animation stylesheet is inlined.
func Preview(out domain.RenderOutput, title string) ([]byte, error) {
	if strings.TrimSpace(title) == "" {
		title = "Carousel preview"
	}

	var css strings.Builder
	css.WriteString(AnimationsCSS())
	css.WriteString(previewCSS)
	css.WriteString(out.GlobalCSS)
	view := previewView{
		Lang:     "en",
		Title:    title,
		FontsURL: FontsURL(out.FontFamilies),
		Slides:   make([]template.HTML, 0, len(out.Slides)),
	}
	for _, s := range out.Slides {
		css.WriteString(s.CSS)
		// Slide markup and CSS are produced by Engine from escaped templates
		// and sanitized values.
		view.Slides = append(view.Slides, template.HTML(s.HTML))
	}
	view.CSS = template.CSS(css.String())

	var buf bytes.Buffer
	if err := preview.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const previewCSS = `body.carousel-preview{margin:0;background:#E9ECEF}
.carousel-track{display:flex;gap:48px;padding:48px;overflow-x:auto;scroll-snap-type:x mandatory}
.carousel-track .slide{flex:none;scroll-snap-align:center;box-shadow:0 12px 40px rgba(0,0,0,.18)}
`
