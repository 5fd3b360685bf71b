package render

import (
	"fmt"
	"regexp"
	"strings"

	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

var (
	// Values may contain colors, numbers, units and gradient functions but
	// nothing that can close a declaration or a block.
	cssValuePattern = regexp.MustCompile(`^[#a-zA-Z0-9(),.%\s/+-]+$`)
	fontPattern     = regexp.MustCompile(`^[a-zA-Z0-9 -]+$`)
)

func safeCSSValue(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > 200 || !cssValuePattern.MatchString(v) {
		return "", false
	}
	return v, true
}

func safeFont(name string) (string, bool) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || len(name) > 64 || !fontPattern.MatchString(name) {
		return "", false
	}
	return name, true
}

// cssString quotes s for use inside a CSS string token.
func cssString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\' || r == '<' || r == '>' || r == '&' || r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\%x `, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func fontStack(name, fallback string) string {
	if f, ok := safeFont(name); ok {
		return cssString(f) + ", " + fallback
	}
	return fallback
}

const baseCSS = `.slide{position:relative;box-sizing:border-box;overflow:hidden;display:flex;flex-direction:column;padding:96px 80px;font-family:var(--font-body);color:var(--color-text);background:var(--color-background)}
.slide .el{margin:0}
.slide .el-headline{font-family:var(--font-heading);font-weight:800;line-height:1.1;font-size:72px}
.slide .el-subheadline{font-size:36px;line-height:1.3;opacity:.85}
.slide .el-body{font-size:32px;line-height:1.45}
.slide .el-bullets{font-size:32px;line-height:1.4;padding-left:1.2em}
.slide .el-stat strong{font-family:var(--font-heading);font-size:120px;color:var(--color-accent)}
.slide .el-caption{font-size:24px;opacity:.7}
.slide .el-image{max-width:100%;object-fit:cover;border-radius:24px}
.slide .el-logo{height:64px;width:auto}
.slide .cta-button{display:inline-block;padding:24px 48px;border-radius:999px;background:var(--color-accent);color:var(--color-background);font-weight:700;font-size:36px}
.slide-footer{margin-top:auto;display:flex;align-items:center;justify-content:space-between;gap:24px;font-size:24px}
.layout-cover-hero{justify-content:flex-end}
.layout-cover-hero .slide-media{position:absolute;inset:0;z-index:0}
.layout-cover-hero .slide-media .el-image{width:100%;height:100%;border-radius:0}
.layout-cover-hero .slide-content,.layout-cover-hero .slide-footer{position:relative;z-index:1}
.layout-cover-hero .el-headline{animation:carousel-rise .6s ease-out both}
.layout-content-split{display:grid;grid-template-rows:1fr auto auto;gap:48px}
.layout-content-split .slide-text{display:flex;flex-direction:column;gap:24px;animation:carousel-fade .5s ease-out both}
.layout-closing-cta{justify-content:center;text-align:center}
.layout-closing-cta .slide-content{display:flex;flex-direction:column;align-items:center;gap:32px}
.layout-closing-cta .cta-button{animation:carousel-pulse 2s ease-in-out infinite}
`

func globalCSS(t domain.DesignTokens) string {
	var b strings.Builder
	b.WriteString(":root{")
	vars := []struct{ name, value, fallback string }{
		{"--color-primary", t.Colors.Primary, "#1F3A5F"},
		{"--color-secondary", t.Colors.Secondary, "#4D7EA8"},
		{"--color-accent", t.Colors.Accent, "#F2A541"},
		{"--color-background", t.Colors.Background, "#FFFFFF"},
		{"--color-text", t.Colors.Text, "#1A1A1A"},
	}
	for _, v := range vars {
		value, ok := safeCSSValue(v.value)
		if !ok {
			value = v.fallback
		}
		fmt.Fprintf(&b, "%s:%s;", v.name, value)
	}
	fmt.Fprintf(&b, "--font-heading:%s;", fontStack(t.Fonts.Heading, "sans-serif"))
	fmt.Fprintf(&b, "--font-body:%s;", fontStack(t.Fonts.Body, "sans-serif"))
	b.WriteString("}\n")
	b.WriteString(baseCSS)
	return b.String()
}

// slideCSS returns rules scoped to #slide-<i>.
func slideCSS(i int, s domain.SlideVisual, t domain.DesignTokens) string {
	scope := fmt.Sprintf("#slide-%d", i)
	canvas := s.Canvas
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = domain.DefaultCanvas()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s{width:%dpx;height:%dpx;background:%s}\n", scope, canvas.Width, canvas.Height, backgroundCSS(s.Background, t))

	for _, el := range s.Elements {
		decls := elementDecls(el)
		if len(decls) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s [data-el=%s]{%s}\n", scope, cssString(el.ID), strings.Join(decls, ";"))
	}
	return b.String()
}

func backgroundCSS(bg domain.Background, t domain.DesignTokens) string {
	fallback, ok := safeCSSValue(t.Colors.Background)
	if !ok {
		fallback = "#FFFFFF"
	}
	base := fallback
	if c, ok := safeCSSValue(bg.Color); ok {
		base = c
	}

	switch bg.Type {
	case domain.BackgroundGradient:
		if g, ok := safeCSSValue(bg.Gradient); ok && strings.Contains(g, "gradient(") {
			return g
		}
	case domain.BackgroundImage:
		if uri, ok := safeImageURI(bg.Image); ok {
			layer := "url(" + cssString(uri) + ") center/cover no-repeat"
			if o, ok := safeCSSValue(bg.Overlay); ok {
				layer = fmt.Sprintf("linear-gradient(%s, %s), %s", o, o, layer)
			}
			return layer + ", " + base
		}
		// Unresolved prompt: fall back to the brand's primary color.
		if c, ok := safeCSSValue(t.Colors.Primary); ok && bg.Color == "" {
			return c
		}
	}
	return base
}

func elementDecls(el domain.Element) []string {
	st := el.Style
	var decls []string
	if st.X != 0 || st.Y != 0 {
		decls = append(decls, "position:absolute", fmt.Sprintf("left:%dpx", st.X), fmt.Sprintf("top:%dpx", st.Y))
	}
	if st.Width > 0 {
		decls = append(decls, fmt.Sprintf("width:%dpx", st.Width))
	}
	if st.Height > 0 {
		decls = append(decls, fmt.Sprintf("height:%dpx", st.Height))
	}
	if st.FontFamily != "" {
		if f, ok := safeFont(st.FontFamily); ok {
			decls = append(decls, "font-family:"+cssString(f)+", var(--font-body)")
		}
	}
	if st.FontSize > 0 {
		decls = append(decls, fmt.Sprintf("font-size:%dpx", st.FontSize))
	}
	if st.FontWeight > 0 {
		decls = append(decls, fmt.Sprintf("font-weight:%d", st.FontWeight))
	}
	if c, ok := safeCSSValue(st.Color); ok {
		decls = append(decls, "color:"+c)
	}
	switch st.Align {
	case "left", "center", "right", "justify":
		decls = append(decls, "text-align:"+st.Align)
	}
	return decls
}

// fontFamilies lists every font the output references, heading first, in
// order of first appearance.
func fontFamilies(spec domain.VisualSpecification, t domain.DesignTokens) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(name string) {
		f, ok := safeFont(name)
		if !ok || seen[strings.ToLower(f)] {
			return
		}
		seen[strings.ToLower(f)] = true
		out = append(out, f)
	}
	add(t.Fonts.Heading)
	add(t.Fonts.Body)
	for _, s := range spec.Slides {
		for _, el := range s.Elements {
			add(el.Style.FontFamily)
		}
	}
	return out
}
