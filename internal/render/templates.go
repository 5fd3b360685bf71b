package render

import (
	"html/template"

	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

// Element markup. Every element carries data-el so per-slide CSS can
// position it.
const elementTemplates = `
{{define "slot"}}{{range .}}{{.}}{{end}}{{end}}

{{define "element"}}{{if eq .Kind "image"}}<img class="el el-{{.Role}}" data-el="{{.ID}}" src="{{.Src}}" alt="{{.Alt}}">
{{- else if eq .Kind "markdown"}}<div class="el el-{{.Role}}" data-el="{{.ID}}">{{.HTML}}</div>
{{- else if eq .Kind "list"}}<ul class="el el-{{.Role}}" data-el="{{.ID}}">{{range .Items}}<li>{{.}}</li>{{end}}</ul>
{{- else if eq .Kind "shape"}}<div class="el el-{{.Role}}" data-el="{{.ID}}" aria-hidden="true"></div>
{{- else if eq .Role "headline"}}{{if .Primary}}<h1 class="el el-headline" data-el="{{.ID}}">{{.Text}}</h1>{{else}}<h2 class="el el-headline" data-el="{{.ID}}">{{.Text}}</h2>{{end}}
{{- else if eq .Role "subheadline"}}<p class="el el-subheadline" data-el="{{.ID}}">{{.Text}}</p>
{{- else if eq .Role "stat"}}<p class="el el-stat" data-el="{{.ID}}"><strong>{{.Text}}</strong></p>
{{- else if eq .Role "cta"}}<p class="el el-cta" data-el="{{.ID}}"><span class="cta-button">{{.Text}}</span></p>
{{- else}}<p class="el el-{{.Role}}" data-el="{{.ID}}">{{.Text}}</p>
{{- end}}{{end}}
`

// Layout markup. Each layout has fixed slots filled by element role.
var layoutSources = map[string]string{
	domain.LayoutCover: `<section class="slide layout-cover-hero" id="slide-{{.Index}}" data-index="{{.Index}}">
<div class="slide-media">{{template "slot" .Slots.Image}}</div>
<div class="slide-content">
{{template "slot" .Slots.Headline}}
{{template "slot" .Slots.Subheadline}}
{{template "slot" .Slots.Body}}
{{template "slot" .Slots.Stat}}
</div>
<footer class="slide-footer">{{template "slot" .Slots.Logo}}{{template "slot" .Slots.Caption}}<span class="swipe-hint">{{.SwipeHint}}</span></footer>
{{template "slot" .Slots.Decoration}}
</section>`,

	domain.LayoutBody: `<section class="slide layout-content-split" id="slide-{{.Index}}" data-index="{{.Index}}">
<div class="slide-text">
{{template "slot" .Slots.Headline}}
{{template "slot" .Slots.Subheadline}}
{{template "slot" .Slots.Stat}}
{{template "slot" .Slots.Body}}
{{template "slot" .Slots.Bullets}}
</div>
<div class="slide-media">{{template "slot" .Slots.Image}}</div>
<footer class="slide-footer">{{template "slot" .Slots.Caption}}{{template "slot" .Slots.Logo}}<span class="slide-number">{{inc .Index}}/{{.Total}}</span></footer>
{{template "slot" .Slots.Decoration}}
</section>`,

	domain.LayoutClosing: `<section class="slide layout-closing-cta" id="slide-{{.Index}}" data-index="{{.Index}}">
<div class="slide-media">{{template "slot" .Slots.Image}}</div>
<div class="slide-content">
{{template "slot" .Slots.Headline}}
{{template "slot" .Slots.Subheadline}}
{{template "slot" .Slots.Body}}
{{template "slot" .Slots.Bullets}}
{{template "slot" .Slots.Stat}}
{{template "slot" .Slots.CTA}}
</div>
<footer class="slide-footer">{{template "slot" .Slots.Logo}}{{template "slot" .Slots.Caption}}</footer>
{{template "slot" .Slots.Decoration}}
</section>`,
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func parseLayouts() map[string]*template.Template {
	elements := template.Must(template.New("elements").Funcs(templateFuncs).Parse(elementTemplates))
	out := make(map[string]*template.Template, len(layoutSources))
	for name, src := range layoutSources {
		t := template.Must(elements.Clone())
		out[name] = template.Must(t.New(name).Parse(src))
	}
	return out
}

const previewTemplate = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{if .FontsURL}}<link rel="stylesheet" href="{{.FontsURL}}">
{{end}}<style>
{{.CSS}}
</style>
</head>
<body class="carousel-preview">
<main class="carousel-track">
{{range .Slides}}{{.}}
{{end}}</main>
</body>
</html>
`

var preview = template.Must(template.New("preview").Parse(previewTemplate))
