package carousel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
	"github.com/dotcommander/carousel/internal/phase"
)

// Deterministic check names.
const (
	CheckSlideCount     = "slide-count"
	CheckCharLimits     = "character-limits"
	CheckStructure      = "structural-completeness"
	CheckPhrasesToAvoid = "phrases-to-avoid"
	CheckCTAPresent     = "cta-present"
	CheckImagesResolved = "images-resolved"
)

type QualityInput struct {
	Input    domain.PipelineInput
	Strategy domain.StrategyBlueprint
	Copy     domain.CopyOutput
	Visual   domain.VisualSpecification
}

// QualityValidator combines rule checks with a model review. The report
// is advisory and never stops rendering.
type QualityValidator struct {
	*phase.Agent[QualityInput, domain.QualityReport]
}

func NewQualityValidator(client agent.ModelClient, base phase.BasePhase, opts ...phase.AgentOption) *QualityValidator {
	q := &QualityValidator{}
	q.Agent = phase.NewAgent(base, client, qualitySystem, BuildQualityPrompt,
		func(in QualityInput, raw string) (domain.QualityReport, error) {
			out, notes, err := ParseQuality(in, raw)
			logRepairs(base, notes)
			return out, err
		}, opts...)
	return q
}

func (q *QualityValidator) Execute(ctx context.Context, run *core.Run) (any, error) {
	if run.Strategy == nil || run.Copy == nil || run.Visual == nil {
		return nil, errors.New("quality validator requires strategy, copy and visual specification")
	}
	out, err := q.Agent.Execute(ctx, QualityInput{
		Input:    run.Input,
		Strategy: *run.Strategy,
		Copy:     *run.Copy,
		Visual:   *run.Visual,
	})
	if err != nil {
		return nil, err
	}
	q.Logger().Info("quality report",
		"passed", out.Passed,
		"score", out.Score,
		"checks", len(out.Checks))
	run.Quality = &out
	return out, nil
}

type visualSummary struct {
	Index      int
	Layout     string
	Background string
	Elements   int
}

func BuildQualityPrompt(in QualityInput) (string, error) {
	arc := make([]string, len(in.Strategy.EmotionalArc))
	for i, b := range in.Strategy.EmotionalArc {
		arc[i] = string(b)
	}
	visual := make([]visualSummary, len(in.Visual.Slides))
	for i, s := range in.Visual.Slides {
		visual[i] = visualSummary{
			Index:      s.Index,
			Layout:     s.Layout,
			Background: s.Background.Type,
			Elements:   len(s.Elements),
		}
	}
	return phase.ExecutePrompt(qualityPrompt, struct {
		In     domain.PipelineInput
		Arc    []string
		Copy   domain.CopyOutput
		Visual []visualSummary
	}{in.Input, arc, in.Copy, visual})
}

// ParseQuality merges the model's judgment checks with the deterministic
// checks. A missing checks array is treated as empty; malformed checks are
// dropped and a deterministic check always wins a name collision.
func ParseQuality(in QualityInput, raw string) (domain.QualityReport, []string, error) {
	var notes []string
	obj, err := phase.DecodeObject(raw)
	if err != nil {
		return domain.QualityReport{}, nil, core.NewSchemaError(core.StageQuality, "", err.Error())
	}
	f := newFields(obj, "", &notes)

	checks := DeterministicChecks(in)
	reserved := make(map[string]bool, len(checks))
	for _, c := range checks {
		reserved[c.Name] = true
	}

	items, ok := f.array("checks")
	if !ok {
		f.note("checks: missing or not an array, treated as empty")
	}
	for i, item := range items {
		cf, ok := f.element("checks", i, item)
		if !ok {
			f.note("checks[%d]: not an object, dropped", i)
			continue
		}
		c, ok := parseModelCheck(cf, i, len(in.Visual.Slides))
		if !ok {
			continue
		}
		if reserved[c.Name] {
			f.note("checks[%d]: %q is computed locally, dropped", i, c.Name)
			continue
		}
		checks = append(checks, c)
	}

	return Assess(checks, f.str("summary")), notes, nil
}

func parseModelCheck(cf fields, i, slides int) (domain.QualityCheck, bool) {
	name := strings.ToLower(cf.str("name"))
	if name == "" {
		cf.note("checks[%d]: no name, dropped", i)
		return domain.QualityCheck{}, false
	}

	c := domain.QualityCheck{
		Name:     name,
		Passed:   true,
		Severity: strings.ToLower(cf.str("severity")),
		Message:  cf.str("message"),
	}
	switch cf.str("passed") {
	case "false":
		c.Passed = false
	case "true":
	default:
		cf.note("checks[%d].passed: missing, assuming passed", i)
	}
	switch c.Severity {
	case domain.SeverityInfo, domain.SeverityWarning, domain.SeverityError:
	default:
		cf.note("checks[%d].severity: %q unknown, using %s", i, c.Severity, domain.SeverityWarning)
		c.Severity = domain.SeverityWarning
	}
	if idx, ok := cf.integer("slideIndex"); ok {
		if idx >= 0 && idx < slides {
			c.SlideIndex = &idx
		} else {
			cf.note("checks[%d].slideIndex: %d out of range, dropped", i, idx)
		}
	}
	return c, true
}

// Assess scores a set of checks. Passed means no failing error check.
func Assess(checks []domain.QualityCheck, summary string) domain.QualityReport {
	report := domain.QualityReport{Passed: true, Score: 100, Checks: checks}
	if report.Checks == nil {
		report.Checks = []domain.QualityCheck{}
	}

	var errs, warns int
	for _, c := range checks {
		if c.Passed {
			continue
		}
		switch c.Severity {
		case domain.SeverityError:
			report.Passed = false
			report.Score -= 25
			errs++
		case domain.SeverityWarning:
			report.Score -= 10
			warns++
		default:
			report.Score -= 2
		}
	}
	if report.Score < 0 {
		report.Score = 0
	}

	report.Summary = strings.TrimSpace(summary)
	if report.Summary == "" {
		switch {
		case errs > 0:
			report.Summary = fmt.Sprintf("%d blocking issue(s) and %d warning(s) found.", errs, warns)
		case warns > 0:
			report.Summary = fmt.Sprintf("No blocking issues; %d warning(s) to review.", warns)
		default:
			report.Summary = "All checks passed."
		}
	}
	return report
}

// DeterministicChecks runs the rule checks that need no model.
func DeterministicChecks(in QualityInput) []domain.QualityCheck {
	var out []domain.QualityCheck
	out = append(out, checkSlideCount(in))
	out = append(out, checkCharLimits(in)...)
	out = append(out, checkStructure(in)...)
	out = append(out, checkPhrases(in)...)
	out = append(out, checkCTA(in))
	out = append(out, checkImages(in)...)
	return out
}

func slideRef(i int) *int {
	return &i
}

func checkSlideCount(in QualityInput) domain.QualityCheck {
	want := in.Strategy.SlideCount
	c := domain.QualityCheck{Name: CheckSlideCount, Severity: domain.SeverityError, Passed: true}
	if len(in.Copy.Slides) != want || len(in.Visual.Slides) != want {
		c.Passed = false
		c.Message = fmt.Sprintf("template %s needs %d slides; copy has %d, visual has %d",
			in.Strategy.TemplateID, want, len(in.Copy.Slides), len(in.Visual.Slides))
		return c
	}
	c.Message = fmt.Sprintf("%d slides as planned", want)
	return c
}

func checkCharLimits(in QualityInput) []domain.QualityCheck {
	var out []domain.QualityCheck
	for i, s := range in.Copy.Slides {
		limits := limitsFor(in.Strategy.TemplateID, i)
		var problems []string
		for _, f := range s.TextFields() {
			limit := limits.For(f.Field)
			if n := phase.CharCount(f.Value); n > limit {
				problems = append(problems, fmt.Sprintf("%s %d/%d", f.Key, n, limit))
			}
		}
		if len(problems) > 0 {
			out = append(out, domain.QualityCheck{
				Name:       CheckCharLimits,
				Severity:   domain.SeverityError,
				Message:    "over limit: " + strings.Join(problems, ", "),
				SlideIndex: slideRef(i),
			})
		}
	}
	if len(out) == 0 {
		out = append(out, domain.QualityCheck{
			Name: CheckCharLimits, Severity: domain.SeverityError, Passed: true,
			Message: "every field within its limit",
		})
	}
	return out
}

func checkStructure(in QualityInput) []domain.QualityCheck {
	var out []domain.QualityCheck
	for i, s := range in.Visual.Slides {
		var missing []string
		if i < len(in.Copy.Slides) && strings.TrimSpace(in.Copy.Slides[i].Headline) == "" {
			missing = append(missing, "headline")
		}
		if len(s.Elements) == 0 {
			missing = append(missing, "elements")
		}
		if s.Canvas.Width <= 0 || s.Canvas.Height <= 0 {
			missing = append(missing, "canvas")
		}
		if len(missing) > 0 {
			out = append(out, domain.QualityCheck{
				Name:       CheckStructure,
				Severity:   domain.SeverityWarning,
				Message:    "missing " + strings.Join(missing, ", "),
				SlideIndex: slideRef(i),
			})
		}
	}
	if len(out) == 0 {
		out = append(out, domain.QualityCheck{
			Name: CheckStructure, Severity: domain.SeverityWarning, Passed: true,
			Message: "every slide has a headline and content",
		})
	}
	return out
}

func checkPhrases(in QualityInput) []domain.QualityCheck {
	avoid := in.Input.Brand.Voice.PhrasesToAvoid
	var out []domain.QualityCheck
	for i, s := range in.Copy.Slides {
		text := s.AllText()
		var hits []string
		for _, p := range avoid {
			if strings.TrimSpace(p) != "" && phase.ContainsFold(text, p) {
				hits = append(hits, fmt.Sprintf("%q", p))
			}
		}
		if len(hits) > 0 {
			out = append(out, domain.QualityCheck{
				Name:       CheckPhrasesToAvoid,
				Severity:   domain.SeverityWarning,
				Message:    "uses " + strings.Join(hits, ", "),
				SlideIndex: slideRef(i),
			})
		}
	}
	if len(out) == 0 {
		out = append(out, domain.QualityCheck{
			Name: CheckPhrasesToAvoid, Severity: domain.SeverityWarning, Passed: true,
			Message: "no avoided phrases used",
		})
	}
	return out
}

func checkCTA(in QualityInput) domain.QualityCheck {
	c := domain.QualityCheck{Name: CheckCTAPresent, Severity: domain.SeverityWarning}
	n := len(in.Copy.Slides)
	if n == 0 {
		c.Message = "no slides"
		return c
	}
	c.SlideIndex = slideRef(n - 1)
	if strings.TrimSpace(in.Copy.Slides[n-1].CTA) == "" {
		c.Message = "closing slide has no call to action"
		return c
	}
	c.Passed = true
	c.Message = fmt.Sprintf("closing call to action %q", in.Copy.Slides[n-1].CTA)
	return c
}

func checkImages(in QualityInput) []domain.QualityCheck {
	var out []domain.QualityCheck
	for i, s := range in.Visual.Slides {
		pending := 0
		if s.Background.NeedsImageGeneration() {
			pending++
		}
		for _, e := range s.Elements {
			if e.NeedsImageGeneration() {
				pending++
			}
		}
		if pending > 0 {
			out = append(out, domain.QualityCheck{
				Name:       CheckImagesResolved,
				Severity:   domain.SeverityInfo,
				Message:    fmt.Sprintf("%d image(s) still need to be supplied", pending),
				SlideIndex: slideRef(i),
			})
		}
	}
	if len(out) == 0 {
		out = append(out, domain.QualityCheck{
			Name: CheckImagesResolved, Severity: domain.SeverityInfo, Passed: true,
			Message: "all images resolved",
		})
	}
	return out
}
