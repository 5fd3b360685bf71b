package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F2A541"))
	stageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4D7EA8"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F85149"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	barFull      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4D7EA8"))
	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4D7EA8")).
			Padding(0, 1)
)

const barWidth = 24

// termReporter prints pipeline progress to a terminal.
type termReporter struct {
	mu sync.Mutex
	w  io.Writer
}

var _ core.ProgressReporter = (*termReporter)(nil)

func newTermReporter(w io.Writer) *termReporter {
	return &termReporter{w: w}
}

func (r *termReporter) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, s)
}

func (r *termReporter) OnAgentStart(stage core.StageID) {
	r.println(dimStyle.Render("  → ") + stageStyle.Render(string(stage)))
}

func (r *termReporter) OnAgentComplete(stage core.StageID, _ any, d time.Duration) {
	r.println(okStyle.Render("  ✓ ") + string(stage) + dimStyle.Render(fmt.Sprintf(" (%s)", d.Round(time.Millisecond))))
}

func (r *termReporter) OnAgentError(stage core.StageID, err error) {
	r.println(errStyle.Render("  ✗ "+string(stage)) + " " + err.Error())
}

func (r *termReporter) OnProgress(percent int, message string) {
	r.println(progressBar(percent) + " " + dimStyle.Render(message))
}

func (r *termReporter) note(msg string) {
	r.println(warnStyle.Render("  ! " + msg))
}

func progressBar(percent int) string {
	percent = max(0, min(100, percent))
	filled := percent * barWidth / 100
	return barFull.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", barWidth-filled)) +
		fmt.Sprintf(" %3d%%", percent)
}

// summary renders the closing box for a finished run.
func summary(res core.Result, written []string) string {
	var b strings.Builder
	switch res.Status {
	case core.StateComplete:
		b.WriteString(titleStyle.Render("Carousel ready"))
	case core.StateAborted:
		b.WriteString(warnStyle.Render("Run aborted"))
	default:
		b.WriteString(errStyle.Render("Run failed"))
	}
	fmt.Fprintf(&b, "\nrun      %s\nduration %s", res.RunID, res.Duration.Round(time.Millisecond))

	if res.FailedStage != "" {
		fmt.Fprintf(&b, "\nstage    %s", res.FailedStage)
	}
	if res.Err != nil {
		fmt.Fprintf(&b, "\nerror    %s", res.Err)
	}
	if res.Output != nil {
		fmt.Fprintf(&b, "\nslides   %d", len(res.Output.Slides))
	}
	if q := res.Quality; q != nil {
		b.WriteString("\n" + qualityLine(*q))
		for _, c := range q.Checks {
			if c.Passed {
				continue
			}
			style := warnStyle
			if c.Severity == domain.SeverityError {
				style = errStyle
			}
			b.WriteString("\n  " + style.Render(c.Severity) + " " + c.Name + dimStyle.Render(": "+c.Message))
		}
	}
	for _, p := range written {
		b.WriteString("\n" + dimStyle.Render("wrote ") + p)
	}
	return summaryStyle.Render(b.String())
}

func qualityLine(q domain.QualityReport) string {
	verdict := okStyle.Render("passed")
	if !q.Passed {
		verdict = errStyle.Render("needs review")
	}
	return fmt.Sprintf("quality  %d/100 %s", q.Score, verdict)
}
