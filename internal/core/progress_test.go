package core_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/carousel/internal/core"
)

func TestMultiReporterFanOut(t *testing.T) {
	var a, b []string
	rec := func(dst *[]string) core.ReporterFuncs {
		return core.ReporterFuncs{
			Start:    func(s core.StageID) { *dst = append(*dst, "start:"+string(s)) },
			Error:    func(s core.StageID, _ error) { *dst = append(*dst, "error:"+string(s)) },
			Progress: func(p int, _ string) { *dst = append(*dst, "progress") },
		}
	}
	m := core.MultiReporter{rec(&a), core.NopReporter{}, rec(&b)}

	m.OnAgentStart(core.StageStrategist)
	m.OnAgentComplete(core.StageStrategist, nil, time.Second)
	m.OnProgress(15, "brand analyzed")
	m.OnAgentError(core.StageArchitect, errors.New("boom"))

	want := []string{"start:brand-strategist", "progress", "error:story-architect"}
	assert.Equal(t, want, a)
	assert.Equal(t, want, b)
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := core.LogReporter{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	r.OnAgentStart(core.StageCopywriter)
	r.OnAgentComplete(core.StageCopywriter, nil, 250*time.Millisecond)
	r.OnAgentError(core.StageCompositor, errors.New("bad json"))
	r.OnProgress(50, "copy written")

	out := buf.String()
	assert.Contains(t, out, "stage=copywriter")
	assert.Contains(t, out, "duration_ms=250")
	assert.Contains(t, out, `error="bad json"`)
	assert.Contains(t, out, "percent=50")

	assert.NotPanics(t, func() { core.LogReporter{}.OnAgentStart(core.StageRender) })
}

func TestEventLogRecordsInOrder(t *testing.T) {
	l := core.NewEventLog()
	l.OnAgentStart(core.StageStrategist)
	l.OnProgress(15, "brand analyzed")
	l.OnAgentComplete(core.StageStrategist, nil, 1500*time.Millisecond)
	l.OnAgentError(core.StageArchitect, errors.New("timeout"))

	events := l.Events()
	require.Len(t, events, 4)
	assert.Equal(t, core.EventStart, events[0].Kind)
	assert.Equal(t, core.EventProgress, events[1].Kind)
	assert.Equal(t, 15, events[1].Percent)
	assert.Equal(t, int64(1500), events[2].DurationMs)
	assert.Equal(t, "timeout", events[3].Message)
	assert.Equal(t, 15, l.Percent())
	for _, e := range events {
		assert.False(t, e.At.IsZero())
	}

	events[0].Kind = "mutated"
	assert.Equal(t, core.EventStart, l.Events()[0].Kind)
}

func TestDefaultScheduleSumsToHundred(t *testing.T) {
	sum := 0
	for _, v := range core.DefaultSchedule() {
		sum += v
	}
	assert.Equal(t, 100, sum)

	order := append(append([]core.StageID{}, core.AgentStages...), core.StageRender)
	start, end := core.DefaultSchedule().Span(order, core.StageStrategist)
	assert.Equal(t, 0, start)
	assert.Equal(t, 15, end)

	start, end = core.DefaultSchedule().Span(order, "unknown")
	assert.Equal(t, 100, start)
	assert.Equal(t, 100, end)

	start, end = core.Schedule{}.Span(order, core.StageRender)
	assert.Zero(t, start)
	assert.Zero(t, end)
}
