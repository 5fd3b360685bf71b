package core

import (
	"log/slog"
	"sync"
	"time"
)

// ProgressReporter receives orchestrator callbacks, one start and one
// complete or error per stage, render included. Calls are made
// synchronously from the goroutine running the pipeline, in stage order.
type ProgressReporter interface {
	OnAgentStart(stage StageID)
	OnAgentComplete(stage StageID, output any, duration time.Duration)
	OnAgentError(stage StageID, err error)
	OnProgress(percent int, message string)
}

// NopReporter ignores every callback.
type NopReporter struct{}

func (NopReporter) OnAgentStart(StageID)                        {}
func (NopReporter) OnAgentComplete(StageID, any, time.Duration) {}
func (NopReporter) OnAgentError(StageID, error)                 {}
func (NopReporter) OnProgress(int, string)                      {}

// ReporterFuncs adapts plain functions to ProgressReporter. Nil fields are
// skipped.
type ReporterFuncs struct {
	Start    func(stage StageID)
	Complete func(stage StageID, output any, duration time.Duration)
	Error    func(stage StageID, err error)
	Progress func(percent int, message string)
}

func (f ReporterFuncs) OnAgentStart(stage StageID) {
	if f.Start != nil {
		f.Start(stage)
	}
}

func (f ReporterFuncs) OnAgentComplete(stage StageID, output any, d time.Duration) {
	if f.Complete != nil {
		f.Complete(stage, output, d)
	}
}

func (f ReporterFuncs) OnAgentError(stage StageID, err error) {
	if f.Error != nil {
		f.Error(stage, err)
	}
}

func (f ReporterFuncs) OnProgress(percent int, message string) {
	if f.Progress != nil {
		f.Progress(percent, message)
	}
}

// MultiReporter fans each callback out to every reporter in order.
type MultiReporter []ProgressReporter

func (m MultiReporter) OnAgentStart(stage StageID) {
	for _, r := range m {
		r.OnAgentStart(stage)
	}
}

func (m MultiReporter) OnAgentComplete(stage StageID, output any, d time.Duration) {
	for _, r := range m {
		r.OnAgentComplete(stage, output, d)
	}
}

func (m MultiReporter) OnAgentError(stage StageID, err error) {
	for _, r := range m {
		r.OnAgentError(stage, err)
	}
}

func (m MultiReporter) OnProgress(percent int, message string) {
	for _, r := range m {
		r.OnProgress(percent, message)
	}
}

// LogReporter writes callbacks to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

func (l LogReporter) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l LogReporter) OnAgentStart(stage StageID) {
	l.logger().Info("agent started", "stage", stage)
}

func (l LogReporter) OnAgentComplete(stage StageID, _ any, d time.Duration) {
	l.logger().Info("agent completed", "stage", stage, "duration_ms", d.Milliseconds())
}

func (l LogReporter) OnAgentError(stage StageID, err error) {
	l.logger().Error("agent failed", "stage", stage, "error", err)
}

func (l LogReporter) OnProgress(percent int, message string) {
	l.logger().Debug("progress", "percent", percent, "message", message)
}

// Event kinds recorded by EventLog.
const (
	EventStart    = "start"
	EventComplete = "complete"
	EventError    = "error"
	EventProgress = "progress"
)

// Event is one recorded callback.
type Event struct {
	Kind       string    `json:"kind"`
	Stage      StageID   `json:"stage,omitempty"`
	Percent    int       `json:"percent,omitempty"`
	Message    string    `json:"message,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
	At         time.Time `json:"at"`
}

// EventLog records callbacks so another goroutine can poll them.
type EventLog struct {
	mu      sync.RWMutex
	events  []Event
	percent int
	now     func() time.Time
}

func NewEventLog() *EventLog {
	return &EventLog{now: time.Now}
}

func (l *EventLog) add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.At = l.now()
	if e.Kind == EventProgress {
		l.percent = e.Percent
	}
	l.events = append(l.events, e)
}

func (l *EventLog) OnAgentStart(stage StageID) {
	l.add(Event{Kind: EventStart, Stage: stage})
}

func (l *EventLog) OnAgentComplete(stage StageID, _ any, d time.Duration) {
	l.add(Event{Kind: EventComplete, Stage: stage, DurationMs: d.Milliseconds()})
}

func (l *EventLog) OnAgentError(stage StageID, err error) {
	l.add(Event{Kind: EventError, Stage: stage, Message: err.Error()})
}

func (l *EventLog) OnProgress(percent int, message string) {
	l.add(Event{Kind: EventProgress, Percent: percent, Message: message})
}

// Events returns a copy of everything recorded so far.
func (l *EventLog) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Event(nil), l.events...)
}

// Percent returns the last reported progress percentage.
func (l *EventLog) Percent() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.percent
}

// Schedule assigns each stage a fixed share of the progress bar.
type Schedule map[StageID]int

// DefaultSchedule sums to 100.
func DefaultSchedule() Schedule {
	return Schedule{
		StageStrategist: 15,
		StageArchitect:  15,
		StageCopywriter: 20,
		StageCompositor: 15,
		StageImages:     15,
		StageQuality:    10,
		StageRender:     10,
	}
}

// Span returns the progress percentage at the start and end of stage when
// stages run in order.
func (s Schedule) Span(order []StageID, stage StageID) (start, end int) {
	total := 0
	for _, id := range order {
		total += s[id]
	}
	if total == 0 {
		return 0, 0
	}
	acc := 0
	for _, id := range order {
		if id == stage {
			return acc * 100 / total, (acc + s[id]) * 100 / total
		}
		acc += s[id]
	}
	return 100, 100
}
