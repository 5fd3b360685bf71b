package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dotcommander/carousel/internal/domain/carousel"
)

// State is the orchestrator lifecycle: idle → running(stage) → complete,
// or running(stage) → failed / aborted.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
	StateAborted  State = "aborted"
)

// Result is the discriminated outcome of one run. Run never returns an
// error across the orchestrator boundary; failures are carried here.
type Result struct {
	RunID       string                  `json:"runId"`
	Status      State                   `json:"status"`
	Output      *carousel.RenderOutput  `json:"output,omitempty"`
	Quality     *carousel.QualityReport `json:"quality,omitempty"`
	Artifacts   *Artifacts              `json:"artifacts,omitempty"`
	FailedStage StageID                 `json:"failedStage,omitempty"`
	Err         error                   `json:"-"`
	Duration    time.Duration           `json:"duration"`
}

// OK reports whether the run completed.
func (r Result) OK() bool {
	return r.Status == StateComplete
}

// ErrorMessage is the user-facing failure text.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Snapshot is a point-in-time view of a running orchestrator.
type Snapshot struct {
	RunID   string  `json:"runId"`
	State   State   `json:"state"`
	Stage   StageID `json:"stage,omitempty"`
	Aborted bool    `json:"aborted"`
}

// Orchestrator sequences the stages of exactly one pipeline run. Create a
// new one per run; instances share nothing mutable.
type Orchestrator struct {
	stages       []Stage
	renderer     Renderer
	reporter     ProgressReporter
	recorder     *ArtifactRecorder
	schedule     Schedule
	stageTimeout time.Duration
	logger       *slog.Logger
	runID        string

	started atomic.Bool
	cancel  CancelToken

	mu    sync.RWMutex
	state State
	stage StageID
}

type Option func(*Orchestrator)

func WithReporter(r ProgressReporter) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.reporter = r
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder persists each stage output after it completes.
func WithRecorder(rec *ArtifactRecorder) Option {
	return func(o *Orchestrator) {
		o.recorder = rec
	}
}

func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.runID = id
		}
	}
}

func WithSchedule(s Schedule) Option {
	return func(o *Orchestrator) {
		if len(s) > 0 {
			o.schedule = s
		}
	}
}

// WithStageTimeout bounds each stage's context. Zero disables the bound.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.stageTimeout = d
	}
}

func New(stages []Stage, renderer Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stages:   stages,
		renderer: renderer,
		reporter: NopReporter{},
		schedule: DefaultSchedule(),
		logger:   slog.Default(),
		runID:    uuid.New().String(),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "orchestrator", "run_id", o.runID)
	return o
}

func (o *Orchestrator) RunID() string {
	return o.runID
}

// Abort requests cooperative cancellation. The stage currently executing
// finishes; no further stage starts.
func (o *Orchestrator) Abort() {
	o.cancel.Abort()
	o.logger.Info("abort requested")
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Snapshot{
		RunID:   o.runID,
		State:   o.state,
		Stage:   o.stage,
		Aborted: o.cancel.Aborted(),
	}
}

func (o *Orchestrator) setState(state State, stage StageID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = state
	o.stage = stage
}

func (o *Orchestrator) order() []StageID {
	ids := make([]StageID, 0, len(o.stages)+1)
	for _, s := range o.stages {
		ids = append(ids, s.ID())
	}
	return append(ids, StageRender)
}

// Run executes every stage in order and then renders. It can be called at
// most once per orchestrator.
func (o *Orchestrator) Run(ctx context.Context, input carousel.PipelineInput) Result {
	start := time.Now()
	if !o.started.CompareAndSwap(false, true) {
		return Result{RunID: o.runID, Status: StateFailed, Err: ErrAlreadyStarted}
	}

	run := NewRun(o.runID, input)
	run.Cancel = &o.cancel
	order := o.order()

	o.logger.Info("starting pipeline",
		"asset_type", input.AssetType,
		"brand", input.Brand.Name,
		"stages", len(o.stages))
	o.setState(StateRunning, "")
	o.reporter.OnProgress(0, "Starting pipeline")

	for _, stage := range o.stages {
		if res, stop := o.boundary(ctx, run, start); stop {
			return res
		}

		id := stage.ID()
		from, to := o.schedule.Span(order, id)
		o.setState(StateRunning, id)
		o.reporter.OnAgentStart(id)
		o.reporter.OnProgress(from, fmt.Sprintf("Running %s", id))

		stageStart := time.Now()
		output, err := o.execute(ctx, stage, run)
		elapsed := time.Since(stageStart)
		if err != nil {
			return o.fail(run, id, err, start)
		}

		o.logger.Info("stage completed", "stage", id, "duration_ms", elapsed.Milliseconds())
		o.reporter.OnAgentComplete(id, output, elapsed)
		o.reporter.OnProgress(to, fmt.Sprintf("Completed %s", id))
		o.record(ctx, run.ID, id, output)
	}

	if res, stop := o.boundary(ctx, run, start); stop {
		return res
	}
	return o.render(ctx, run, order, start)
}

func (o *Orchestrator) execute(ctx context.Context, stage Stage, run *Run) (any, error) {
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}
	return stage.Execute(ctx, run)
}

// boundary is the only place cancellation is observed.
func (o *Orchestrator) boundary(ctx context.Context, run *Run, start time.Time) (Result, bool) {
	var cause error
	switch {
	case run.Cancel.Aborted():
		cause = ErrAborted
	case ctx.Err() != nil:
		cause = fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
	default:
		return Result{}, false
	}

	o.mu.RLock()
	last := o.stage
	o.mu.RUnlock()
	o.logger.Warn("pipeline aborted at stage boundary", "after_stage", last)
	o.setState(StateAborted, last)
	o.reporter.OnProgress(o.lastPercent(last), "Aborted")
	return Result{
		RunID:    run.ID,
		Status:   StateAborted,
		Err:      cause,
		Duration: time.Since(start),
	}, true
}

func (o *Orchestrator) lastPercent(last StageID) int {
	if last == "" {
		return 0
	}
	_, end := o.schedule.Span(o.order(), last)
	return end
}

func (o *Orchestrator) fail(run *Run, id StageID, err error, start time.Time) Result {
	stageErr := NewStageError(id, err)
	o.logger.Error("stage failed",
		"stage", id,
		"contract_error", IsContractError(err),
		"error", err)
	o.setState(StateFailed, id)
	o.reporter.OnAgentError(id, stageErr)
	return Result{
		RunID:       run.ID,
		Status:      StateFailed,
		FailedStage: id,
		Err:         stageErr,
		Duration:    time.Since(start),
	}
}

func (o *Orchestrator) render(ctx context.Context, run *Run, order []StageID, start time.Time) Result {
	from, _ := o.schedule.Span(order, StageRender)
	o.setState(StateRunning, StageRender)
	o.reporter.OnAgentStart(StageRender)
	o.reporter.OnProgress(from, "Rendering slides")
	renderStart := time.Now()

	if run.Visual == nil {
		return o.fail(run, StageRender, errors.New("no visual specification to render"), start)
	}
	if o.renderer == nil {
		return o.fail(run, StageRender, errors.New("no renderer configured"), start)
	}

	out, err := o.renderer.Render(*run.Visual)
	if err != nil {
		return o.fail(run, StageRender, err, start)
	}
	run.Render = &out
	o.record(ctx, run.ID, StageRender, out)
	o.reporter.OnAgentComplete(StageRender, out, time.Since(renderStart))

	o.setState(StateComplete, "")
	o.reporter.OnProgress(100, "Complete")
	o.logger.Info("pipeline completed",
		"slides", len(out.Slides),
		"quality_passed", run.Quality != nil && run.Quality.Passed,
		"duration_ms", time.Since(start).Milliseconds())

	return Result{
		RunID:     run.ID,
		Status:    StateComplete,
		Output:    run.Render,
		Quality:   run.Quality,
		Artifacts: run.artifacts(),
		Duration:  time.Since(start),
	}
}

func (o *Orchestrator) record(ctx context.Context, runID string, stage StageID, output any) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(ctx, runID, stage, output); err != nil {
		o.logger.Warn("failed to record stage output", "stage", stage, "error", err)
	}
}
