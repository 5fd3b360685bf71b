// Package server exposes the pipeline over HTTP. Each run gets its own
// orchestrator; clients poll for progress and fetch the rendered preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
	"github.com/dotcommander/carousel/internal/render"
	"github.com/dotcommander/carousel/internal/wizard"
)

// StageFactory builds a fresh stage list for one run.
type StageFactory func() []core.Stage

type Server struct {
	stages       StageFactory
	renderer     core.Renderer
	brand        domain.BrandConfig
	recorder     *core.ArtifactRecorder
	stageTimeout time.Duration
	logger       *slog.Logger

	slots *semaphore.Weighted
	store *runStore
	wg    sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBrand sets the stored brand profile used when a submission carries
// none of its own.
func WithBrand(b domain.BrandConfig) Option {
	return func(s *Server) {
		s.brand = b
	}
}

func WithRecorder(rec *core.ArtifactRecorder) Option {
	return func(s *Server) {
		s.recorder = rec
	}
}

// WithMaxConcurrentRuns caps runs in flight. Extra submissions get 429.
func WithMaxConcurrentRuns(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

func WithStageTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.stageTimeout = d
	}
}

// WithRunTTL sets how long a finished run stays queryable. Zero or less
// keeps finished runs until shutdown.
func WithRunTTL(d time.Duration) Option {
	return func(s *Server) {
		s.store.ttl = d
	}
}

func New(stages StageFactory, renderer core.Renderer, opts ...Option) (*Server, error) {
	if stages == nil {
		return nil, errors.New("stage factory required")
	}
	if renderer == nil {
		renderer = render.New()
	}
	s := &Server{
		stages:   stages,
		renderer: renderer,
		logger:   slog.Default(),
		slots:    semaphore.NewWeighted(4),
		store:    newRunStore(DefaultRunTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/runs", s.handleRunCreate)
	mux.HandleFunc("GET /api/runs/{id}", s.handleRunStatus)
	mux.HandleFunc("POST /api/runs/{id}/abort", s.handleRunAbort)
	mux.HandleFunc("GET /api/runs/{id}/preview", s.handleRunPreview)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return logMiddleware(s.logger, mux)
}

// Shutdown aborts every active run and waits for their goroutines to
// return, or for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, r := range s.store.active() {
		r.orch.Abort()
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- Runs ---

// DefaultRunTTL is how long a finished run stays in memory.
const DefaultRunTTL = time.Hour

type runEntry struct {
	orch    *core.Orchestrator
	events  *core.EventLog
	brand   string
	created time.Time
	done    chan struct{}

	mu       sync.RWMutex
	result   *core.Result
	finished time.Time
}

func (r *runEntry) finish(res core.Result, at time.Time) {
	r.mu.Lock()
	r.result = &res
	r.finished = at
	r.mu.Unlock()
	close(r.done)
}

func (r *runEntry) finishedAt() (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.finished, r.result != nil
}

func (r *runEntry) outcome() (core.Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.result == nil {
		return core.Result{}, false
	}
	return *r.result, true
}

// runStore holds runs by id. Finished runs older than ttl are swept on
// every access; active runs are never evicted.
type runStore struct {
	mu   sync.Mutex
	runs map[string]*runEntry
	ttl  time.Duration
	now  func() time.Time
}

func newRunStore(ttl time.Duration) *runStore {
	return &runStore{runs: make(map[string]*runEntry), ttl: ttl, now: time.Now}
}

// sweep must be called with mu held.
func (s *runStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, r := range s.runs {
		if at, done := r.finishedAt(); done && at.Before(cutoff) {
			delete(s.runs, id)
		}
	}
}

func (s *runStore) set(id string, r *runEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.runs[id] = r
}

func (s *runStore) get(id string) (*runEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	r, ok := s.runs[id]
	return r, ok
}

func (s *runStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

func (s *runStore) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

func (s *runStore) active() []*runEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*runEntry
	for _, r := range s.runs {
		if _, done := r.outcome(); !done {
			out = append(out, r)
		}
	}
	return out
}

// start launches a run in the background. The caller must hold a slot.
func (s *Server) start(input domain.PipelineInput) *runEntry {
	id := uuid.New().String()
	events := core.NewEventLog()
	opts := []core.Option{
		core.WithRunID(id),
		core.WithReporter(events),
		core.WithLogger(s.logger),
		core.WithStageTimeout(s.stageTimeout),
	}
	if s.recorder != nil {
		opts = append(opts, core.WithRecorder(s.recorder))
	}

	entry := &runEntry{
		orch:    core.New(s.stages(), s.renderer, opts...),
		events:  events,
		brand:   input.Brand.Name,
		created: time.Now(),
		done:    make(chan struct{}),
	}
	s.store.set(id, entry)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res := entry.orch.Run(s.ctx, input)
		s.slots.Release(1)
		entry.finish(res, s.store.clock())
		s.logger.Info("run finished", "run_id", id, "status", res.Status,
			"duration_ms", res.Duration.Milliseconds(), "stored_runs", s.store.size())
	}()
	return entry
}

// --- Handlers ---

type runCreatedResp struct {
	RunID string `json:"runId"`
}

type runStatusResp struct {
	RunID       string       `json:"runId"`
	State       core.State   `json:"state"`
	Stage       core.StageID `json:"stage,omitempty"`
	Percent     int          `json:"percent"`
	Events      []core.Event `json:"events"`
	Result      *core.Result `json:"result,omitempty"`
	FailedStage core.StageID `json:"failedStage,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleRunCreate(w http.ResponseWriter, r *http.Request) {
	sub, err := wizard.DecodeSubmission(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	input, err := wizard.ToPipelineInput(sub, s.brand)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if s.ctx.Err() != nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("server shutting down"))
		return
	}
	if !s.slots.TryAcquire(1) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many runs in progress"))
		return
	}
	entry := s.start(input)
	w.Header().Set("Location", "/api/runs/"+entry.orch.RunID())
	writeJSON(w, http.StatusAccepted, runCreatedResp{RunID: entry.orch.RunID()})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*runEntry, bool) {
	entry, ok := s.store.get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("run not found"))
	}
	return entry, ok
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}
	snap := entry.orch.Snapshot()
	resp := runStatusResp{
		RunID:     snap.RunID,
		State:     snap.State,
		Stage:     snap.Stage,
		Percent:   entry.events.Percent(),
		Events:    entry.events.Events(),
		CreatedAt: entry.created,
	}
	if res, done := entry.outcome(); done {
		resp.State = res.Status
		resp.Result = &res
		resp.FailedStage = res.FailedStage
		resp.Error = res.ErrorMessage()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunAbort(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if res, done := entry.outcome(); done {
		writeError(w, http.StatusConflict, errors.New("run already "+string(res.Status)))
		return
	}
	entry.orch.Abort()
	writeJSON(w, http.StatusAccepted, entry.orch.Snapshot())
}

func (s *Server) handleRunPreview(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}
	res, done := entry.outcome()
	if !done || !res.OK() || res.Output == nil {
		writeError(w, http.StatusConflict, errors.New("run has no rendered output"))
		return
	}
	doc, err := render.Preview(*res.Output, entry.brand)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(doc)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResp{Error: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
