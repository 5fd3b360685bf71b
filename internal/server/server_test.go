package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
	"github.com/dotcommander/carousel/internal/render"
	"github.com/dotcommander/carousel/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStage struct {
	id core.StageID
	fn func(ctx context.Context, run *core.Run) (any, error)
}

func (f fakeStage) ID() core.StageID { return f.id }

func (f fakeStage) Execute(ctx context.Context, run *core.Run) (any, error) {
	return f.fn(ctx, run)
}

// pipeline returns a factory of six stages that produce a one-slide
// carousel. hooks replace individual stages.
func pipeline(hooks map[core.StageID]func(context.Context, *core.Run) (any, error)) StageFactory {
	defaults := map[core.StageID]func(context.Context, *core.Run) (any, error){
		core.StageStrategist: func(_ context.Context, run *core.Run) (any, error) {
			run.Strategy = &domain.StrategyBlueprint{TemplateID: "problem-solution-5", SlideCount: 1}
			return *run.Strategy, nil
		},
		core.StageArchitect: func(_ context.Context, run *core.Run) (any, error) {
			run.Story = &domain.StoryStructure{}
			return *run.Story, nil
		},
		core.StageCopywriter: func(_ context.Context, run *core.Run) (any, error) {
			run.Copy = &domain.CopyOutput{}
			return *run.Copy, nil
		},
		core.StageCompositor: func(_ context.Context, run *core.Run) (any, error) {
			run.Visual = &domain.VisualSpecification{
				Tokens: domain.DefaultTokens(),
				Slides: []domain.SlideVisual{{
					Layout: domain.LayoutCover,
					Canvas: domain.DefaultCanvas(),
					Elements: []domain.Element{
						{ID: "s0-headline", Role: domain.RoleHeadline, Type: domain.ElementText, Content: run.Input.Brand.Name + " ships"},
					},
				}},
			}
			return *run.Visual, nil
		},
		core.StageImages: func(_ context.Context, run *core.Run) (any, error) {
			return *run.Visual, nil
		},
		core.StageQuality: func(_ context.Context, run *core.Run) (any, error) {
			run.Quality = &domain.QualityReport{Passed: true, Score: 100}
			return *run.Quality, nil
		},
	}
	return func() []core.Stage {
		stages := make([]core.Stage, 0, len(core.AgentStages))
		for _, id := range core.AgentStages {
			fn := defaults[id]
			if h, ok := hooks[id]; ok {
				fn = h
			}
			stages = append(stages, fakeStage{id: id, fn: fn})
		}
		return stages
	}
}

const submission = `{"productContext":"Async status updates","campaignGoal":"Trial signups","brand":{"name":"Planwise"}}`

func newTestServer(t *testing.T, factory StageFactory, opts ...Option) *Server {
	t.Helper()
	s, err := New(factory, render.New(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, s.Shutdown(ctx))
	})
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func create(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/runs", submission)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp runCreatedResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RunID)
	assert.Equal(t, "/api/runs/"+resp.RunID, rec.Header().Get("Location"))
	return resp.RunID
}

func waitDone(t *testing.T, s *Server, id string) {
	t.Helper()
	entry, ok := s.store.get(id)
	require.True(t, ok)
	select {
	case <-entry.done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
}

func status(t *testing.T, h http.Handler, id string) runStatusResp {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/api/runs/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp runStatusResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRunLifecycle(t *testing.T) {
	s := newTestServer(t, pipeline(nil))
	h := s.Routes()

	id := create(t, h)
	waitDone(t, s, id)

	st := status(t, h, id)
	assert.Equal(t, core.StateComplete, st.State)
	assert.Equal(t, 100, st.Percent)
	require.NotNil(t, st.Result)
	require.NotNil(t, st.Result.Output)
	assert.Len(t, st.Result.Output.Slides, 1)

	var started []core.StageID
	for _, e := range st.Events {
		if e.Kind == core.EventStart {
			started = append(started, e.Stage)
		}
	}
	assert.Equal(t, append(append([]core.StageID{}, core.AgentStages...), core.StageRender), started)

	rec := do(t, h, http.MethodGet, "/api/runs/"+id+"/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>Planwise</title>")
	assert.Contains(t, rec.Body.String(), "Planwise ships")

	rec = do(t, h, http.MethodPost, "/api/runs/"+id+"/abort", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRunAbortBetweenStages(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	factory := pipeline(map[core.StageID]func(context.Context, *core.Run) (any, error){
		core.StageArchitect: func(_ context.Context, run *core.Run) (any, error) {
			close(started)
			<-release
			run.Story = &domain.StoryStructure{}
			return *run.Story, nil
		},
	})
	s := newTestServer(t, factory)
	h := s.Routes()

	id := create(t, h)
	<-started

	rec := do(t, h, http.MethodPost, "/api/runs/"+id+"/abort", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	close(release)
	waitDone(t, s, id)

	st := status(t, h, id)
	assert.Equal(t, core.StateAborted, st.State)
	for _, e := range st.Events {
		assert.NotEqual(t, core.StageCopywriter, e.Stage, "no stage starts after abort")
	}

	rec = do(t, h, http.MethodGet, "/api/runs/"+id+"/preview", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRunFailure(t *testing.T) {
	factory := pipeline(map[core.StageID]func(context.Context, *core.Run) (any, error){
		core.StageCopywriter: func(context.Context, *core.Run) (any, error) {
			return nil, core.NewSchemaError(core.StageCopywriter, "slides", "missing")
		},
	})
	s := newTestServer(t, factory)
	h := s.Routes()

	id := create(t, h)
	waitDone(t, s, id)

	st := status(t, h, id)
	assert.Equal(t, core.StateFailed, st.State)
	assert.Equal(t, core.StageCopywriter, st.FailedStage)
	assert.Contains(t, st.Error, "slides")
}

func TestConcurrencyCap(t *testing.T) {
	release := make(chan struct{})
	factory := pipeline(map[core.StageID]func(context.Context, *core.Run) (any, error){
		core.StageStrategist: func(_ context.Context, run *core.Run) (any, error) {
			<-release
			return nil, errors.New("stopped")
		},
	})
	s := newTestServer(t, factory, WithMaxConcurrentRuns(1))
	h := s.Routes()

	id := create(t, h)
	rec := do(t, h, http.MethodPost, "/api/runs", submission)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	close(release)
	waitDone(t, s, id)
	create(t, h)
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, pipeline(nil))
	h := s.Routes()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/api/runs", "{", http.StatusBadRequest},
		{"missing fields", http.MethodPost, "/api/runs", `{"brand":{"name":"X"}}`, http.StatusBadRequest},
		{"no brand", http.MethodPost, "/api/runs", `{"productContext":"p","campaignGoal":"g"}`, http.StatusBadRequest},
		{"unknown run", http.MethodGet, "/api/runs/nope", "", http.StatusNotFound},
		{"unknown abort", http.MethodPost, "/api/runs/nope/abort", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/runs/nope", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStoredBrandAndRecorder(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestServer(t, pipeline(nil),
		WithBrand(domain.BrandConfig{Name: "Stored Brand"}),
		WithRecorder(core.NewArtifactRecorder(mem)))
	h := s.Routes()

	rec := do(t, h, http.MethodPost, "/api/runs", `{"productContext":"p","campaignGoal":"g"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp runCreatedResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	waitDone(t, s, resp.RunID)

	assert.Contains(t, do(t, h, http.MethodGet, "/api/runs/"+resp.RunID+"/preview", "").Body.String(), "Stored Brand ships")
	assert.True(t, mem.Exists(context.Background(), "runs/"+resp.RunID+"/render.json"))
}

func TestShutdownRejectsNewRuns(t *testing.T) {
	s, err := New(pipeline(nil), nil)
	require.NoError(t, err)
	require.NoError(t, s.Shutdown(context.Background()))

	rec := do(t, s.Routes(), http.MethodPost, "/api/runs", submission)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// fakeClock is a settable time source for the run store.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestFinishedRunsExpire(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 7, 16, 12, 0, 0, 0, time.UTC)}
	s := newTestServer(t, pipeline(nil), WithRunTTL(time.Hour))
	s.store.now = clock.now
	h := s.Routes()

	first := create(t, h)
	waitDone(t, s, first)

	clock.advance(30 * time.Minute)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/runs/"+first, "").Code)

	clock.advance(31 * time.Minute)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/runs/"+first, "").Code)
	assert.Zero(t, s.store.size())
}

func TestRunStoreKeepsActiveRuns(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 7, 16, 12, 0, 0, 0, time.UTC)}
	store := newRunStore(time.Minute)
	store.now = clock.now

	active := &runEntry{done: make(chan struct{})}
	finished := &runEntry{done: make(chan struct{})}
	finished.finish(core.Result{Status: core.StateComplete}, clock.now())
	store.set("active", active)
	store.set("finished", finished)

	clock.advance(2 * time.Minute)
	_, ok := store.get("finished")
	assert.False(t, ok, "finished run past its TTL")
	_, ok = store.get("active")
	assert.True(t, ok, "active run evicted")

	store.ttl = 0
	finished = &runEntry{done: make(chan struct{})}
	finished.finish(core.Result{Status: core.StateFailed}, clock.now())
	store.set("kept", finished)
	clock.advance(24 * time.Hour)
	_, ok = store.get("kept")
	assert.True(t, ok, "zero TTL keeps finished runs")
}
