package carousel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
	"github.com/dotcommander/carousel/internal/render"
)

// TestPipelineEndToEnd drives the real stage chain and renderer through the
// orchestrator with a scripted model client.
func TestPipelineEndToEnd(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*agent.MockClient)
		abortAt     core.StageID
		wantStatus  core.State
		wantFailed  core.StageID
		wantStarted []core.StageID
	}{
		{
			name:        "clean run",
			wantStatus:  core.StateComplete,
			wantStarted: append(append([]core.StageID{}, core.AgentStages...), core.StageRender),
		},
		{
			name: "unknown template",
			setup: func(m *agent.MockClient) {
				m.SetResponse(string(core.StageStrategist),
					`{"templateId": "does-not-exist", "narrativeAngle": "problem-solution"}`)
			},
			wantStatus:  core.StateFailed,
			wantFailed:  core.StageStrategist,
			wantStarted: []core.StageID{core.StageStrategist},
		},
		{
			name:        "abort during story",
			abortAt:     core.StageArchitect,
			wantStatus:  core.StateAborted,
			wantStarted: []core.StageID{core.StageStrategist, core.StageArchitect},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := agent.NewMockClient()
			if tt.setup != nil {
				tt.setup(mock)
			}

			var (
				o       *core.Orchestrator
				started []core.StageID
			)
			reporter := core.ReporterFuncs{
				Start: func(id core.StageID) {
					started = append(started, id)
					if id == tt.abortAt {
						o.Abort()
					}
				},
			}
			o = core.New(NewStages(mock), render.New(), core.WithReporter(reporter))

			res := o.Run(context.Background(), testInput())
			assert.Equal(t, tt.wantStatus, res.Status, "err = %v", res.Err)
			assert.Equal(t, tt.wantFailed, res.FailedStage)
			assert.Equal(t, tt.wantStarted, started)

			switch tt.wantStatus {
			case core.StateComplete:
				require.NotNil(t, res.Artifacts)
				tmpl, ok := domain.LookupTemplate(res.Artifacts.Strategy.TemplateID)
				require.True(t, ok)
				require.NotNil(t, res.Output)
				assert.Len(t, res.Output.Slides, tmpl.SlideCount)
				assert.Len(t, res.Artifacts.Copy.Slides, tmpl.SlideCount)
				require.NotNil(t, res.Quality)
				assert.NotEmpty(t, res.Quality.Checks)
			case core.StateFailed:
				assert.True(t, core.IsContractError(res.Err), "err = %v", res.Err)
				assert.Nil(t, res.Output)
			case core.StateAborted:
				assert.ErrorIs(t, res.Err, core.ErrAborted)
				assert.Nil(t, res.Output)
			}
		})
	}
}
