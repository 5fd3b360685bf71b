package carousel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/config"
	"github.com/dotcommander/carousel/internal/core"
	"github.com/dotcommander/carousel/internal/phase"
)

func TestNewStagesOrder(t *testing.T) {
	stages := NewStages(agent.NewMockClient())
	require.Len(t, stages, len(core.AgentStages))
	for i, s := range stages {
		assert.Equal(t, core.AgentStages[i], s.ID())
	}
}

func TestNewStagesSampling(t *testing.T) {
	mock := agent.NewMockClient()
	runStages(t, mock, 6, WithSampling(core.StageCopywriter, phase.Sampling{Temperature: 1.1}))

	byStage := map[string]agent.CompletionRequest{}
	for _, c := range mock.Calls() {
		byStage[c.Stage] = c
	}
	require.Len(t, byStage, 5)

	defaults := DefaultSampling()
	cw := byStage[string(core.StageCopywriter)]
	assert.InDelta(t, 1.1, cw.Temperature, 1e-9)
	assert.Equal(t, defaults[core.StageCopywriter].MaxTokens, cw.MaxTokens)

	q := byStage[string(core.StageQuality)]
	assert.InDelta(t, defaults[core.StageQuality].Temperature, q.Temperature, 1e-9)
}

func TestNewStagesPromptOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "copywriter.txt"), []byte("Write like a pirate."), 0o644))

	mock := agent.NewMockClient()
	runStages(t, mock, 3, WithPromptCache(agent.NewPromptCache(dir)))

	calls := mock.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "Write like a pirate.", calls[2].System)
	assert.Contains(t, calls[0].System, "brand strategist")
}

func TestFromConfig(t *testing.T) {
	def := config.Default()
	cfg := &def
	cfg.Images.Policy = "all"
	cfg.Images.Style = "watercolor"
	cfg.Stages.Strategist.Temperature = 0.2

	opts, err := FromConfig(cfg)
	require.NoError(t, err)

	mock := agent.NewMockClient()
	stages := NewStages(mock, opts...)
	gen, ok := stages[4].(*ImageGenerator)
	require.True(t, ok)
	assert.Equal(t, AllSlides{}, gen.Policy())

	run := core.NewRun("r1", testInput())
	_, err = stages[0].Execute(context.Background(), run)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, mock.Calls()[0].Temperature, 1e-9)

	cfg.Images.Enabled = false
	opts, err = FromConfig(cfg)
	require.NoError(t, err)
	gen = NewStages(mock, opts...)[4].(*ImageGenerator)
	assert.Equal(t, NoSlides{}, gen.Policy())

	cfg.Images.Policy = "most"
	_, err = FromConfig(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
