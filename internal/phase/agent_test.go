package phase

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
)

type echoInput struct {
	Topic string
}

type echoOutput struct {
	Title string `json:"title"`
}

var echoPrompt = MustParsePrompt("echo", `Topic: {{.Topic}}`)

func newEchoAgent(client agent.ModelClient, opts ...AgentOption) *Agent[echoInput, echoOutput] {
	base := NewBasePhase(core.StageStrategist, Sampling{Temperature: 0.4, MaxTokens: 500})
	return NewAgent(base, client, "You are a test agent.",
		func(in echoInput) (string, error) { return ExecutePrompt(echoPrompt, in) },
		func(_ echoInput, raw string) (echoOutput, error) {
			var out echoOutput
			if err := json.Unmarshal([]byte(raw), &out); err != nil {
				return out, base.SchemaError("title", "decode: %v", err)
			}
			if out.Title == "" {
				return out, base.SchemaError("title", "required")
			}
			return out, nil
		},
		opts...)
}

func TestAgentExecute(t *testing.T) {
	mock := agent.NewMockClient()
	mock.SetResponse(string(core.StageStrategist), "```json\n{\"title\":\"Hello\"}\n```")

	a := newEchoAgent(mock)
	out, err := a.Execute(context.Background(), echoInput{Topic: "launch"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", out.Title)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "You are a test agent.", calls[0].System)
	assert.Equal(t, "Topic: launch", calls[0].User)
	assert.Equal(t, 0.4, calls[0].Temperature)
	assert.Equal(t, 500, calls[0].MaxTokens)
}

func TestAgentPropagatesErrors(t *testing.T) {
	t.Run("client error", func(t *testing.T) {
		mock := agent.NewMockClient()
		boom := errors.New("connection refused")
		mock.SetError(string(core.StageStrategist), boom)

		_, err := newEchoAgent(mock).Execute(context.Background(), echoInput{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("schema error", func(t *testing.T) {
		mock := agent.NewMockClient()
		mock.SetResponse(string(core.StageStrategist), `{"other":1}`)

		_, err := newEchoAgent(mock).Execute(context.Background(), echoInput{})
		require.Error(t, err)
		assert.True(t, core.IsContractError(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		mock := agent.NewMockClient()

		_, err := newEchoAgent(mock).Execute(ctx, echoInput{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, mock.Calls())
	})
}

func TestAgentSystemPromptOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, string(core.StageStrategist)+".txt")
	require.NoError(t, os.WriteFile(path, []byte("Overridden."), 0644))

	a := newEchoAgent(agent.NewMockClient(), WithPromptCache(agent.NewPromptCache(dir)))
	assert.Equal(t, "Overridden.", a.SystemPrompt())
}

func TestWithSamplingKeepsDefaults(t *testing.T) {
	base := NewBasePhase(core.StageCopywriter, Sampling{Temperature: 0.8, MaxTokens: 4000},
		WithSampling(Sampling{MaxTokens: 1000}))
	assert.Equal(t, Sampling{Temperature: 0.8, MaxTokens: 1000}, base.Sampling())
}
