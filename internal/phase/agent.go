package phase

import (
	"context"
	"fmt"
	"time"

	"github.com/dotcommander/carousel/internal/agent"
)

// Agent composes the three parts every model-backed stage has: a system
// prompt, a deterministic user-prompt builder and a parse-and-repair
// function. I is the typed input, O the typed output. The parser sees the
// input too, since repairs are made against upstream contracts.
type Agent[I, O any] struct {
	BasePhase
	client  agent.ModelClient
	prompts *agent.PromptCache
	system  string
	build   func(I) (string, error)
	parse   func(in I, raw string) (O, error)
}

// AgentOption customizes an Agent.
type AgentOption func(*agentOptions)

type agentOptions struct {
	prompts *agent.PromptCache
}

// WithPromptCache lets a file override the built-in system prompt.
func WithPromptCache(pc *agent.PromptCache) AgentOption {
	return func(o *agentOptions) {
		o.prompts = pc
	}
}

func NewAgent[I, O any](
	base BasePhase,
	client agent.ModelClient,
	systemPrompt string,
	build func(I) (string, error),
	parse func(in I, raw string) (O, error),
	opts ...AgentOption,
) *Agent[I, O] {
	var o agentOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Agent[I, O]{
		BasePhase: base,
		client:    client,
		prompts:   o.prompts,
		system:    systemPrompt,
		build:     build,
		parse:     parse,
	}
}

// SystemPrompt returns the static instructions, honoring overrides.
func (a *Agent[I, O]) SystemPrompt() string {
	return a.prompts.Resolve(string(a.ID()), a.system)
}

func (a *Agent[I, O]) BuildUserPrompt(in I) (string, error) {
	return a.build(in)
}

// ParseOutput cleans raw model text and runs the stage's parse-and-repair
// function over it.
func (a *Agent[I, O]) ParseOutput(in I, raw string) (O, error) {
	return a.parse(in, CleanJSONResponse(raw))
}

// Execute builds the prompt, calls the model and parses the reply. Any
// failure is logged with the stage identity and returned unchanged.
func (a *Agent[I, O]) Execute(ctx context.Context, in I) (O, error) {
	var zero O
	start := time.Now()

	out, err := a.execute(ctx, in)
	if err != nil {
		a.LogError(err, time.Since(start))
		return zero, err
	}
	a.LogComplete(time.Since(start))
	return out, nil
}

func (a *Agent[I, O]) execute(ctx context.Context, in I) (O, error) {
	var zero O
	if err := a.ValidateContext(ctx); err != nil {
		return zero, err
	}

	user, err := a.BuildUserPrompt(in)
	if err != nil {
		return zero, fmt.Errorf("building prompt: %w", err)
	}
	a.LogStart(len(user))

	sampling := a.Sampling()
	raw, err := a.client.CompleteJSON(ctx, agent.CompletionRequest{
		Stage:       string(a.ID()),
		System:      a.SystemPrompt(),
		User:        user,
		Temperature: sampling.Temperature,
		MaxTokens:   sampling.MaxTokens,
	})
	if err != nil {
		return zero, err
	}
	a.Logger().Debug("model response received",
		"response_length", len(raw),
		"preview", preview(raw, 200))

	return a.ParseOutput(in, raw)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
