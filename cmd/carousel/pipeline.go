package main

import (
	"context"
	"fmt"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	"github.com/dotcommander/carousel/internal/phase/carousel"
	"github.com/dotcommander/carousel/internal/render"
	"github.com/dotcommander/carousel/internal/storage"
)

// pipeline is everything a run needs besides its input. It is built once
// per process and shared by every run.
type pipeline struct {
	store    *storage.FileSystem
	client   agent.ModelClient
	stages   []core.Stage
	engine   *render.Engine
	recorder *core.ArtifactRecorder
}

func (c *cli) buildPipeline(ctx context.Context) (*pipeline, error) {
	store := storage.NewFileSystem(c.cfg.Paths.OutputDir)
	if wrote, err := render.EnsureBaseStylesheet(ctx, store); err != nil {
		c.logger.Warn("could not write base stylesheet", "error", err)
	} else if wrote {
		c.logger.Debug("base stylesheet written", "path", render.AnimationsPath)
	}

	client, err := agent.NewFromConfig(ctx, c.cfg, store, c.logger)
	if err != nil {
		return nil, err
	}

	opts, err := carousel.FromConfig(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("stage config: %w", err)
	}
	opts = append(opts, carousel.WithLogger(c.logger))
	if c.cfg.Paths.PromptDir != "" {
		opts = append(opts, carousel.WithPromptCache(agent.NewPromptCache(c.cfg.Paths.PromptDir)))
	}

	c.logger.Info("pipeline ready",
		"provider", c.cfg.AI.Provider,
		"output_dir", store.BaseDir(),
		"images", c.cfg.Images.Enabled)

	return &pipeline{
		store:    store,
		client:   client,
		stages:   carousel.NewStages(client, opts...),
		engine:   render.New(render.WithLogger(c.logger)),
		recorder: core.NewArtifactRecorder(store),
	}, nil
}

func (p *pipeline) orchestrator(c *cli, reporter core.ProgressReporter) *core.Orchestrator {
	return core.New(p.stages, p.engine,
		core.WithReporter(reporter),
		core.WithLogger(c.logger),
		core.WithRecorder(p.recorder),
		core.WithStageTimeout(c.cfg.Limits.StageTimeout))
}
