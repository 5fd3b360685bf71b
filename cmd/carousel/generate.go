package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/carousel/internal/core"
	"github.com/dotcommander/carousel/internal/render"
	"github.com/dotcommander/carousel/internal/storage"
	"github.com/dotcommander/carousel/internal/wizard"
)

type generateFlags struct {
	brand  string
	wizard string
	out    string
	naming string
	images string
}

func (c *cli) generateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the pipeline once and export the rendered carousel",
		Long: `Runs every agent against a brand profile and a wizard submission, renders
the slides and exports a self-contained preview plus the stage artifacts.

Press Ctrl+C once to stop after the current stage, twice to cancel outright.

Example:
  carousel generate --brand brand.yaml --wizard wizard.json --out ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.brand, "brand", "", "brand profile (YAML or JSON)")
	cmd.Flags().StringVar(&f.wizard, "wizard", "", "wizard submission (JSON)")
	cmd.Flags().StringVar(&f.out, "out", "", "output directory (overrides paths.output_dir)")
	cmd.Flags().StringVar(&f.naming, "naming", "descriptive", "export directory naming: uuid, timestamp or descriptive")
	cmd.Flags().StringVar(&f.images, "images", "", "override images.policy (edges, all, none)")
	_ = cmd.MarkFlagRequired("brand")
	_ = cmd.MarkFlagRequired("wizard")
	return cmd
}

func (c *cli) runGenerate(cmd *cobra.Command, f generateFlags) error {
	if f.out != "" {
		c.cfg.Paths.OutputDir = f.out
	}
	if f.images != "" {
		c.cfg.Images.Policy = f.images
		c.cfg.Images.Enabled = f.images != "none"
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	brand, err := wizard.LoadBrand(f.brand)
	if err != nil {
		return err
	}
	sub, err := wizard.LoadSubmission(f.wizard)
	if err != nil {
		return err
	}
	input, err := wizard.ToPipelineInput(sub, brand)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p, err := c.buildPipeline(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reporter := newTermReporter(out)
	orch := p.orchestrator(c, reporter)
	fmt.Fprintln(out, titleStyle.Render("carousel")+dimStyle.Render(" "+input.Brand.Name+" · run "+orch.RunID()))

	// First signal aborts at the next stage boundary, second cancels.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			orch.Abort()
			reporter.note("abort requested, finishing current stage (Ctrl+C again to cancel)")
		case <-ctx.Done():
			return
		}
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	res := orch.Run(ctx, input)
	if !res.OK() {
		fmt.Fprintln(out, summary(res, nil))
		return res.Err
	}

	written, err := export(ctx, p.store, res, input.Brand.Name, storage.ParseRunNaming(f.naming), c.cfg.AI.Provider)
	fmt.Fprintln(out, summary(res, written))
	return err
}

// export writes the preview and the run artifacts under exports/.
func export(ctx context.Context, store core.Storage, res core.Result, brand string, naming storage.RunNamingStrategy, provider string) ([]string, error) {
	doc, err := render.Preview(*res.Output, brand)
	if err != nil {
		return nil, fmt.Errorf("building preview: %w", err)
	}

	files := []storage.ExportFile{{Name: "carousel.html", Data: doc}}
	addJSON := func(name string, v any) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		files = append(files, storage.ExportFile{Name: name, Data: data})
		return nil
	}
	if err := addJSON("render.json", res.Output); err != nil {
		return nil, err
	}
	if res.Quality != nil {
		if err := addJSON("quality.json", res.Quality); err != nil {
			return nil, err
		}
	}
	if res.Artifacts != nil {
		if err := addJSON("artifacts.json", res.Artifacts); err != nil {
			return nil, err
		}
	}

	meta := storage.RunMetadata{
		RunID:     res.RunID,
		Brand:     brand,
		Slides:    len(res.Output.Slides),
		Provider:  provider,
		CreatedAt: time.Now().UTC(),
	}
	if res.Artifacts != nil {
		meta.TemplateID = res.Artifacts.Strategy.TemplateID
	}
	if res.Quality != nil {
		meta.Passed = res.Quality.Passed
		meta.Score = res.Quality.Score
	}

	dir := storage.ExportDir(res.RunID, brand, naming, meta.CreatedAt)
	return storage.Export(ctx, store, dir, meta, files...)
}
