package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/carousel/internal/config"
)

// cli holds state shared by every subcommand.
type cli struct {
	configPath string
	provider   string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{stderr: os.Stderr}

	root := &cobra.Command{
		Use:   "carousel",
		Short: "Generate branded social-media carousels with a chain of AI agents",
		Long: `carousel runs a six-stage agent pipeline (brand strategist, story architect,
copywriter, visual compositor, image generator, quality validator) over a
brand profile and a content brief, then renders every slide to HTML.

Configuration is read from $CAROUSEL_CONFIG or ~/.config/carousel/config.yaml.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file path")
	root.PersistentFlags().StringVar(&c.provider, "provider", "", "override ai.provider (openai, gemini, mock)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(c.generateCmd(), c.serveCmd())
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load(c.configPath)
	if err != nil && c.provider == "" {
		return err
	}
	if err != nil {
		// An override may be what makes the file valid, e.g. a mock
		// provider without an API key.
		def := config.Default()
		cfg = &def
	}
	if c.provider != "" {
		cfg.AI.Provider = c.provider
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.cfg = cfg
	c.logger = newLogger(cfg.Logging, c.verbose, c.stderr)
	slog.SetDefault(c.logger)
	return nil
}

func newLogger(cfg config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
