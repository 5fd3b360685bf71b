package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI      AIConfig      `yaml:"ai" validate:"required"`
	Paths   PathsConfig   `yaml:"paths"`
	Limits  Limits        `yaml:"limits" validate:"required"`
	Stages  StagesConfig  `yaml:"stages"`
	Images  ImagesConfig  `yaml:"images"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type AIConfig struct {
	Provider   string        `yaml:"provider" validate:"required,oneof=openai gemini mock"`
	Model      string        `yaml:"model"`
	ImageModel string        `yaml:"image_model"`
	APIKey     string        `yaml:"api_key" validate:"required_unless=Provider mock"`
	BaseURL    string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout    time.Duration `yaml:"timeout" validate:"min=0,max=1h"`
	// CacheTTL enables the on-disk response cache when positive.
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"min=0"`
}

type PathsConfig struct {
	OutputDir string `yaml:"output_dir" validate:"required"`
	PromptDir string `yaml:"prompt_dir"`
}

// Sampling is the per-agent temperature and token ceiling.
type Sampling struct {
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"min=0,max=100000"`
}

type StagesConfig struct {
	Strategist Sampling `yaml:"brand_strategist"`
	Architect  Sampling `yaml:"story_architect"`
	Copywriter Sampling `yaml:"copywriter"`
	Compositor Sampling `yaml:"visual_compositor"`
	Quality    Sampling `yaml:"quality_validator"`
}

type ImagesConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Policy        string `yaml:"policy" validate:"omitempty,oneof=edges all none"`
	AspectRatio   string `yaml:"aspect_ratio"`
	Style         string `yaml:"style"`
	FallbackColor string `yaml:"fallback_color" validate:"omitempty,hexcolor"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
	// RunTTL is how long finished runs stay queryable. Zero keeps them.
	RunTTL time.Duration `yaml:"run_ttl" validate:"min=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Default returns a complete configuration that validates once an API key
// is supplied.
func Default() Config {
	return Config{
		AI: AIConfig{
			Provider: "openai",
			Timeout:  2 * time.Minute,
		},
		Paths: PathsConfig{
			OutputDir: defaultOutputDir(),
		},
		Limits: DefaultLimits(),
		Stages: DefaultStages(),
		Images: ImagesConfig{
			Enabled:       true,
			Policy:        "edges",
			AspectRatio:   "4:5",
			FallbackColor: "#1F3A5F",
		},
		Server: ServerConfig{
			Addr:   "127.0.0.1:8080",
			RunTTL: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultStages mirrors the sampling each agent was tuned with.
func DefaultStages() StagesConfig {
	return StagesConfig{
		Strategist: Sampling{Temperature: 0.7, MaxTokens: 2000},
		Architect:  Sampling{Temperature: 0.7, MaxTokens: 3000},
		Copywriter: Sampling{Temperature: 0.8, MaxTokens: 4000},
		Compositor: Sampling{Temperature: 0.5, MaxTokens: 4000},
		Quality:    Sampling{Temperature: 0.3, MaxTokens: 2000},
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = getConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func getConfigPath() string {
	// 1. Explicit config path via environment variable
	if path := os.Getenv("CAROUSEL_CONFIG"); path != "" {
		return path
	}

	// 2. XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "carousel", "config.yaml")
	}

	// 3. ~/.config/carousel/config.yaml
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "carousel", "config.yaml")
}

func defaultOutputDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "carousel")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "carousel")
}

// applyEnv fills the API key from the provider's conventional variable when
// the file leaves it blank or as a ${VAR} placeholder.
func (c *Config) applyEnv() {
	key := strings.TrimSpace(c.AI.APIKey)
	if strings.HasPrefix(key, "${") && strings.HasSuffix(key, "}") {
		key = os.Getenv(strings.TrimSuffix(strings.TrimPrefix(key, "${"), "}"))
	}
	if key == "" {
		switch c.AI.Provider {
		case "openai":
			key = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			key = os.Getenv("GEMINI_API_KEY")
			if key == "" {
				key = os.Getenv("GOOGLE_API_KEY")
			}
		}
	}
	c.AI.APIKey = key
}

// expandTilde expands a tilde (~) at the beginning of a path to the user's home directory
func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func (c *Config) validate() error {
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = defaultOutputDir()
	}
	c.Paths.OutputDir = expandTilde(c.Paths.OutputDir)
	c.Paths.PromptDir = expandTilde(c.Paths.PromptDir)

	if c.Limits.RateLimit.RequestsPerMinute == 0 {
		c.Limits.RateLimit = DefaultLimits().RateLimit
	}
	if c.Images.Policy == "" {
		c.Images.Policy = "edges"
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Validate re-runs defaulting and validation after programmatic changes
// such as CLI flag overrides.
func (c *Config) Validate() error {
	c.applyEnv()
	return c.validate()
}

// Save writes cfg to path with the API key replaced by an env placeholder.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	cfgToSave := *cfg
	switch cfg.AI.Provider {
	case "gemini":
		cfgToSave.AI.APIKey = "${GEMINI_API_KEY}"
	case "mock":
		cfgToSave.AI.APIKey = ""
	default:
		cfgToSave.AI.APIKey = "${OPENAI_API_KEY}"
	}

	data, err := yaml.Marshal(&cfgToSave)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
