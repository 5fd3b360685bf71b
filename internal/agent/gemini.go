package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/dotcommander/carousel/internal/core"
)

const (
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultGeminiImageModel = "imagen-3.0-generate-002"
)

// GeminiProvider uses the Gemini API for both JSON completions and Imagen
// image generation.
type GeminiProvider struct {
	client     *genai.Client
	model      string
	imageModel string
	logger     *slog.Logger
}

type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, core.ErrNoAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	p := &GeminiProvider{
		client:     client,
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
		logger:     logger.With("component", "gemini_provider"),
	}
	if p.model == "" {
		p.model = defaultGeminiModel
	}
	if p.imageModel == "" {
		p.imageModel = defaultGeminiImageModel
	}
	return p, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) CompleteJSON(ctx context.Context, req CompletionRequest) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	p.logger.Debug("sending generate content",
		"stage", req.Stage,
		"model", p.model,
		"system_length", len(req.System),
		"user_length", len(req.User))

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.User), cfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", core.ErrEmptyResponse
	}
	return text, nil
}

func (p *GeminiProvider) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/png",
	}
	if ratio := geminiAspectRatio(req.AspectRatio); ratio != "" {
		cfg.AspectRatio = ratio
	}

	resp, err := p.client.Models.GenerateImages(ctx, p.imageModel, imagePrompt(req), cfg)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", core.ErrEmptyResponse
	}

	img := resp.GeneratedImages[0].Image
	if len(img.ImageBytes) == 0 {
		if img.GCSURI != "" {
			return img.GCSURI, nil
		}
		return "", core.ErrEmptyResponse
	}

	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.ImageBytes), nil
}

// geminiAspectRatio narrows a ratio to the set Imagen supports.
func geminiAspectRatio(ratio string) string {
	switch ratio {
	case "1:1", "3:4", "4:3", "9:16", "16:9":
		return ratio
	case "4:5", "2:3":
		return "3:4"
	}
	return ""
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", core.ErrRateLimited, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", core.ErrServerError, err)
		}
		return fmt.Errorf("gemini API error (code %d): %w", apiErr.Code, err)
	}

	return fmt.Errorf("%w: %v", core.ErrNetworkError, err)
}
