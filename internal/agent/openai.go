package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dotcommander/carousel/internal/core"
)

const (
	defaultOpenAIModel      = "gpt-4o"
	defaultOpenAIImageModel = "dall-e-3"
)

// OpenAIProvider talks to the OpenAI chat completions and images endpoints,
// or any server that speaks the same protocol via a base URL.
type OpenAIProvider struct {
	client     openai.Client
	model      string
	imageModel string
	logger     *slog.Logger
}

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	Timeout    time.Duration
}

func NewOpenAIProvider(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, core.ErrNoAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Retries are owned by Client.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	p := &OpenAIProvider{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
		logger:     logger.With("component", "openai_provider"),
	}
	if p.model == "" {
		p.model = defaultOpenAIModel
	}
	if p.imageModel == "" {
		p.imageModel = defaultOpenAIImageModel
	}
	return p, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) CompleteJSON(ctx context.Context, req CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	p.logger.Debug("sending chat completion",
		"stage", req.Stage,
		"model", p.model,
		"system_length", len(req.System),
		"user_length", len(req.User))

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", core.ErrEmptyResponse
	}

	p.logger.Debug("chat completion received",
		"stage", req.Stage,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	params := openai.ImageGenerateParams{
		Prompt: imagePrompt(req),
		Model:  openai.ImageModel(p.imageModel),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize(p.imageSize(req.AspectRatio)),
	}
	// gpt-image models always return base64 and reject the parameter.
	if strings.HasPrefix(p.imageModel, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormat("b64_json")
	}

	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Data) == 0 {
		return "", core.ErrEmptyResponse
	}

	img := resp.Data[0]
	switch {
	case img.B64JSON != "":
		return "data:image/png;base64," + img.B64JSON, nil
	case img.URL != "":
		return img.URL, nil
	}
	return "", core.ErrEmptyResponse
}

// imageSize maps an aspect ratio onto the sizes the image models accept.
func (p *OpenAIProvider) imageSize(ratio string) string {
	portrait := "1024x1536"
	landscape := "1536x1024"
	if strings.HasPrefix(p.imageModel, "dall-e") {
		portrait = "1024x1792"
		landscape = "1792x1024"
	}

	switch ratio {
	case "4:5", "3:4", "2:3", "9:16":
		return portrait
	case "16:9", "3:2", "4:3":
		return landscape
	}
	return "1024x1024"
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", core.ErrRateLimited, err)
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", core.ErrServerError, err)
		}
		return fmt.Errorf("openai API error (status %d): %w", apiErr.StatusCode, err)
	}

	return fmt.Errorf("%w: %v", core.ErrNetworkError, err)
}

// imagePrompt folds the requested style into the prompt text.
func imagePrompt(req ImageRequest) string {
	if req.Style == "" {
		return req.Prompt
	}
	return fmt.Sprintf("%s\n\nStyle: %s", req.Prompt, req.Style)
}
