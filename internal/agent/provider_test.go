package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/carousel/internal/core"
)

// apiStub answers every request with a fixed status and body and keeps the
// last request it saw.
type apiStub struct {
	mu     sync.Mutex
	status int
	body   string
	path   string
	req    map[string]any
}

func (s *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.path = r.URL.Path
	s.req = nil
	_ = json.Unmarshal(raw, &s.req)
	status, body := s.status, s.body
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (s *apiStub) lastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *apiStub) lastRequest() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req
}

func newStub(t *testing.T, status int, body string) (*apiStub, string) {
	t.Helper()
	stub := &apiStub{status: status, body: body}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, srv.URL
}

func closedServerURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

type errorWant int

const (
	wantOK errorWant = iota
	wantRetryable
	wantPermanent
)

func assertClassified(t *testing.T, err error, want errorWant, sentinel error) {
	t.Helper()
	switch want {
	case wantOK:
		require.NoError(t, err)
	case wantRetryable:
		require.Error(t, err)
		assert.True(t, core.IsRetryable(err), "expected retryable, got %v", err)
		if sentinel != nil {
			assert.ErrorIs(t, err, sentinel)
		}
	case wantPermanent:
		require.Error(t, err)
		assert.False(t, core.IsRetryable(err), "expected permanent, got %v", err)
		if sentinel != nil {
			assert.ErrorIs(t, err, sentinel)
		}
	}
}

const openAIChatOK = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o",
  "choices": [{"index": 0, "finish_reason": "stop",
    "message": {"role": "assistant", "content": "{\"templateId\":\"problem-solution-5\"}"}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

const openAIChatEmpty = `{
  "id": "chatcmpl-2",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4o",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  "}}]
}`

func openAIError(msg string) string {
	return `{"error": {"message": "` + msg + `", "type": "error", "param": null, "code": null}}`
}

func newTestOpenAI(t *testing.T, baseURL, imageModel string) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL + "/v1",
		ImageModel: imageModel,
	}, nil)
	require.NoError(t, err)
	return p
}

func TestOpenAICompleteJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     errorWant
		sentinel error
	}{
		{"success", http.StatusOK, openAIChatOK, wantOK, nil},
		{"rate limited", http.StatusTooManyRequests, openAIError("slow down"), wantRetryable, core.ErrRateLimited},
		{"server error", http.StatusInternalServerError, openAIError("boom"), wantRetryable, core.ErrServerError},
		{"bad gateway", http.StatusBadGateway, openAIError("upstream"), wantRetryable, core.ErrServerError},
		{"unauthorized", http.StatusUnauthorized, openAIError("bad key"), wantPermanent, nil},
		{"bad request", http.StatusBadRequest, openAIError("invalid"), wantPermanent, nil},
		{"blank content", http.StatusOK, openAIChatEmpty, wantPermanent, core.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub, url := newStub(t, tt.status, tt.body)
			p := newTestOpenAI(t, url, "")

			out, err := p.CompleteJSON(context.Background(), CompletionRequest{
				Stage:       string(core.StageStrategist),
				System:      "you are a strategist",
				User:        "brand: Planwise",
				Temperature: 0.7,
				MaxTokens:   2000,
			})
			assertClassified(t, err, tt.want, tt.sentinel)
			assert.Equal(t, "/v1/chat/completions", stub.lastPath())

			if tt.want != wantOK {
				return
			}
			assert.Equal(t, `{"templateId":"problem-solution-5"}`, out)

			req := stub.lastRequest()
			assert.Equal(t, defaultOpenAIModel, req["model"])
			assert.Equal(t, map[string]any{"type": "json_object"}, req["response_format"])
			assert.EqualValues(t, 2000, req["max_completion_tokens"])
			assert.InDelta(t, 0.7, req["temperature"], 1e-9)
			messages, ok := req["messages"].([]any)
			require.True(t, ok)
			require.Len(t, messages, 2)
			assert.Equal(t, "system", messages[0].(map[string]any)["role"])
			assert.Equal(t, "user", messages[1].(map[string]any)["role"])
		})
	}
}

func TestOpenAIGenerateImage(t *testing.T) {
	t.Run("base64 becomes a data URI", func(t *testing.T) {
		stub, url := newStub(t, http.StatusOK, `{"created": 1, "data": [{"b64_json": "aGVsbG8="}]}`)
		p := newTestOpenAI(t, url, "dall-e-3")

		uri, err := p.GenerateImage(context.Background(), ImageRequest{
			Prompt:      "a tidy desk",
			Style:       "flat illustration",
			AspectRatio: "4:5",
		})
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,aGVsbG8=", uri)
		assert.Equal(t, "/v1/images/generations", stub.lastPath())

		req := stub.lastRequest()
		assert.Equal(t, "1024x1792", req["size"])
		assert.Equal(t, "b64_json", req["response_format"])
		assert.True(t, strings.HasSuffix(req["prompt"].(string), "Style: flat illustration"))
	})

	t.Run("gpt-image omits response format", func(t *testing.T) {
		stub, url := newStub(t, http.StatusOK, `{"created": 1, "data": [{"url": "https://cdn.example.com/a.png"}]}`)
		p := newTestOpenAI(t, url, "gpt-image-1")

		uri, err := p.GenerateImage(context.Background(), ImageRequest{Prompt: "a desk"})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/a.png", uri)
		_, has := stub.lastRequest()["response_format"]
		assert.False(t, has)
	})

	t.Run("no data", func(t *testing.T) {
		_, url := newStub(t, http.StatusOK, `{"created": 1, "data": []}`)
		_, err := newTestOpenAI(t, url, "").GenerateImage(context.Background(), ImageRequest{Prompt: "a desk"})
		assert.ErrorIs(t, err, core.ErrEmptyResponse)
	})

	t.Run("rate limited", func(t *testing.T) {
		_, url := newStub(t, http.StatusTooManyRequests, openAIError("slow down"))
		_, err := newTestOpenAI(t, url, "").GenerateImage(context.Background(), ImageRequest{Prompt: "a desk"})
		assertClassified(t, err, wantRetryable, core.ErrRateLimited)
	})
}

func TestOpenAIUnreachable(t *testing.T) {
	p := newTestOpenAI(t, closedServerURL(), "")
	_, err := p.CompleteJSON(context.Background(), CompletionRequest{System: "s", User: "u"})
	assertClassified(t, err, wantRetryable, core.ErrNetworkError)
}

func TestOpenAICancelledIsNotRetryable(t *testing.T) {
	_, url := newStub(t, http.StatusOK, openAIChatOK)
	p := newTestOpenAI(t, url, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.CompleteJSON(ctx, CompletionRequest{System: "s", User: "u"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsRetryable(err))
}

const geminiContentOK = `{
  "candidates": [{"content": {"role": "model", "parts": [{"text": "{\"slides\":[]}"}]}, "finishReason": "STOP"}]
}`

func geminiError(code int, status string) string {
	b, _ := json.Marshal(map[string]any{
		"error": map[string]any{"code": code, "message": "failure", "status": status},
	})
	return string(b)
}

func newTestGemini(t *testing.T, baseURL string) *GeminiProvider {
	t.Helper()
	p, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		BaseURL: baseURL + "/",
	}, nil)
	require.NoError(t, err)
	return p
}

func TestGeminiCompleteJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     errorWant
		sentinel error
	}{
		{"success", http.StatusOK, geminiContentOK, wantOK, nil},
		{"rate limited", http.StatusTooManyRequests, geminiError(429, "RESOURCE_EXHAUSTED"), wantRetryable, core.ErrRateLimited},
		{"server error", http.StatusInternalServerError, geminiError(500, "INTERNAL"), wantRetryable, core.ErrServerError},
		{"unavailable", http.StatusServiceUnavailable, geminiError(503, "UNAVAILABLE"), wantRetryable, core.ErrServerError},
		{"bad request", http.StatusBadRequest, geminiError(400, "INVALID_ARGUMENT"), wantPermanent, nil},
		{"forbidden", http.StatusForbidden, geminiError(403, "PERMISSION_DENIED"), wantPermanent, nil},
		{"no candidates", http.StatusOK, `{"candidates": []}`, wantPermanent, core.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub, url := newStub(t, tt.status, tt.body)
			p := newTestGemini(t, url)

			out, err := p.CompleteJSON(context.Background(), CompletionRequest{
				Stage:       string(core.StageArchitect),
				System:      "you are an architect",
				User:        "blueprint",
				Temperature: 0.5,
				MaxTokens:   3000,
			})
			assertClassified(t, err, tt.want, tt.sentinel)
			assert.True(t, strings.HasSuffix(stub.lastPath(), "models/"+defaultGeminiModel+":generateContent"), stub.lastPath())

			if tt.want != wantOK {
				return
			}
			assert.Equal(t, `{"slides":[]}`, out)

			req := stub.lastRequest()
			assert.Contains(t, req, "systemInstruction")
			gen, ok := req["generationConfig"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "application/json", gen["responseMimeType"])
			assert.EqualValues(t, 3000, gen["maxOutputTokens"])
		})
	}
}

func TestGeminiGenerateImage(t *testing.T) {
	t.Run("bytes become a data URI", func(t *testing.T) {
		stub, url := newStub(t, http.StatusOK,
			`{"predictions": [{"bytesBase64Encoded": "aGVsbG8=", "mimeType": "image/png"}]}`)
		p := newTestGemini(t, url)

		uri, err := p.GenerateImage(context.Background(), ImageRequest{Prompt: "a desk", AspectRatio: "4:5"})
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,aGVsbG8=", uri)
		assert.True(t, strings.HasSuffix(stub.lastPath(), "models/"+defaultGeminiImageModel+":predict"), stub.lastPath())
	})

	t.Run("no images", func(t *testing.T) {
		_, url := newStub(t, http.StatusOK, `{"predictions": []}`)
		_, err := newTestGemini(t, url).GenerateImage(context.Background(), ImageRequest{Prompt: "a desk"})
		assert.ErrorIs(t, err, core.ErrEmptyResponse)
	})

	t.Run("server error", func(t *testing.T) {
		_, url := newStub(t, http.StatusInternalServerError, geminiError(500, "INTERNAL"))
		_, err := newTestGemini(t, url).GenerateImage(context.Background(), ImageRequest{Prompt: "a desk"})
		assertClassified(t, err, wantRetryable, core.ErrServerError)
	})
}

func TestGeminiUnreachable(t *testing.T) {
	p := newTestGemini(t, closedServerURL())
	_, err := p.CompleteJSON(context.Background(), CompletionRequest{System: "s", User: "u"})
	assertClassified(t, err, wantRetryable, core.ErrNetworkError)
}

func TestClientRetriesProviderRateLimit(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, openAIError("slow down"))
			return
		}
		_, _ = io.WriteString(w, openAIChatOK)
	}))
	defer srv.Close()

	c := fastClient(newTestOpenAI(t, srv.URL, ""), 2)
	out, err := c.CompleteJSON(context.Background(), CompletionRequest{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Contains(t, out, "problem-solution-5")
	assert.Equal(t, 2, calls)
}
