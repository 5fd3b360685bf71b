package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/dotcommander/carousel/internal/core"
)

// MockClient serves scripted responses keyed by stage. It backs the "mock"
// provider and the pipeline tests.
type MockClient struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	imageErr  error
	calls     []CompletionRequest
	images    []ImageRequest
}

// NewMockClient returns a client scripted with a complete, valid
// problem-solution-5 run.
func NewMockClient() *MockClient {
	return &MockClient{
		responses: map[string]string{
			string(core.StageStrategist): mockStrategy,
			string(core.StageArchitect):  mockStory,
			string(core.StageCopywriter): mockCopy,
			string(core.StageCompositor): mockVisual,
			string(core.StageQuality):    mockQuality,
		},
		errs: make(map[string]error),
	}
}

func (m *MockClient) Name() string {
	return "mock"
}

// SetResponse replaces the scripted response for stage.
func (m *MockClient) SetResponse(stage, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[stage] = response
}

// SetError makes every completion for stage fail with err.
func (m *MockClient) SetError(stage string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[stage] = err
}

// FailImages makes every image generation fail with err. Nil restores
// success.
func (m *MockClient) FailImages(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imageErr = err
}

// Calls returns the completion requests received so far.
func (m *MockClient) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompletionRequest(nil), m.calls...)
}

func (m *MockClient) ImageCalls() []ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ImageRequest(nil), m.images...)
}

func (m *MockClient) CompleteJSON(ctx context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if err := m.errs[req.Stage]; err != nil {
		return "", err
	}
	response, ok := m.responses[req.Stage]
	if !ok {
		return "", fmt.Errorf("mock: no scripted response for stage %q", req.Stage)
	}
	return response, nil
}

func (m *MockClient) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, req)

	if m.imageErr != nil {
		return "", m.imageErr
	}
	return fmt.Sprintf("https://images.mock.local/%d.png", len(m.images)), nil
}

const mockStrategy = `{
  "templateId": "problem-solution-5",
  "slideCount": 5,
  "narrativeAngle": "problem-solution",
  "emotionalArc": ["curiosity", "pain", "hope", "trust", "empowerment"],
  "toneConstraints": ["Confident, never smug", "Plain words over jargon"],
  "visualConstraints": ["Generous whitespace", "One focal element per slide"],
  "ctaConstraints": ["Single action", "Under 30 characters"],
  "reasoning": "The audience already feels the pain; naming it first earns the swipe."
}`

const mockStory = `{
  "slides": [
    {"index": 0, "type": "hook", "layout": "cover-hero", "purpose": "Stop the scroll", "emotionalBeat": "curiosity", "contentBrief": "Ask why planning still takes all week", "visualDirection": "Bold type over a soft photo", "transitionHint": "Tease the hidden cost"},
    {"index": 1, "type": "problem", "layout": "content-split", "purpose": "Name the pain", "emotionalBeat": "pain", "contentBrief": "Hours lost to status meetings", "visualDirection": "Muted palette"},
    {"index": 2, "type": "solution", "layout": "content-split", "purpose": "Reveal the fix", "emotionalBeat": "hope", "contentBrief": "Async plans that update themselves", "visualDirection": "Brighten the palette"},
    {"index": 3, "type": "proof", "layout": "content-split", "purpose": "Back it up", "emotionalBeat": "trust", "contentBrief": "Teams save six hours a week", "visualDirection": "Big stat"},
    {"index": 4, "type": "cta", "layout": "closing-cta", "purpose": "Invite action", "emotionalBeat": "empowerment", "contentBrief": "Start a free trial", "visualDirection": "Accent button"}
  ],
  "copywriterNotes": {
    "keyMessage": "Planning should not eat your week",
    "toneReminders": ["Short sentences"],
    "phrasesToUse": ["ship faster"],
    "phrasesToAvoid": ["synergy"]
  }
}`

const mockCopy = `{
  "slides": [
    {"index": 0, "headline": "Why does planning take all week?", "subheadline": "It doesn't have to.", "charCounts": {"headline": 32}},
    {"index": 1, "headline": "Meetings ate your roadmap", "body": "Six status calls a week and still nobody knows what ships next.", "charCounts": {}},
    {"index": 2, "headline": "Plans that update themselves", "body": "Connect your tracker once. Every plan stays current without a meeting.", "bullets": ["No status calls", "Live timelines"]},
    {"index": 3, "headline": "Teams ship faster", "body": "Customers report six hours back every week.", "stat": "6 hrs"},
    {"index": 4, "headline": "Take your week back", "body": "Try it free for 14 days.", "cta": "Start free trial"}
  ],
  "alternativeHeadlines": ["Your roadmap deserves better", "Stop planning, start shipping"],
  "alternativeCtas": ["Try it free", "Get started"],
  "microcopy": {"swipeHint": "Swipe →", "saveHint": "Save for later", "shareHint": "Share with your team"}
}`

const mockVisual = "```json\n" + `{
  "slides": [
    {"index": 0, "layout": "cover-hero", "canvas": {"width": 1080, "height": 1350},
     "background": {"type": "image", "image": "Soft morning light over a tidy desk with a planner", "overlay": "rgba(0,0,0,0.35)"},
     "elements": [
       {"id": "s0-headline", "role": "headline", "type": "text", "content": "Why does planning take all week?", "style": {"fontSize": 72, "fontWeight": 800, "color": "#FFFFFF"}},
       {"id": "s0-sub", "role": "subheadline", "type": "text", "content": "It doesn't have to.", "style": {"fontSize": 36}}
     ]},
    {"index": 1, "layout": "content-split", "canvas": {"width": 1080, "height": 1350},
     "background": {"type": "solid", "color": "#F4F6F8"},
     "elements": [
       {"id": "s1-headline", "role": "headline", "type": "text", "content": "Meetings ate your roadmap", "style": {"fontSize": 56}},
       {"id": "s1-body", "role": "body", "type": "text", "content": "Six status calls a week and still nobody knows what ships next.", "style": {"fontSize": 32}}
     ]},
    {"index": 2, "layout": "content-split", "canvas": {"width": 1080, "height": 1350},
     "background": {"type": "gradient", "gradient": "linear-gradient(160deg, #4D7EA8 0%, #1F3A5F 100%)"},
     "elements": [
       {"id": "s2-headline", "role": "headline", "type": "text", "content": "Plans that update themselves", "style": {"fontSize": 56, "color": "#FFFFFF"}},
       {"id": "s2-body", "role": "body", "type": "text", "content": "Connect your tracker once. Every plan stays current without a meeting.", "style": {"color": "#FFFFFF"}},
       {"id": "s2-bullets", "role": "bullets", "type": "text", "content": "No status calls\nLive timelines", "style": {"color": "#FFFFFF"}}
     ]},
    {"index": 3, "layout": "content-split", "canvas": {"width": 1080, "height": 1350},
     "background": {"type": "solid", "color": "#FFFFFF"},
     "elements": [
       {"id": "s3-stat", "role": "stat", "type": "text", "content": "6 hrs", "style": {"fontSize": 140, "fontWeight": 800}},
       {"id": "s3-headline", "role": "headline", "type": "text", "content": "Teams ship faster", "style": {}},
       {"id": "s3-body", "role": "body", "type": "text", "content": "Customers report six hours back every week.", "style": {}}
     ]},
    {"index": 4, "layout": "closing-cta", "canvas": {"width": 1080, "height": 1350},
     "background": {"type": "solid", "color": "#1F3A5F"},
     "elements": [
       {"id": "s4-image", "role": "image", "type": "image", "content": "Confident team celebrating a shipped release", "style": {"width": 880, "height": 520}},
       {"id": "s4-headline", "role": "headline", "type": "text", "content": "Take your week back", "style": {"color": "#FFFFFF"}},
       {"id": "s4-cta", "role": "cta", "type": "text", "content": "Start free trial", "style": {}}
     ]}
  ],
  "tokens": {"colors": {"accent": "#F2A541"}, "fonts": {"heading": "Inter"}}
}` + "\n```"

const mockQuality = `{
  "checks": [
    {"name": "brand-voice-alignment", "passed": true, "severity": "warning", "message": "Copy matches the confident, plain-spoken voice."},
    {"name": "narrative-flow", "passed": true, "severity": "info", "message": "Each slide hands off cleanly to the next."}
  ],
  "summary": "Ready to publish."
}`
