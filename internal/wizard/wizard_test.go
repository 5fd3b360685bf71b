package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

const brandYAML = `name: Planwise
industry: B2B SaaS
audience: operations leads at 50-500 person companies
voice:
  attributes: [professional, friendly, " professional "]
  tone_guidelines: Plain words, no hype.
  phrases_to_use: ["ship faster"]
  phrases_to_avoid: [synergy, leverage, ""]
copy_examples:
  - "Less status, more progress."
visual:
  logo_url: https://cdn.example.com/planwise.svg
  colors:
    primary: "#123456"
    background: "#FAFAFA"
  typography:
    heading: Inter
    body: Source Sans 3
  image_style: bright editorial photography
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func validSubmission() Submission {
	return Submission{
		AssetType:      "carousel",
		ProductContext: "  Planwise replaces weekly status meetings with async updates. ",
		CampaignGoal:   "Drive trial signups",
		ContentBrief:   "Focus on time saved.",
		Language:       "en-US",
		Uploads:        []Upload{{Name: "team.png", URL: "https://cdn.example.com/team.png"}},
	}
}

func TestLoadBrand(t *testing.T) {
	b, err := LoadBrand(writeFile(t, "brand.yaml", brandYAML))
	require.NoError(t, err)

	assert.Equal(t, "Planwise", b.Name)
	assert.Equal(t, "#123456", b.Visual.Colors.Primary)
	assert.Equal(t, "Source Sans 3", b.Visual.Typography.Body)
	assert.Equal(t, []string{"ship faster"}, b.Voice.PhrasesToUse)
	assert.Equal(t, "bright editorial photography", b.Visual.ImageStyle)
}

func TestLoadBrandJSON(t *testing.T) {
	b, err := LoadBrand(writeFile(t, "brand.json", `{"name":"Planwise","visual":{"colors":{"primary":"#123456"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "#123456", b.Visual.Colors.Primary)
}

func TestLoadBrandErrors(t *testing.T) {
	_, err := LoadBrand(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadBrand(writeFile(t, "brand.yaml", "name: [unterminated"))
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestToPipelineInput(t *testing.T) {
	brand, err := LoadBrand(writeFile(t, "brand.yaml", brandYAML))
	require.NoError(t, err)

	in, err := ToPipelineInput(validSubmission(), brand)
	require.NoError(t, err)

	assert.Equal(t, domain.AssetCarousel, in.AssetType)
	assert.Equal(t, "Planwise replaces weekly status meetings with async updates.", in.ProductContext)
	assert.Equal(t, "en-US", in.Language)
	assert.Equal(t, []string{"https://cdn.example.com/team.png"}, in.ReferenceImages)
	assert.Equal(t, []string{"professional", "friendly"}, in.Brand.Voice.Attributes)
	assert.Equal(t, []string{"synergy", "leverage"}, in.Brand.Voice.PhrasesToAvoid)
}

func TestToPipelineInputDefaultsAssetType(t *testing.T) {
	sub := validSubmission()
	sub.AssetType = ""
	in, err := ToPipelineInput(sub, domain.BrandConfig{Name: "Planwise"})
	require.NoError(t, err)
	assert.Equal(t, domain.AssetCarousel, in.AssetType)
}

func TestToPipelineInputInlineBrand(t *testing.T) {
	sub := validSubmission()
	sub.Brand = &domain.BrandConfig{Name: "Inline Co"}
	in, err := ToPipelineInput(sub, domain.BrandConfig{Name: "Stored"})
	require.NoError(t, err)
	assert.Equal(t, "Inline Co", in.Brand.Name)
}

func TestSubmissionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
		want   string
	}{
		{"missing product", func(s *Submission) { s.ProductContext = "" }, "productContext is required"},
		{"missing goal", func(s *Submission) { s.CampaignGoal = "" }, "campaignGoal is required"},
		{"bad asset type", func(s *Submission) { s.AssetType = "billboard" }, "assetType must be one of"},
		{"long brief", func(s *Submission) { s.ContentBrief = strings.Repeat("x", 5001) }, "contentBrief exceeds 5000"},
		{"bad upload", func(s *Submission) { s.Uploads[0].URL = "not a url" }, "uploads[0].url"},
		{"bad language", func(s *Submission) { s.Language = "!!" }, "language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			err := sub.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBrandValidation(t *testing.T) {
	tests := []struct {
		name  string
		brand domain.BrandConfig
		want  string
	}{
		{"missing name", domain.BrandConfig{Name: "  "}, "name is required"},
		{"bad color", domain.BrandConfig{Name: "X", Visual: domain.VisualIdentity{Colors: domain.ColorTokens{Accent: "orange"}}}, "visual.colors.accent must be a hex color"},
		{"bad logo", domain.BrandConfig{Name: "X", Visual: domain.VisualIdentity{LogoURL: "logo.png"}}, "visual.logoUrl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToPipelineInput(validSubmission(), tt.brand)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeSubmission(t *testing.T) {
	sub, err := DecodeSubmission(strings.NewReader(`{"productContext":"p","campaignGoal":"g","uploads":[{"url":"https://x.example/a.png"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "p", sub.ProductContext)
	assert.Len(t, sub.Uploads, 1)

	_, err = DecodeSubmission(strings.NewReader(`{"productContext":"p","surprise":true}`))
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	p := writeFile(t, "wizard.json", `{"productContext":"p","campaignGoal":"g"}`)
	sub, err = LoadSubmission(p)
	require.NoError(t, err)
	assert.Equal(t, "g", sub.CampaignGoal)
}
