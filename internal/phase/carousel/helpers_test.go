package carousel

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/carousel/internal/agent"
	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

func testInput() domain.PipelineInput {
	return domain.PipelineInput{
		AssetType:      domain.AssetCarousel,
		ProductContext: "Planwise, an async planning tool for product teams",
		CampaignGoal:   "Drive free trial signups",
		ContentBrief:   "Show teams how much time status meetings cost them.",
		Brand: domain.BrandConfig{
			Name:     "Planwise",
			Industry: "B2B SaaS",
			Audience: "Engineering managers",
			Voice: domain.VoiceConfig{
				Attributes:     []string{"professional", "friendly"},
				ToneGuidelines: "Warm but direct.",
				PhrasesToUse:   []string{"ship faster"},
				PhrasesToAvoid: []string{"synergy", "leverage"},
			},
			CopyExamples: []string{"Plans that keep up with you."},
			Visual: domain.VisualIdentity{
				Colors:     domain.ColorTokens{Primary: "#123456", Background: "#FAFAFA"},
				Typography: domain.FontTokens{Body: "Source Sans 3"},
				ImageStyle: "bright editorial photography",
			},
		},
	}
}

// runStages executes the first n stages against client and returns the run.
func runStages(t *testing.T, client agent.ModelClient, n int, opts ...StageOption) *core.Run {
	t.Helper()
	run := core.NewRun("test-run", testInput())
	for _, s := range NewStages(client, opts...)[:n] {
		_, err := s.Execute(context.Background(), run)
		require.NoError(t, err, "stage %s", s.ID())
	}
	return run
}

func problemSolution(t *testing.T) domain.StrategyBlueprint {
	t.Helper()
	out, _, err := ParseStrategy(`{"templateId": "problem-solution-5", "narrativeAngle": "problem-solution"}`)
	require.NoError(t, err)
	return out
}

func hasNote(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}
