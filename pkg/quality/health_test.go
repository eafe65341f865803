package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agora-debate/agora/pkg/models"
)

func TestCoherenceScore_EmptyHistory(t *testing.T) {
	assert.Equal(t, 100.0, coherenceScore(nil))
}

func TestCoherenceScore_PenalizesShortMessages(t *testing.T) {
	history := []models.Message{
		{ID: "1", Content: "ok", CreatedAt: time.Now()},
		{ID: "2", Content: "this is a reasonably long response with real content", CreatedAt: time.Now()},
	}
	score := coherenceScore(history)
	assert.Less(t, score, 100.0)
	assert.Greater(t, score, 0.0)
}

func TestContradictionScore_IgnoresResolvedAndOutOfWindow(t *testing.T) {
	recent := map[string]bool{"m1": true, "m2": true}
	contradictions := []models.Contradiction{
		{MessageAID: "m1", MessageBID: "m2", Severity: models.SeverityCritical, Resolved: false},
		{MessageAID: "old-a", MessageBID: "old-b", Severity: models.SeverityCritical, Resolved: false},
		{MessageAID: "m1", MessageBID: "m2", Severity: models.SeverityLow, Resolved: true},
	}
	score := contradictionScore(contradictions, recent)
	assert.Equal(t, 70.0, score) // only the first counts: 100 - 30
}

func TestLoopScore_PenalizesActiveLoopsByRepetition(t *testing.T) {
	loops := []models.ConversationLoop{
		{RepetitionCount: 2, InterventionStatus: models.InterventionDetected},
		{RepetitionCount: 5, InterventionStatus: models.InterventionBroken},
	}
	score := loopScore(loops)
	assert.Equal(t, 90.0, score) // only the first (unbroken) counts: 100 - (10 + 0*5)
}

func TestCitationScore_NeutralWhenEmpty(t *testing.T) {
	assert.Equal(t, float64(neutralCitationScore), citationScore(nil))
}

func TestCitationScore_RatioOfVerified(t *testing.T) {
	citations := []models.Citation{{Verified: true}, {Verified: false}}
	assert.Equal(t, 50.0, citationScore(citations))
}

func TestClamp100(t *testing.T) {
	assert.Equal(t, 0.0, clamp100(-5))
	assert.Equal(t, 100.0, clamp100(150))
	assert.Equal(t, 42.0, clamp100(42))
}
