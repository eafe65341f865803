package quality

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/agora-debate/agora/pkg/embedder"
	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/provider"
	"github.com/agora-debate/agora/pkg/store"
	"github.com/agora-debate/agora/pkg/vectorstore"
)

// defaultContradictionK is how many nearest neighbors the contradiction
// detector pulls for the opposition check.
const defaultContradictionK = 10

// defaultMinSimilarity discards candidate pairs below this cosine
// similarity before spending a completion call on them: a low-similarity
// pair is on a different topic entirely, not a contradiction.
const defaultMinSimilarity = 0.85

// oppositionSchema constrains the structured completion that judges whether
// two messages actually conflict.
var oppositionSchema = []byte(`{
	"type": "object",
	"properties": {
		"contradicts": {"type": "boolean"},
		"confidence": {"type": "number"},
		"explanation": {"type": "string"}
	},
	"required": ["contradicts", "confidence", "explanation"]
}`)

type oppositionVerdict struct {
	Contradicts bool    `json:"contradicts"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// oppositionModel is the completion model used for the opposition check.
// Kept cheap and fast: this runs once per candidate pair, per turn.
const oppositionModel = "gpt-4o-mini"

// ContradictionAnalyzer embeds each new message, searches for similar prior
// messages in the same conversation, and asks a judge completion whether
// each similar pair actually conflicts.
type ContradictionAnalyzer struct {
	Embedder       embedder.Embedder
	VectorStore    vectorstore.VectorStore
	EmbeddingStore *store.EmbeddingStore
	Contradictions *store.ContradictionStore
	Completer      provider.Provider
	Bus            *events.Bus

	K             int
	MinSimilarity float64
}

func (a *ContradictionAnalyzer) Name() string { return "contradiction" }

func (a *ContradictionAnalyzer) k() int {
	if a.K > 0 {
		return a.K
	}
	return defaultContradictionK
}

func (a *ContradictionAnalyzer) minSimilarity() float64 {
	if a.MinSimilarity > 0 {
		return a.MinSimilarity
	}
	return defaultMinSimilarity
}

// Analyze embeds in.NewMessage, persists and indexes the vector, then
// searches for similar earlier messages in the same conversation. Every
// candidate above minSimilarity is sent to the opposition-check completion;
// confirmed contradictions are classified by severity and recorded.
func (a *ContradictionAnalyzer) Analyze(ctx context.Context, in Input) error {
	msg := in.NewMessage
	vecs, err := a.Embedder.Embed(ctx, []string{msg.Content})
	if err != nil {
		return fmt.Errorf("embed message: %w", err)
	}
	vec := vecs[0]

	if err := a.EmbeddingStore.Upsert(ctx, &models.MessageEmbedding{
		MessageID:      msg.ID,
		Vector:         vec,
		EmbeddingModel: a.Embedder.Model(),
		EmbeddedText:   msg.Content,
	}); err != nil {
		return fmt.Errorf("persist embedding: %w", err)
	}
	if err := a.VectorStore.Upsert(ctx, msg.ID, vec, map[string]string{
		"conversation_id": msg.ConversationID,
	}); err != nil {
		return fmt.Errorf("index embedding: %w", err)
	}

	candidates, err := a.VectorStore.SimilaritySearch(ctx, vec, a.k()+1, map[string]string{
		"conversation_id": msg.ConversationID,
	})
	if err != nil {
		return fmt.Errorf("similarity search: %w", err)
	}

	byID := make(map[string]models.Message, len(in.History))
	for _, m := range in.History {
		byID[m.ID] = m
	}

	for _, c := range candidates {
		if c.ID == msg.ID || c.Score < a.minSimilarity() {
			continue
		}
		other, ok := byID[c.ID]
		if !ok {
			continue
		}
		if err := a.checkPair(ctx, msg, other, c.Score); err != nil {
			return fmt.Errorf("check pair %s/%s: %w", msg.ID, other.ID, err)
		}
	}
	return nil
}

func (a *ContradictionAnalyzer) checkPair(ctx context.Context, msg, other models.Message, similarity float64) error {
	earlier, later := other, msg
	if later.SequenceNumber < earlier.SequenceNumber {
		earlier, later = later, earlier
	}

	prompt := []provider.Message{
		{Role: "system", Content: "You judge whether two debate statements directly contradict each other. Respond only with the requested JSON."},
		{Role: "user", Content: fmt.Sprintf("Statement A (by %s): %s\n\nStatement B (by %s): %s\n\nDo these statements contradict each other?",
			earlier.ParticipantName, earlier.Content, later.ParticipantName, later.Content)},
	}
	raw, err := a.Completer.CompleteStructured(ctx, oppositionModel, prompt, oppositionSchema)
	if err != nil {
		return fmt.Errorf("opposition check: %w", err)
	}
	var verdict oppositionVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return fmt.Errorf("parse opposition verdict: %w", err)
	}
	if !verdict.Contradicts {
		return nil
	}

	c := &models.Contradiction{
		ID:              uuid.NewString(),
		ConversationID:  msg.ConversationID,
		MessageAID:      earlier.ID,
		MessageBID:      later.ID,
		Severity:        classifySeverity(similarity, verdict.Confidence),
		Confidence:      verdict.Confidence,
		SimilarityScore: similarity,
		TextASnapshot:   earlier.Content,
		TextBSnapshot:   later.Content,
		Explanation:     verdict.Explanation,
	}
	inserted, err := a.Contradictions.Create(ctx, c)
	if err != nil {
		return fmt.Errorf("create contradiction: %w", err)
	}
	if !inserted || a.Bus == nil {
		return nil
	}
	a.Bus.Publish(events.KindQualityContradiction, events.QualityContradictionPayload{
		ContradictionID: c.ID,
		MessageAID:      c.MessageAID,
		MessageBID:      c.MessageBID,
		Severity:        string(c.Severity),
		Confidence:      c.Confidence,
		SimilarityScore: c.SimilarityScore,
	})
	return nil
}

// classifySeverity maps (similarity, confidence) to a ContradictionSeverity.
// High confidence always dominates: a judge that is very sure of a conflict
// outranks a merely high text-similarity signal.
func classifySeverity(similarity, confidence float64) models.ContradictionSeverity {
	switch {
	case confidence >= 0.9:
		return models.SeverityCritical
	case confidence >= 0.75:
		return models.SeverityHigh
	case confidence >= 0.6 || similarity >= 0.93:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
