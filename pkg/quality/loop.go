package quality

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/provider"
	"github.com/agora-debate/agora/pkg/store"
)

// defaultWindowSize is how many of the most recent messages the loop
// detector considers when looking for a repeating pattern.
const defaultWindowSize = 20

// defaultMinPatternLength is the shortest participant-sequence pattern
// considered a loop (a pattern of length 1 would just be one participant
// speaking repeatedly, which round-robin turn order already prevents).
const defaultMinPatternLength = 2

// defaultMinRepetitions is how many consecutive repeats of a pattern must
// appear in the window before it is reported at all.
const defaultMinRepetitions = 2

// interventionRepetitionThreshold is the repetition_count at which the
// analyzer synthesizes a suggested intervention. The window/pattern
// parameters below are deployment-time tuning knobs, not per-conversation
// settings, so they live on this struct rather than in the database.
const interventionRepetitionThreshold = 3

var interventionSchema = []byte(`{
	"type": "object",
	"properties": {
		"suggestion": {"type": "string"}
	},
	"required": ["suggestion"]
}`)

type interventionSuggestion struct {
	Suggestion string `json:"suggestion"`
}

const interventionModel = "gpt-4o-mini"

// LoopAnalyzer detects repeating participant-sequence patterns over the
// most recent messages in a conversation (e.g. A, B, A, B arguing the same
// two points back and forth).
type LoopAnalyzer struct {
	Loops     *store.LoopStore
	Completer provider.Provider
	Bus       *events.Bus

	WindowSize       int
	MinPatternLength int
	MinRepetitions   int
}

func (a *LoopAnalyzer) Name() string { return "loop" }

func (a *LoopAnalyzer) windowSize() int {
	if a.WindowSize > 0 {
		return a.WindowSize
	}
	return defaultWindowSize
}

func (a *LoopAnalyzer) minPatternLength() int {
	if a.MinPatternLength > 0 {
		return a.MinPatternLength
	}
	return defaultMinPatternLength
}

func (a *LoopAnalyzer) minRepetitions() int {
	if a.MinRepetitions > 0 {
		return a.MinRepetitions
	}
	return defaultMinRepetitions
}

// Analyze slides over the last WindowSize messages' participant indices
// looking for the longest pattern that repeats at least MinRepetitions
// times back-to-back ending at the most recent message. The first pattern
// found to meet the threshold (scanning from the longest candidate length
// downward) is recorded; a longer repeating pattern is a more informative
// report than a short one it contains.
func (a *LoopAnalyzer) Analyze(ctx context.Context, in Input) error {
	history := in.History
	if len(history) > a.windowSize() {
		history = history[len(history)-a.windowSize():]
	}
	sequence := make([]int, len(history))
	for i, m := range history {
		sequence[i] = m.ParticipantIndex
	}

	maxLen := len(sequence) / a.minRepetitions()
	for patternLen := maxLen; patternLen >= a.minPatternLength(); patternLen-- {
		reps := countTrailingRepetitions(sequence, patternLen)
		if reps < a.minRepetitions() {
			continue
		}
		return a.recordLoop(ctx, in, history, patternLen, reps)
	}
	return nil
}

// countTrailingRepetitions returns how many times the last patternLen
// elements of sequence repeat back-to-back, counting backward from the end.
// The count includes the final occurrence itself; a pattern that occurs only
// once yields 0.
func countTrailingRepetitions(sequence []int, patternLen int) int {
	if patternLen <= 0 || len(sequence) < patternLen*2 {
		return 0
	}
	pattern := sequence[len(sequence)-patternLen:]
	reps := 1
	for start := len(sequence) - patternLen*2; start >= 0; start -= patternLen {
		block := sequence[start : start+patternLen]
		if !equalInts(block, pattern) {
			break
		}
		reps++
	}
	if reps < 2 {
		return 0
	}
	return reps
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (a *LoopAnalyzer) recordLoop(ctx context.Context, in Input, history []models.Message, patternLen, reps int) error {
	patternMessages := history[len(history)-patternLen*reps:]
	hash := patternHash(in.Conversation.ID, patternMessages[:patternLen])

	loop := &models.ConversationLoop{
		ID:                       uuid.NewString(),
		ConversationID:           in.Conversation.ID,
		PatternHash:              hash,
		Description:              describePattern(patternMessages[:patternLen]),
		LoopSize:                 patternLen,
		RepetitionCount:          reps,
		FirstOccurrenceMessageID: patternMessages[0].ID,
		LastOccurrenceMessageID:  patternMessages[len(patternMessages)-1].ID,
		InterventionStatus:       models.InterventionDetected,
	}

	if reps >= interventionRepetitionThreshold && a.Completer != nil {
		suggestion, err := a.synthesizeIntervention(ctx, patternMessages[:patternLen])
		if err != nil {
			return fmt.Errorf("synthesize intervention: %w", err)
		}
		loop.SuggestedIntervention = suggestion
	}

	if a.Loops != nil {
		if err := a.Loops.Upsert(ctx, loop); err != nil {
			return fmt.Errorf("upsert loop: %w", err)
		}
	}
	if a.Bus != nil {
		a.Bus.Publish(events.KindQualityLoop, events.QualityLoopPayload{
			LoopID:             loop.ID,
			PatternHash:        loop.PatternHash,
			LoopSize:           loop.LoopSize,
			RepetitionCount:    loop.RepetitionCount,
			InterventionStatus: string(loop.InterventionStatus),
		})
	}
	return nil
}

func (a *LoopAnalyzer) synthesizeIntervention(ctx context.Context, pattern []models.Message) (string, error) {
	var sb strings.Builder
	sb.WriteString("The debate is stuck in a repeating pattern. The participants keep restating:\n")
	for _, m := range pattern {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", m.ParticipantName, truncate(m.Content, 240)))
	}
	sb.WriteString("\nSuggest a brief moderator intervention (a question or reframing) to break the loop.")

	prompt := []provider.Message{
		{Role: "system", Content: "You are a debate moderator. Suggestions are proposed only; they are never auto-injected into the transcript."},
		{Role: "user", Content: sb.String()},
	}
	raw, err := a.Completer.CompleteStructured(ctx, interventionModel, prompt, interventionSchema)
	if err != nil {
		return "", err
	}
	var out interventionSuggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	return out.Suggestion, nil
}

func describePattern(pattern []models.Message) string {
	names := make([]string, len(pattern))
	for i, m := range pattern {
		names[i] = m.ParticipantName
	}
	return strings.Join(names, " -> ") + " repeating"
}

func patternHash(conversationID string, pattern []models.Message) string {
	h := sha256.New()
	h.Write([]byte(conversationID))
	for _, m := range pattern {
		h.Write([]byte(strconv.Itoa(m.ParticipantIndex)))
		h.Write([]byte("|"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
