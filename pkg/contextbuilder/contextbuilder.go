// Package contextbuilder implements the Context Builder (C2): it turns a
// conversation's stored transcript into a provider-ready, token-budgeted
// prompt for the next turn. It does no I/O of its own: the caller loads the
// transcript (the Orchestrator does so through pkg/store) and passes it in,
// and the package never touches live orchestrator state.
package contextbuilder

import (
	"fmt"
	"strings"

	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/tokenacct"
)

// DefaultInputTokenCap is the absolute input-token cap used when the
// caller doesn't override it with a model-dependent upper bound.
const DefaultInputTokenCap = 100_000

// PromptMessage is one (role, content) pair ready to hand to a Completion
// Provider.
type PromptMessage struct {
	Role    models.MessageRole
	Content string
}

// Params configures one Build call.
type Params struct {
	Conversation        *models.Conversation
	Participant         models.Participant
	RoundNumber         int
	InputTokenCap       int // 0 means DefaultInputTokenCap
	ReservedOutputTokens int
}

// Build assembles the ordered prompt for Participant's next turn: one system
// preamble, a newest-to-oldest walk of history bounded by both
// context_window_rounds and the token budget, and a final nudge naming
// whose turn it is.
//
// history must be ordered oldest-to-newest (MessageStore.ListByConversation's
// natural order) — Build walks it backwards internally.
func Build(history []models.Message, p Params) []PromptMessage {
	tokenCap := p.InputTokenCap
	if tokenCap <= 0 {
		tokenCap = DefaultInputTokenCap
	}
	budget := tokenCap - p.ReservedOutputTokens

	system := PromptMessage{Role: models.MessageRoleSystem, Content: buildSystemPreamble(p)}
	used := tokenacct.CountTokens(p.Participant.Model, system.Content)

	windowStart := p.RoundNumber - p.Conversation.ContextWindowRounds
	var windowed []models.Message
	for _, m := range history {
		if m.RoundNumber >= windowStart {
			windowed = append(windowed, m)
		}
	}

	// Walk newest-to-oldest, stopping greedily once the budget would be
	// exceeded. The most recent message is always included even if alone it
	// overruns the remaining budget.
	var included []PromptMessage
	for i := len(windowed) - 1; i >= 0; i-- {
		m := windowed[i]
		msg := toPromptMessage(m, p.Participant)
		tokens := tokenacct.CountTokens(p.Participant.Model, msg.Content)

		if len(included) > 0 && used+tokens > budget {
			break
		}
		included = append(included, msg)
		used += tokens
	}
	// included was built newest-to-oldest; restore chronological order.
	for i, j := 0, len(included)-1; i < j; i, j = i+1, j-1 {
		included[i], included[j] = included[j], included[i]
	}

	nudge := PromptMessage{
		Role: models.MessageRoleUser,
		Content: fmt.Sprintf("It is now %s's turn (round %d). Continue the debate.",
			p.Participant.Name, p.RoundNumber),
	}

	out := make([]PromptMessage, 0, len(included)+2)
	out = append(out, system)
	out = append(out, included...)
	out = append(out, nudge)
	return out
}

func buildSystemPreamble(p Params) string {
	var names []string
	for _, participant := range p.Conversation.Participants {
		names = append(names, participant.Name)
	}
	var sb strings.Builder
	sb.WriteString(p.Participant.SystemPrompt)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Debate topic: %s\nParticipants: %s\nRound: %d\n",
		p.Conversation.Topic, strings.Join(names, ", "), p.RoundNumber)
	return sb.String()
}

// toPromptMessage maps a stored Message to a prompt role, collapsing every
// other participant's turn to "user" with an inline attribution prefix so
// the transcript survives role collapse.
func toPromptMessage(m models.Message, current models.Participant) PromptMessage {
	if m.ParticipantIndex == current.Index {
		return PromptMessage{Role: models.MessageRoleAssistant, Content: m.Content}
	}
	return PromptMessage{
		Role:    models.MessageRoleUser,
		Content: fmt.Sprintf("%s: %s", m.ParticipantName, m.Content),
	}
}
