// Package quality implements the Quality Analysis Pipeline (C5):
// contradiction detection, repetition-loop detection, and composite health
// scoring, run once per completed turn against the conversation's tail.
package quality

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/agora-debate/agora/pkg/models"
)

// Input is one turn's worth of context handed to every Analyzer.
type Input struct {
	Conversation *models.Conversation
	NewMessage   models.Message
	// History is every message in the conversation so far, oldest first,
	// including NewMessage as its last element.
	History []models.Message
}

// Analyzer is one independent quality check run against a completed turn.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, in Input) error
}

// Pipeline fans a turn out to every registered Analyzer concurrently. One
// analyzer's failure is logged and never affects the others: each
// goroutine always reports nil to the errgroup regardless of its analyzer's
// outcome, so no analyzer's context cancellation or error can cut another
// one short.
type Pipeline struct {
	analyzers []Analyzer
}

// NewPipeline builds a Pipeline from the given analyzers, run in the order
// given (though they run concurrently, not sequentially).
func NewPipeline(analyzers ...Analyzer) *Pipeline {
	return &Pipeline{analyzers: analyzers}
}

// Run analyzes in against every registered Analyzer and waits for them all
// to finish. Run never returns an error; per-analyzer failures are logged.
func (p *Pipeline) Run(ctx context.Context, in Input) {
	var g errgroup.Group
	for _, a := range p.analyzers {
		g.Go(func() error {
			if err := a.Analyze(ctx, in); err != nil {
				slog.Error("quality analyzer failed",
					"analyzer", a.Name(),
					"conversation_id", in.Conversation.ID,
					"message_id", in.NewMessage.ID,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
