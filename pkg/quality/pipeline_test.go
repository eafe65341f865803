package quality

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agora-debate/agora/pkg/models"
)

type fakeAnalyzer struct {
	name  string
	err   error
	calls *int32
}

func (f *fakeAnalyzer) Name() string { return f.name }

func (f *fakeAnalyzer) Analyze(ctx context.Context, in Input) error {
	atomic.AddInt32(f.calls, 1)
	return f.err
}

func TestPipeline_RunsAllAnalyzersEvenIfOneFails(t *testing.T) {
	var okCalls, failCalls int32
	failing := &fakeAnalyzer{name: "failing", err: errors.New("boom"), calls: &failCalls}
	ok := &fakeAnalyzer{name: "ok", calls: &okCalls}

	p := NewPipeline(failing, ok)
	conv := &models.Conversation{ID: "conv-1"}
	msg := models.Message{ID: "msg-1", ConversationID: "conv-1"}

	p.Run(context.Background(), Input{Conversation: conv, NewMessage: msg})

	assert.Equal(t, int32(1), atomic.LoadInt32(&failCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&okCalls))
}

func TestPipeline_EmptyAnalyzerList(t *testing.T) {
	p := NewPipeline()
	conv := &models.Conversation{ID: "conv-1"}
	msg := models.Message{ID: "msg-1"}
	assert.NotPanics(t, func() {
		p.Run(context.Background(), Input{Conversation: conv, NewMessage: msg})
	})
}
