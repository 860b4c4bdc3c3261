package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	advcontext "github.com/tfpre/CourseNavigator-sub000/pkg/context"
	"github.com/tfpre/CourseNavigator-sub000/pkg/eventchannel"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func newTestOrchestrator() *Orchestrator {
	return New(nil, nil, nil, nil, nil, nil, nil)
}

func TestOrchestratorRegisterUnregisterTracksActiveExecs(t *testing.T) {
	o := newTestOrchestrator()

	ctx, cancel, err := o.register(context.Background(), "conv-1")
	require.NoError(t, err)
	defer cancel()

	o.mu.RLock()
	_, tracked := o.activeExecs["conv-1"]
	o.mu.RUnlock()
	assert.True(t, tracked)
	assert.NoError(t, ctx.Err())

	o.unregister("conv-1")

	o.mu.RLock()
	_, stillTracked := o.activeExecs["conv-1"]
	o.mu.RUnlock()
	assert.False(t, stillTracked)
}

func TestOrchestratorCancelConversationCancelsDerivedContext(t *testing.T) {
	o := newTestOrchestrator()

	execCtx, _, err := o.register(context.Background(), "conv-2")
	require.NoError(t, err)
	defer o.unregister("conv-2")

	cancelled := o.CancelConversation("conv-2")
	assert.True(t, cancelled)

	select {
	case <-execCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected derived context to be cancelled")
	}
}

func TestOrchestratorCancelConversationUnknownIDReturnsFalse(t *testing.T) {
	o := newTestOrchestrator()
	assert.False(t, o.CancelConversation("does-not-exist"))
}

func TestOrchestratorStopRejectsNewRegistrationsAndDrains(t *testing.T) {
	o := newTestOrchestrator()

	_, cancel, err := o.register(context.Background(), "conv-3")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer o.unregister("conv-3")
		defer cancel()
		time.Sleep(20 * time.Millisecond)
	}()

	o.Stop()
	wg.Wait()

	_, _, err = o.register(context.Background(), "conv-4")
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestEmitContextInfoSkipsErroredProviders(t *testing.T) {
	out := make(chan eventchannel.Chunk, 4)
	results := []advcontext.FetchResult{
		{Err: errors.New("provider timed out")},
		{},
	}

	err := emitContextInfo(context.Background(), out, results)
	require.NoError(t, err)
	assert.Len(t, out, 0)
}

func TestEmitFinalRespectsContextCancellation(t *testing.T) {
	out := make(chan eventchannel.Chunk)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := emitFinal(ctx, out, "conv-5", models.ChatAdvisorResponse{}, false, streamStats{}, 0)
	assert.Error(t, err)
}
