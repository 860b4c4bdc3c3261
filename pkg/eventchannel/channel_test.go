package eventchannel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEmitsConnectionThenContentThenDone(t *testing.T) {
	ch := New(nil)
	var frames []Frame
	produce := func(ctx context.Context, out chan<- Chunk) error {
		out <- Chunk{Type: "token", Data: "hello"}
		out <- Chunk{Type: "token", Data: "world"}
		return nil
	}

	err := ch.Stream(context.Background(), produce, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(frames), 4)
	assert.Equal(t, "connection", frames[0].Event)
	assert.Equal(t, "token", frames[1].Event)
	assert.Equal(t, "1", frames[1].ID)
	assert.Equal(t, "token", frames[2].Event)
	assert.Equal(t, "2", frames[2].ID)
	assert.Equal(t, "done", frames[len(frames)-1].Event)
}

func TestStreamDoneChunkBecomesTerminalPayload(t *testing.T) {
	ch := New(nil)
	var frames []Frame
	produce := func(ctx context.Context, out chan<- Chunk) error {
		out <- Chunk{Type: "token", Data: "hello"}
		out <- Chunk{Type: "done", Data: `{"recommended_courses":[{"course_code":"CS 3110"}]}`}
		return nil
	}

	err := ch.Stream(context.Background(), produce, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)

	doneCount := 0
	for _, f := range frames {
		if f.Event == "done" {
			doneCount++
			// The done chunk rides the terminal frame and consumes no
			// content id.
			assert.Empty(t, f.ID)
			assert.Contains(t, f.Data, "CS 3110")
		}
	}
	assert.Equal(t, 1, doneCount)
	assert.Equal(t, "done", frames[len(frames)-1].Event)
}

func TestStreamEmitsErrorFrameOnProducerFailure(t *testing.T) {
	ch := New(nil)
	var frames []Frame
	produce := func(ctx context.Context, out chan<- Chunk) error {
		out <- Chunk{Type: "token", Data: "partial"}
		return assert.AnError
	}

	err := ch.Stream(context.Background(), produce, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "error", frames[len(frames)-1].Event)
}

func TestStreamHeartbeatsInterleaveUnderSlowProducer(t *testing.T) {
	ch := New(nil).WithHeartbeatInterval(20 * time.Millisecond).WithPollInterval(time.Hour)
	var frames []Frame
	produce := func(ctx context.Context, out chan<- Chunk) error {
		out <- Chunk{Type: "token", Data: "first"}
		time.Sleep(120 * time.Millisecond)
		out <- Chunk{Type: "token", Data: "second"}
		return nil
	}

	err := ch.Stream(context.Background(), produce, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)

	pingCount := 0
	var contentIDs []string
	for _, f := range frames {
		if f.Event == "ping" {
			pingCount++
		}
		if f.Event == "token" {
			contentIDs = append(contentIDs, f.ID)
		}
	}
	assert.GreaterOrEqual(t, pingCount, 3)
	require.Len(t, contentIDs, 2)
	assert.Equal(t, "1", contentIDs[0])
	assert.Equal(t, "2", contentIDs[1])
}

func TestStreamDisconnectCancelsProducer(t *testing.T) {
	disconnected := false
	ch := New(func() bool { return disconnected }).WithPollInterval(10 * time.Millisecond).WithHeartbeatInterval(time.Hour)

	producerCancelled := make(chan struct{})
	produce := func(ctx context.Context, out chan<- Chunk) error {
		disconnected = true
		<-ctx.Done()
		close(producerCancelled)
		return ctx.Err()
	}

	var frames []Frame
	err := ch.Stream(context.Background(), produce, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-producerCancelled:
	case <-time.After(time.Second):
		t.Fatal("producer was not cancelled on disconnect")
	}
	// Disconnect terminates silently: no done/error frame.
	for _, f := range frames {
		assert.NotEqual(t, "done", f.Event)
		assert.NotEqual(t, "error", f.Event)
	}
}
