package eventchannel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// HeartbeatInterval is the default interval between ping frames.
const HeartbeatInterval = 10 * time.Second

// DisconnectPollInterval is the default client-disconnect poll tick.
const DisconnectPollInterval = 2 * time.Second

// Chunk is one unit of content a Producer emits; Type becomes the SSE
// "event" field and Data (already serialized by the caller) becomes "data".
type Chunk struct {
	Type string
	Data string
}

// Producer yields Chunks onto out until it completes or ctx is cancelled. A
// returned error triggers an error frame before termination.
type Producer func(ctx context.Context, out chan<- Chunk) error

// DisconnectChecker reports whether the client connection has gone away,
// polled every DisconnectPollInterval in addition to write-time detection.
type DisconnectChecker func() bool

// Channel adapts a Producer to a framed event stream: ordered
// content ids starting at 1, heartbeats that never consume an id, and
// exactly one terminal frame.
type Channel struct {
	heartbeatInterval time.Duration
	pollInterval      time.Duration
	isDisconnected    DisconnectChecker
}

// New returns a Channel with the default intervals. Overrides can be set
// via the With* options before calling Stream.
func New(isDisconnected DisconnectChecker) *Channel {
	if isDisconnected == nil {
		isDisconnected = func() bool { return false }
	}
	return &Channel{heartbeatInterval: HeartbeatInterval, pollInterval: DisconnectPollInterval, isDisconnected: isDisconnected}
}

// WithHeartbeatInterval overrides the default heartbeat cadence.
func (c *Channel) WithHeartbeatInterval(d time.Duration) *Channel {
	c.heartbeatInterval = d
	return c
}

// WithPollInterval overrides the default disconnect poll cadence.
func (c *Channel) WithPollInterval(d time.Duration) *Channel {
	c.pollInterval = d
	return c
}

// Stream runs produce to completion, sending each rendered Frame to emit in
// order: a connection frame first, then interleaved content and heartbeat
// frames, ending in exactly one terminal frame. emit returning an error (a
// broken pipe, e.g.) cancels the producer and ends the stream immediately.
//
// A chunk of type "done" is not emitted as a content frame: its data is held
// back and becomes the terminal done frame's payload, so completion metadata
// rides the one terminal frame instead of preceding it. Producers that send
// no done chunk terminate with the plain "stream_complete" sentinel.
func (c *Channel) Stream(ctx context.Context, produce Producer, emit func(Frame) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := emit(connectionFrame()); err != nil {
		return err
	}

	chunks := make(chan Chunk)
	producerDone := make(chan error, 1)
	go func() {
		producerDone <- produce(ctx, chunks)
		close(chunks)
	}()

	heartbeat := time.NewTicker(c.heartbeatInterval)
	defer heartbeat.Stop()
	poll := time.NewTicker(c.pollInterval)
	defer poll.Stop()

	var nextID int64
	var doneData string

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				// The producer goroutine sends its result before closing
				// chunks, so this receive cannot block.
				producerErr := <-producerDone
				return c.terminate(emit, producerErr, doneData)
			}
			if chunk.Type == "done" {
				doneData = chunk.Data
				continue
			}
			id := atomic.AddInt64(&nextID, 1)
			if err := emit(Frame{Event: chunk.Type, Data: chunk.Data, ID: fmt.Sprintf("%d", id)}); err != nil {
				cancel()
				<-producerDone
				return err
			}
		case <-heartbeat.C:
			if err := emit(heartbeatFrame()); err != nil {
				cancel()
				<-producerDone
				return err
			}
		case <-poll.C:
			if c.isDisconnected() {
				cancel()
				<-producerDone
				return nil
			}
		case <-ctx.Done():
			<-producerDone
			return ctx.Err()
		}
	}
}

func (c *Channel) terminate(emit func(Frame) error, producerErr error, doneData string) error {
	if producerErr != nil {
		payload, _ := json.Marshal(map[string]any{
			"error":       producerErr.Error(),
			"recoverable": true,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
		return emit(errorFrame(string(payload)))
	}
	return emit(doneFrame(doneData))
}
