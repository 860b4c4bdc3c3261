// Package eventchannel implements the ResilientEventChannel: a
// transport-independent framing of a producer's chunk stream with ordered
// content ids, heartbeats, and client-disconnect cancellation. The HTTP
// layer renders each Frame as an SSE "event:\ndata:\n\n" block and flushes
// after every write.
package eventchannel

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Frame is one framed event, defined independently of transport.
type Frame struct {
	Event string
	Data  string
	ID    string // empty for frames that carry no "id:" line
	Retry int    // milliseconds; only set on the connection frame
}

// connectionFrame returns the initial "connected" frame with a fresh uuid
// and the SSE retry hint
func connectionFrame() Frame {
	return Frame{Event: "connection", Data: "connected", Retry: 3000, ID: newConnectionID()}
}

func heartbeatFrame() Frame {
	return Frame{Event: "ping", Data: "heartbeat"}
}

// doneFrame builds the terminal done frame: the producer's completion
// payload when one was supplied, the plain sentinel otherwise.
func doneFrame(data string) Frame {
	if data == "" {
		data = "stream_complete"
	}
	return Frame{Event: "done", Data: data}
}

func errorFrame(payload string) Frame {
	return Frame{Event: "error", Data: payload}
}

// WriteTo renders f as SSE text onto sb: event/data/id/retry lines followed
// by a blank line. Multi-line data is split across repeated "data:" lines
func (f Frame) WriteTo(sb *strings.Builder) {
	if f.Event != "" {
		sb.WriteString("event: ")
		sb.WriteString(f.Event)
		sb.WriteString("\n")
	}
	for _, line := range strings.Split(f.Data, "\n") {
		sb.WriteString("data: ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if f.ID != "" {
		sb.WriteString("id: ")
		sb.WriteString(f.ID)
		sb.WriteString("\n")
	}
	if f.Retry != 0 {
		sb.WriteString(fmt.Sprintf("retry: %d\n", f.Retry))
	}
	sb.WriteString("\n")
}

// Render returns f as a complete SSE frame string.
func (f Frame) Render() string {
	var sb strings.Builder
	f.WriteTo(&sb)
	return sb.String()
}

func newConnectionID() string {
	return uuid.NewString()
}
