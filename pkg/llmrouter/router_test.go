package llmrouter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpre/CourseNavigator-sub000/pkg/config"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// streamHandler serves an OpenAI-compatible SSE completion that emits each
// token after an initial delay.
func streamHandler(delay time.Duration, tokens ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, tok := range tokens {
			fmt.Fprintf(w, `data: {"id":"cmpl","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"%s"}}]}`+"\n\n", tok)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

func newTestRouter(t *testing.T, primaryURL, fallbackURL string, deadline time.Duration) *Router {
	t.Helper()
	registry := config.NewLLMProviderRegistry(map[string]*config.LLMProviderConfig{
		"local":  {Name: "local", BaseURL: primaryURL, Model: "local-model"},
		"remote": {Name: "remote", BaseURL: fallbackURL, Model: "remote-model"},
	})
	router, err := New(registry, &config.LLMRoutingConfig{
		Primary:            "local",
		Fallback:           "remote",
		FirstTokenDeadline: deadline,
	})
	require.NoError(t, err)
	return router
}

func collect(t *testing.T, chunks <-chan Chunk, errs <-chan error) (string, bool) {
	t.Helper()
	var text string
	var fromFallback bool
	for chunk := range chunks {
		require.Empty(t, chunk.Error)
		if chunk.Content != "" {
			text += chunk.Content
			fromFallback = chunk.FromFallback
		}
	}
	require.NoError(t, <-errs)
	return text, fromFallback
}

func TestStreamUsesPrimaryWhenFast(t *testing.T) {
	primary := httptest.NewServer(streamHandler(0, "CS", " 3110"))
	defer primary.Close()

	var fallbackCalls atomic.Int32
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackCalls.Add(1)
		streamHandler(0, "nope")(w, r)
	}))
	defer fallback.Close()

	router := newTestRouter(t, primary.URL, fallback.URL, 2*time.Second)

	chunks, errs := router.Stream(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "what next?"},
	}, "system prompt")

	text, fromFallback := collect(t, chunks, errs)
	assert.Equal(t, "CS 3110", text)
	assert.False(t, fromFallback)
	assert.Equal(t, int32(0), fallbackCalls.Load())
}

func TestStreamFallsBackOnMissedFirstTokenDeadline(t *testing.T) {
	primary := httptest.NewServer(streamHandler(500*time.Millisecond, "too", " late"))
	defer primary.Close()
	fallback := httptest.NewServer(streamHandler(0, "MATH", " 2210"))
	defer fallback.Close()

	router := newTestRouter(t, primary.URL, fallback.URL, 50*time.Millisecond)

	chunks, errs := router.Stream(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "what next?"},
	}, "")

	text, fromFallback := collect(t, chunks, errs)
	assert.Equal(t, "MATH 2210", text)
	assert.True(t, fromFallback)
}

func TestStreamFallsBackWhenPrimaryErrorsBeforeFirstToken(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer primary.Close()
	fallback := httptest.NewServer(streamHandler(0, "PHYS 1112"))
	defer fallback.Close()

	router := newTestRouter(t, primary.URL, fallback.URL, time.Second)

	chunks, errs := router.Stream(context.Background(), nil, "")

	text, fromFallback := collect(t, chunks, errs)
	assert.Equal(t, "PHYS 1112", text)
	assert.True(t, fromFallback)
}

func TestCompleteJSONStructured(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cmpl","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"recommendations\":[]}"}}]}`)
	}))
	defer primary.Close()
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unused", http.StatusInternalServerError)
	}))
	defer fallback.Close()

	router := newTestRouter(t, primary.URL, fallback.URL, time.Second)

	out, err := router.CompleteJSONStructured(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"recommendations":[]}`, out)
}
