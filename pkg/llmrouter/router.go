// Package llmrouter implements LLMRouter: a primary/fallback race
// on time-to-first-token, backed by any OpenAI-API-compatible endpoint.
package llmrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tfpre/CourseNavigator-sub000/pkg/config"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// Chunk is one unit of streamed output. Provider carries the configured
// name of the backend that produced it (e.g. "local-vllm"), so the final
// frame can attribute the response.
type Chunk struct {
	Content      string
	IsFinal      bool
	Error        string
	Provider     string
	FromFallback bool
}

// Router races the primary and fallback LLM providers on first-token
// latency, and exposes a non-streaming structured-completion call.
type Router struct {
	providers map[string]*providerClient
	routing   *config.LLMRoutingConfig
}

type providerClient struct {
	name   string
	client *openai.Client
	model  string
}

// New builds a Router from the resolved LLM provider registry and routing
// config.
func New(registry *config.LLMProviderRegistry, routing *config.LLMRoutingConfig) (*Router, error) {
	clients := make(map[string]*providerClient)
	for _, name := range []string{routing.Primary, routing.Fallback} {
		if name == "" || clients[name] != nil {
			continue
		}
		provCfg, err := registry.Get(name)
		if err != nil {
			return nil, fmt.Errorf("llmrouter: resolve provider %q: %w", name, err)
		}
		apiKey := ""
		if provCfg.APIKeyEnv != "" {
			apiKey = os.Getenv(provCfg.APIKeyEnv)
		}
		oaiCfg := openai.DefaultConfig(apiKey)
		if provCfg.BaseURL != "" {
			oaiCfg.BaseURL = provCfg.BaseURL
		}
		clients[name] = &providerClient{
			name:   name,
			client: openai.NewClientWithConfig(oaiCfg),
			model:  provCfg.Model,
		}
	}
	return &Router{providers: clients, routing: routing}, nil
}

// Stream races the primary against the fallback: whichever produces its
// first content chunk before FirstTokenDeadline wins the stream; the other
// is cancelled. If the primary has already emitted a first token by the
// deadline, the fallback is never started.
func (r *Router) Stream(ctx context.Context, messages []models.Message, systemPrompt string) (<-chan Chunk, <-chan error) {
	out := make(chan Chunk, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		primary := r.providers[r.routing.Primary]
		if primary == nil {
			errs <- fmt.Errorf("llmrouter: no primary provider configured")
			return
		}

		deadline := r.routing.FirstTokenDeadline
		if deadline <= 0 {
			deadline = 3 * time.Second
		}

		primaryCtx, cancelPrimary := context.WithCancel(ctx)
		defer cancelPrimary()

		primaryChunks, primaryErrs := r.streamFrom(primaryCtx, primary, messages, systemPrompt)

		select {
		case chunk, ok := <-primaryChunks:
			if ok {
				r.drain(ctx, out, chunk, primaryChunks, primaryErrs, errs, r.routing.Primary, false)
				return
			}
		case err := <-primaryErrs:
			slog.Warn("llmrouter: primary failed before first token", "error", err)
		case <-time.After(deadline):
			slog.Warn("llmrouter: primary missed first-token deadline, racing fallback", "deadline", deadline)
		case <-ctx.Done():
			errs <- ctx.Err()
			return
		}

		fallback := r.providers[r.routing.Fallback]
		if fallback == nil {
			// No fallback configured; keep waiting on the primary rather than
			// failing the whole request over a missed deadline.
			select {
			case chunk, ok := <-primaryChunks:
				if ok {
					r.drain(ctx, out, chunk, primaryChunks, primaryErrs, errs, r.routing.Primary, false)
					return
				}
			case err := <-primaryErrs:
				errs <- err
				return
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
			return
		}

		fallbackCtx, cancelFallback := context.WithCancel(ctx)
		defer cancelFallback()
		fallbackChunks, fallbackErrs := r.streamFrom(fallbackCtx, fallback, messages, systemPrompt)

		select {
		case chunk, ok := <-primaryChunks:
			cancelFallback()
			if ok {
				r.drain(ctx, out, chunk, primaryChunks, primaryErrs, errs, r.routing.Primary, false)
			}
		case chunk, ok := <-fallbackChunks:
			cancelPrimary()
			if ok {
				r.drain(ctx, out, chunk, fallbackChunks, fallbackErrs, errs, r.routing.Fallback, true)
			}
		case err := <-fallbackErrs:
			errs <- fmt.Errorf("llmrouter: both providers failed: %w", err)
		case <-ctx.Done():
			errs <- ctx.Err()
		}
	}()

	return out, errs
}

// drain forwards first (already received) then the remainder of a winning
// provider's stream to out.
func (r *Router) drain(ctx context.Context, out chan<- Chunk, first Chunk, chunks <-chan Chunk, provErrs <-chan error, errs chan<- error, providerName string, fromFallback bool) {
	first.Provider = providerName
	first.FromFallback = fromFallback
	select {
	case out <- first:
	case <-ctx.Done():
		return
	}
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			chunk.Provider = providerName
			chunk.FromFallback = fromFallback
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		case err, ok := <-provErrs:
			if ok && err != nil {
				select {
				case errs <- err:
				default:
				}
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Router) streamFrom(ctx context.Context, p *providerClient, messages []models.Message, systemPrompt string) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk, 32)
	errs := make(chan error, 1)

	go func() {
		// chunks is closed only after a clean end of stream and errs is never
		// closed, so a receive on either channel always carries a real event.
		stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    p.model,
			Messages: toOpenAIMessages(systemPrompt, messages),
			Stream:   true,
		})
		if err != nil {
			errs <- fmt.Errorf("llmrouter: %s: start stream: %w", p.name, err)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				select {
				case chunks <- Chunk{IsFinal: true}:
				case <-ctx.Done():
				}
				close(chunks)
				return
			}
			if err != nil {
				errs <- fmt.Errorf("llmrouter: %s: stream recv: %w", p.name, err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			content := resp.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			select {
			case chunks <- Chunk{Content: content}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, errs
}

// CompleteJSONStructured performs a non-streaming completion intended for
// strict JSON output (used by the schema enforcer's re-ask path).
func (r *Router) CompleteJSONStructured(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	primary := r.providers[r.routing.Primary]
	if primary == nil {
		return "", fmt.Errorf("llmrouter: no primary provider configured")
	}

	resp, err := primary.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: primary.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", fmt.Errorf("llmrouter: structured completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmrouter: structured completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(systemPrompt string, messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case models.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case models.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
