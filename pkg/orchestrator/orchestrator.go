// Package orchestrator implements the ChatOrchestrator: it
// composes the context Manager, the TokenBudgetManager, the LLMRouter, the
// SchemaEnforcer, and the ResilientEventChannel into a single streaming
// chat() operation, plus a non-streaming explain() for per-recommendation
// rationale.
//
// A cancellation registry (activeExecs map of id -> cancel func, guarded by
// a mutex, drained by Stop's WaitGroup) lets an in-flight chat be cancelled
// by conversation id and lets the process shut down without abandoning a
// streaming response mid-write.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	advcontext "github.com/tfpre/CourseNavigator-sub000/pkg/context"
	"github.com/tfpre/CourseNavigator-sub000/pkg/convstore"
	"github.com/tfpre/CourseNavigator-sub000/pkg/eventchannel"
	"github.com/tfpre/CourseNavigator-sub000/pkg/llmrouter"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/profilestore"
	"github.com/tfpre/CourseNavigator-sub000/pkg/schema"
	"github.com/tfpre/CourseNavigator-sub000/pkg/tokenbudget"
)

// MetricsRecorder is the subset of pkg/metrics.Registry the orchestrator
// observes through, kept as a local interface so this package never imports
// the concrete metrics type.
type MetricsRecorder interface {
	ObserveFirstToken(time.Duration)
	ObserveTotalResponse(time.Duration)
	IncFallbackUsed()
}

type noopMetrics struct{}

func (noopMetrics) ObserveFirstToken(time.Duration)    {}
func (noopMetrics) ObserveTotalResponse(time.Duration) {}
func (noopMetrics) IncFallbackUsed()                   {}

// ErrShuttingDown is returned by Chat/Explain once Stop has been called.
var ErrShuttingDown = fmt.Errorf("orchestrator: shutting down")

// ChatRequest is the input to one chat turn.
type ChatRequest struct {
	ConversationID string
	StudentID      string
	Message        string
	// ProfileUpdate carries any inline profile fields the client attached to
	// this turn (e.g. a newly completed course); merged atomically via
	// ProfileStore before context fetch, so every provider sees the update.
	ProfileUpdate *models.StudentProfile
	// ContextPreferences lets a client switch individual context kinds off
	// for this turn; kinds absent from the map keep their registry default.
	ContextPreferences map[models.ContextSourceKind]bool
	// MaxRecommendations caps the recommendations attached to the final
	// frame. Zero means the envelope's own limit (5) applies.
	MaxRecommendations int
}

// Orchestrator is the ChatOrchestrator.
type Orchestrator struct {
	contextMgr  *advcontext.Manager
	tokenBudget *tokenbudget.Manager
	router      *llmrouter.Router
	enforcer    *schema.Enforcer
	convStore   *convstore.Store
	profStore   *profilestore.Store
	metrics     MetricsRecorder

	mu          sync.RWMutex
	activeExecs map[string]context.CancelFunc
	wg          sync.WaitGroup
	stopped     bool
}

// New builds an Orchestrator from its fully-wired collaborators. metrics may
// be nil (a no-op recorder is substituted).
func New(
	contextMgr *advcontext.Manager,
	tokenBudget *tokenbudget.Manager,
	router *llmrouter.Router,
	enforcer *schema.Enforcer,
	convStore *convstore.Store,
	profStore *profilestore.Store,
	metrics MetricsRecorder,
) *Orchestrator {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Orchestrator{
		contextMgr:  contextMgr,
		tokenBudget: tokenBudget,
		router:      router,
		enforcer:    enforcer,
		convStore:   convStore,
		profStore:   profStore,
		metrics:     metrics,
		activeExecs: make(map[string]context.CancelFunc),
	}
}

// Stop cancels every in-flight chat and waits for its goroutine-adjacent
// work to settle. Safe to call multiple times; Chat calls made afterward
// fail fast with ErrShuttingDown.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	for _, cancel := range o.activeExecs {
		cancel()
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// CancelConversation cancels an in-flight chat by conversation id, returning
// true if one was found.
func (o *Orchestrator) CancelConversation(conversationID string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if cancel, ok := o.activeExecs[conversationID]; ok {
		cancel()
		return true
	}
	return false
}

func (o *Orchestrator) register(parent context.Context, id string) (context.Context, context.CancelFunc, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, nil, ErrShuttingDown
	}
	o.wg.Add(1)
	derived, cancel := context.WithCancel(parent)
	o.activeExecs[id] = cancel
	return derived, cancel, nil
}

func (o *Orchestrator) unregister(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeExecs, id)
	o.wg.Done()
}

// Chat returns an eventchannel.Producer that streams one chat turn: a
// context_info frame per context source that was fetched successfully,
// then content deltas as the LLM streams, then a "done" chunk carrying the
// enforced ChatAdvisorResponse, which the channel surfaces as the terminal
// done frame's payload. The caller (pkg/api) drives this through an
// eventchannel.Channel so heartbeats, disconnect polling, and the
// terminal-frame guarantee are handled uniformly.
func (o *Orchestrator) Chat(req ChatRequest) eventchannel.Producer {
	return func(ctx context.Context, out chan<- eventchannel.Chunk) error {
		if req.ConversationID == "" {
			req.ConversationID = uuid.NewString()
		}

		execCtx, cancel, err := o.register(ctx, req.ConversationID)
		if err != nil {
			return err
		}
		defer o.unregister(req.ConversationID)
		defer cancel()

		start := time.Now()
		err = o.runChat(execCtx, req, out)
		o.metrics.ObserveTotalResponse(time.Since(start))
		return err
	}
}

// streamStats captures per-turn latency and routing facts surfaced on the
// terminal done frame.
type streamStats struct {
	FirstToken   time.Duration
	Provider     string
	FallbackUsed bool
}

func (o *Orchestrator) runChat(ctx context.Context, req ChatRequest, out chan<- eventchannel.Chunk) error {
	turnStart := time.Now()

	state, profile, err := o.loadState(ctx, req)
	if err != nil {
		return fmt.Errorf("orchestrator: load state: %w", err)
	}

	if err := emitStatus(ctx, out, "loading_context", 0); err != nil {
		return err
	}

	results := o.contextMgr.FetchEnabled(ctx, req.Message, profile, req.ContextPreferences)
	sources := advcontext.Present(results)
	if err := emitContextInfo(ctx, out, results); err != nil {
		return err
	}
	if err := emitStatus(ctx, out, "building_prompt", len(sources)); err != nil {
		return err
	}

	sections := buildSections(profile, state.Messages, sources)
	prompt := o.tokenBudget.Assemble(sections, len(state.Messages))

	userMessage := models.Message{Role: models.RoleUser, Content: req.Message, Ts: time.Now(), Tokens: tokenbudget.EstimateTokens(req.Message)}
	state.AppendMessage(userMessage)

	raw, stats, err := o.streamAndAccumulate(ctx, state.Messages, prompt, out)
	if err != nil {
		return fmt.Errorf("orchestrator: stream completion: %w", err)
	}

	response, validationPassed := o.enforce(ctx, raw, prompt)
	if req.MaxRecommendations > 0 && len(response.Recommendations) > req.MaxRecommendations {
		response.Recommendations = response.Recommendations[:req.MaxRecommendations]
	}

	assistantMessage := models.Message{Role: models.RoleAssistant, Content: raw, Ts: time.Now(), Tokens: tokenbudget.EstimateTokens(raw)}
	state.AppendMessage(assistantMessage)
	state.ActiveRecommendations = response.Recommendations

	if err := o.convStore.Put(ctx, *state); err != nil {
		slog.Warn("orchestrator: failed to persist conversation", "conversation_id", state.ID, "error", err)
	}

	return emitFinal(ctx, out, state.ID, response, validationPassed, stats, time.Since(turnStart))
}

// loadState resolves the conversation (creating one if absent), merges any
// inline profile update atomically, and returns the conversation with its
// profile refreshed in place.
func (o *Orchestrator) loadState(ctx context.Context, req ChatRequest) (*models.ConversationState, models.StudentProfile, error) {
	state, err := o.convStore.Get(ctx, req.ConversationID)
	if err != nil {
		return nil, models.StudentProfile{}, err
	}
	if state == nil {
		state = &models.ConversationState{ID: req.ConversationID, CreatedAt: time.Now()}
	}

	incoming := state.Profile
	incoming.ID = req.StudentID
	if req.ProfileUpdate != nil {
		merged := *req.ProfileUpdate
		merged.ID = req.StudentID
		incoming = merged
	}

	profile, err := o.profStore.MergeAtomic(ctx, incoming)
	if err != nil {
		return nil, models.StudentProfile{}, err
	}
	state.Profile = *profile
	return state, *profile, nil
}

// streamAndAccumulate forwards each LLM content delta as a "content" chunk
// and returns the concatenated raw text once the stream completes.
func (o *Orchestrator) streamAndAccumulate(ctx context.Context, history []models.Message, systemPrompt string, out chan<- eventchannel.Chunk) (string, streamStats, error) {
	chunks, errs := o.router.Stream(ctx, history, systemPrompt)

	var raw string
	var stats streamStats
	var firstTokenRecorded bool
	start := time.Now()

	for chunk := range chunks {
		if chunk.Error != "" {
			return raw, stats, fmt.Errorf("llm stream error: %s", chunk.Error)
		}
		if chunk.Content != "" {
			if !firstTokenRecorded {
				stats.FirstToken = time.Since(start)
				stats.Provider = chunk.Provider
				o.metrics.ObserveFirstToken(stats.FirstToken)
				firstTokenRecorded = true
				if chunk.FromFallback {
					stats.FallbackUsed = true
					o.metrics.IncFallbackUsed()
				}
			}
			raw += chunk.Content
			payload, _ := json.Marshal(map[string]string{"delta": chunk.Content})
			select {
			case out <- eventchannel.Chunk{Type: "content", Data: string(payload)}:
			case <-ctx.Done():
				return raw, stats, ctx.Err()
			}
		}
	}

	if err := <-errs; err != nil {
		return raw, stats, err
	}
	return raw, stats, nil
}

// enforce runs the extract/validate/sanitize pipeline, re-asking once via a
// non-streaming structured completion on OutcomeRepairNeeded, and falling
// back to the regex extractor on a second failure. Per the resolved note,
// the regex fallback always stamps validation_passed=false.
func (o *Orchestrator) enforce(ctx context.Context, raw, originalPrompt string) (models.ChatAdvisorResponse, bool) {
	result := o.enforcer.Enforce(raw, originalPrompt, 1)
	switch result.Outcome {
	case schema.OutcomeOK:
		return *result.Response, true
	case schema.OutcomeRepairNeeded:
		repaired, err := o.router.CompleteJSONStructured(ctx, result.RepairPrompt, raw)
		if err == nil {
			second := o.enforcer.Enforce(repaired, originalPrompt, 2)
			if second.Outcome == schema.OutcomeOK {
				return *second.Response, true
			}
		}
	}
	return o.enforcer.RegexFallback(raw), false
}

// emitStatus sends a context_info chunk marking a pipeline stage
// transition; providerCount is only meaningful once fetching has finished.
func emitStatus(ctx context.Context, out chan<- eventchannel.Chunk, status string, providerCount int) error {
	fields := map[string]any{"status": status}
	if status == "building_prompt" {
		fields["providers_present"] = providerCount
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	select {
	case out <- eventchannel.Chunk{Type: "context_info", Data: string(payload)}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func emitContextInfo(ctx context.Context, out chan<- eventchannel.Chunk, results []advcontext.FetchResult) error {
	for _, r := range results {
		if r.Err != nil || r.Source == nil {
			continue
		}
		payload, err := json.Marshal(map[string]any{
			"kind":               r.Kind,
			"confidence":         r.Source.Confidence,
			"cache_hit":          r.Source.CacheHit,
			"processing_time_ms": r.Source.ProcessingTimeMs,
			"source_tag":         r.Source.SourceTag,
		})
		if err != nil {
			continue
		}
		select {
		case out <- eventchannel.Chunk{Type: "context_info", Data: string(payload)}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// sloFirstTokenMs and sloTotalMs are the latency targets stamped as
// compliance booleans on the final frame.
const (
	sloFirstTokenMs = 500
	sloTotalMs      = 500
)

// emitFinal enqueues the structured completion payload as a "done" chunk;
// the event channel holds it back and emits it as the terminal done frame,
// so consumers find the recommendations on the stream's one terminal event.
func emitFinal(ctx context.Context, out chan<- eventchannel.Chunk, conversationID string, response models.ChatAdvisorResponse, validationPassed bool, stats streamStats, total time.Duration) error {
	provider := stats.Provider
	if provider == "" {
		provider = "primary"
		if stats.FallbackUsed {
			provider = "fallback"
		}
	}
	payload, err := json.Marshal(map[string]any{
		"conversation_id":     conversationID,
		"response":            response,
		"recommended_courses": response.Recommendations,
		"provenance_info":     response.Provenance,
		"validation_passed":   validationPassed,
		"llm_provider":        provider,
		"fallback_used":       stats.FallbackUsed,
		"first_token_ms":      stats.FirstToken.Milliseconds(),
		"total_ms":            total.Milliseconds(),
		"slo": map[string]bool{
			"first_token_ok": stats.FirstToken.Milliseconds() < sloFirstTokenMs,
			"total_ok":       total.Milliseconds() < sloTotalMs,
		},
	})
	if err != nil {
		return fmt.Errorf("orchestrator: marshal final frame: %w", err)
	}
	select {
	case out <- eventchannel.Chunk{Type: "done", Data: string(payload)}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
