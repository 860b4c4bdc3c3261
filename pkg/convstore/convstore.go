// Package convstore implements ConversationStore: bounded message
// history persisted in Redis with TTL refresh on read, plus a mirrored
// compact profile-update key for cross-session continuity.
package convstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tfpre/CourseNavigator-sub000/pkg/kvstore"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// DefaultTTL is the conversation TTL (default 7 days REDIS_TTL_DAYS).
const DefaultTTL = 7 * 24 * time.Hour

// tenantPrefix is reserved for future multi-tenant sharding but is always
// "default" in v1 — never read from request
// input.
const tenantPrefix = "default"

// Store is the ConversationStore.
type Store struct {
	kv  *kvstore.Client
	ttl time.Duration
}

// New returns a Store with the given TTL (DefaultTTL if zero).
func New(kv *kvstore.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{kv: kv, ttl: ttl}
}

func conversationKey(id string) string {
	return fmt.Sprintf("conversation:%s:%s", tenantPrefix, id)
}

// Get loads a conversation, refreshing its TTL on read. Returns nil if absent.
func (s *Store) Get(ctx context.Context, id string) (*models.ConversationState, error) {
	raw, err := s.kv.Get(ctx, conversationKey(id))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("convstore: read %q: %w", id, err)
	}

	var state models.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("convstore: decode %q: %w", id, err)
	}

	if len(state.Messages) > models.MaxConversationMessages {
		state.Messages = state.Messages[len(state.Messages)-models.MaxConversationMessages:]
	}

	if err := s.kv.SetEX(ctx, conversationKey(id), raw, s.ttl); err != nil {
		return nil, fmt.Errorf("convstore: refresh ttl for %q: %w", id, err)
	}

	return &state, nil
}

// Put persists the conversation state (last-writer-wins per id) and mirrors
// the profile snapshot under student_profile:{id} so a later chat request
// without a conversation id still sees recent profile changes.
func (s *Store) Put(ctx context.Context, state models.ConversationState) error {
	state.UpdatedAt = time.Now()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("convstore: marshal %q: %w", state.ID, err)
	}
	if err := s.kv.SetEX(ctx, conversationKey(state.ID), string(data), s.ttl); err != nil {
		return fmt.Errorf("convstore: write %q: %w", state.ID, err)
	}

	profileData, err := json.Marshal(state.Profile)
	if err != nil {
		return fmt.Errorf("convstore: marshal profile mirror for %q: %w", state.ID, err)
	}
	mirrorKey := "student_profile:" + state.Profile.ID
	if state.Profile.ID != "" {
		if err := s.kv.SetEX(ctx, mirrorKey, string(profileData), 30*24*time.Hour); err != nil {
			return fmt.Errorf("convstore: write profile mirror for %q: %w", state.ID, err)
		}
	}

	return nil
}
