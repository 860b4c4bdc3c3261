// Package provenance implements the ProvenanceStore: per-entity
// attribution tags, hard/soft staleness, and version-change invalidation.
package provenance

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

// IndexSizeRecorder is invoked only when an entity id is newly added to a
// month's index set (SADD returned 1), matching the "incremented only
// when SADD returns 1" rule. Satisfied by pkg/metrics.
type IndexSizeRecorder func(source string)

// Store is the provenance tag store.
type Store struct {
	kv          *kvstore.Client
	onIndexGrow IndexSizeRecorder
}

// New returns a Store. onIndexGrow may be nil.
func New(kv *kvstore.Client, onIndexGrow IndexSizeRecorder) *Store {
	return &Store{kv: kv, onIndexGrow: onIndexGrow}
}

func tagKey(source, entityID string) string {
	return fmt.Sprintf("prov:%s:%s", source, entityID)
}

func indexKey(source string, t time.Time) string {
	return fmt.Sprintf("prov:index:%s:%s", source, t.Format("200601"))
}

const indexTTL = 60 * 24 * time.Hour

// Put writes a ProvenanceTag and records its entity id in the month's index
// set, as a single logical pipeline.
func (s *Store) Put(ctx context.Context, tag models.ProvenanceTag) error {
	data, err := json.Marshal(tag)
	if err != nil {
		return fmt.Errorf("provenance: marshal tag: %w", err)
	}

	ttl := time.Duration(tag.TTLSeconds) * time.Second
	if err := s.kv.SetEX(ctx, tagKey(tag.Source, tag.EntityID), string(data), ttl); err != nil {
		return fmt.Errorf("provenance: write tag: %w", err)
	}

	added, err := s.kv.Raw().SAdd(ctx, indexKey(tag.Source, time.Now()), tag.EntityID).Result()
	if err != nil {
		return fmt.Errorf("provenance: update index: %w", err)
	}
	if added == 1 {
		if err := s.kv.Raw().Expire(ctx, indexKey(tag.Source, time.Now()), indexTTL).Err(); err != nil {
			return fmt.Errorf("provenance: set index ttl: %w", err)
		}
		if s.onIndexGrow != nil {
			s.onIndexGrow(tag.Source)
		}
	}

	return nil
}

// Get returns the tag for (source, entityID), or nil if missing.
func (s *Store) Get(ctx context.Context, source, entityID string) (*models.ProvenanceTag, error) {
	raw, err := s.kv.Get(ctx, tagKey(source, entityID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("provenance: read tag: %w", err)
	}
	var tag models.ProvenanceTag
	if err := json.Unmarshal([]byte(raw), &tag); err != nil {
		return nil, fmt.Errorf("provenance: decode tag: %w", err)
	}
	return &tag, nil
}

// HardStale reports whether tag is missing or past its hard expiry.
func HardStale(tag *models.ProvenanceTag, now time.Time) bool {
	if tag == nil {
		return true
	}
	if tag.ExpiresAt == nil {
		return false
	}
	return now.Unix() >= *tag.ExpiresAt
}

// SoftStale reports whether tag has passed its soft TTL. Soft-stale tags are
// still served by callers, but should trigger a background refresh.
func SoftStale(tag *models.ProvenanceTag, now time.Time) bool {
	if tag == nil || tag.SoftTTLSeconds == nil {
		return false
	}
	return now.Unix() >= tag.FetchedAt+*tag.SoftTTLSeconds
}

// DropCacheFunc is invoked when InvalidateOnVersionChange decides a tag is stale.
type DropCacheFunc func(ctx context.Context) error

// InvalidateOnVersionChange deletes the stored tag and invokes dropCache when
// either the version or data_version the caller observed differs from what
// is stored. Returns true if invalidation occurred.
func (s *Store) InvalidateOnVersionChange(ctx context.Context, source, entityID string, currentVersion int64, currentDataVersion string, dropCache DropCacheFunc) (bool, error) {
	existing, err := s.Get(ctx, source, entityID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	changed := existing.Version != currentVersion || existing.DataVersion != currentDataVersion
	if !changed {
		return false, nil
	}

	if err := s.kv.Raw().Del(ctx, tagKey(source, entityID)).Err(); err != nil {
		return false, fmt.Errorf("provenance: delete stale tag: %w", err)
	}
	if dropCache != nil {
		if err := dropCache(ctx); err != nil {
			return true, fmt.Errorf("provenance: drop cache callback: %w", err)
		}
	}
	return true, nil
}
