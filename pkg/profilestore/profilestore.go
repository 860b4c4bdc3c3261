// Package profilestore implements ProfileStore: student profiles
// keyed by id, merged atomically via a Redis Lua script using
// "prefer-incoming-non-empty" semantics, with a non-atomic read-merge-write
// fallback if scripting is unavailable.
package profilestore

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

// DefaultTTL is the profile TTL, refreshed on every read.
const DefaultTTL = 30 * 24 * time.Hour

// mergeScript merges an incoming profile JSON object into the existing one
// (if any) using "prefer incoming value when non-empty" for every field, and
// stores the result. Returns the merged JSON. Uses cjson, which ships with
// Redis's Lua runtime.
var mergeScript = redis.NewScript(`
local key = KEYS[1]
local incoming = cjson.decode(ARGV[1])
local ttl = tonumber(ARGV[2])

local existingRaw = redis.call('GET', key)
local merged
if not existingRaw then
  merged = incoming
else
  local existing = cjson.decode(existingRaw)
  merged = existing
  for k, v in pairs(incoming) do
    local isEmpty = false
    if v == cjson.null or v == nil then
      isEmpty = true
    elseif type(v) == 'table' and next(v) == nil then
      isEmpty = true
    elseif type(v) == 'string' and v == '' then
      isEmpty = true
    end
    if not isEmpty then
      merged[k] = v
    end
  end
end

local out = cjson.encode(merged)
redis.call('SETEX', key, ttl, out)
return out
`)

// Store is the ProfileStore.
type Store struct {
	kv *kvstore.Client
}

// New returns a Store.
func New(kv *kvstore.Client) *Store {
	return &Store{kv: kv}
}

func profileKey(id string) string {
	return "student_profile:" + id
}

// Get reads and normalizes a profile, refreshing its TTL.
func (s *Store) Get(ctx context.Context, id string) (*models.StudentProfile, error) {
	raw, err := s.kv.Get(ctx, profileKey(id))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profilestore: read %q: %w", id, err)
	}

	var profile models.StudentProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("profilestore: decode %q: %w", id, err)
	}
	normalized := profile.Normalize()

	if err := s.kv.SetEX(ctx, profileKey(id), raw, DefaultTTL); err != nil {
		return nil, fmt.Errorf("profilestore: refresh ttl for %q: %w", id, err)
	}

	return &normalized, nil
}

// Put stores a profile verbatim (used only for empty-shell creation; all
// other writes must go through MergeAtomic).
func (s *Store) Put(ctx context.Context, profile models.StudentProfile) error {
	normalized := profile.Normalize()
	data, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("profilestore: marshal %q: %w", profile.ID, err)
	}
	return s.kv.SetEX(ctx, profileKey(profile.ID), string(data), DefaultTTL)
}

// MergeAtomic runs the server-side merge script; if scripting fails it falls
// back to a non-atomic read-merge-write using the same prefer-incoming rule.
func (s *Store) MergeAtomic(ctx context.Context, incoming models.StudentProfile) (*models.StudentProfile, error) {
	incoming = incoming.Normalize()
	payload, err := json.Marshal(incoming)
	if err != nil {
		return nil, fmt.Errorf("profilestore: marshal incoming %q: %w", incoming.ID, err)
	}

	key := profileKey(incoming.ID)
	res, err := s.kv.Eval(ctx, mergeScript, []string{key}, string(payload), int(DefaultTTL.Seconds())).Result()
	if err == nil {
		merged, perr := decodeMerged(res)
		if perr == nil {
			return merged, nil
		}
		err = perr
	}

	// Fallback: non-atomic read-merge-write, same prefer-incoming rule.
	existing, gerr := s.Get(ctx, incoming.ID)
	if gerr != nil {
		return nil, fmt.Errorf("profilestore: fallback read %q after script error %v: %w", incoming.ID, err, gerr)
	}
	merged := mergePreferIncoming(existing, incoming)
	if err := s.Put(ctx, merged); err != nil {
		return nil, fmt.Errorf("profilestore: fallback write %q: %w", incoming.ID, err)
	}
	return &merged, nil
}

func decodeMerged(res any) (*models.StudentProfile, error) {
	s, ok := res.(string)
	if !ok {
		return nil, fmt.Errorf("profilestore: unexpected script result type %T", res)
	}
	var profile models.StudentProfile
	if err := json.Unmarshal([]byte(s), &profile); err != nil {
		return nil, fmt.Errorf("profilestore: decode script result: %w", err)
	}
	normalized := profile.Normalize()
	return &normalized, nil
}

// mergePreferIncoming implements the same rule as mergeScript in plain Go,
// used by the non-atomic fallback path: incoming non-empty fields win,
// otherwise the existing value is kept.
func mergePreferIncoming(existing *models.StudentProfile, incoming models.StudentProfile) models.StudentProfile {
	if existing == nil {
		return incoming
	}
	merged := *existing

	if incoming.Major != "" {
		merged.Major = incoming.Major
	}
	if incoming.Track != "" {
		merged.Track = incoming.Track
	}
	if incoming.Minor != "" {
		merged.Minor = incoming.Minor
	}
	if incoming.Year != "" {
		merged.Year = incoming.Year
	}
	if incoming.RiskTolerance != "" {
		merged.RiskTolerance = incoming.RiskTolerance
	}
	if incoming.GPA != nil {
		merged.GPA = incoming.GPA
	}
	if incoming.GPAGoal != nil {
		merged.GPAGoal = incoming.GPAGoal
	}
	if len(incoming.Completed) > 0 {
		merged.Completed = incoming.Completed
	}
	if len(incoming.Current) > 0 {
		merged.Current = incoming.Current
	}
	if len(incoming.Planned) > 0 {
		merged.Planned = incoming.Planned
	}
	if len(incoming.Interests) > 0 {
		merged.Interests = incoming.Interests
	}
	if len(incoming.BlockedTimes) > 0 {
		merged.BlockedTimes = incoming.BlockedTimes
	}
	// Preferences: replace only when incoming is non-empty, per the resolved
	// open question — this rule applies uniformly, including this fallback
	// path.
	if len(incoming.Preferences) > 0 {
		merged.Preferences = incoming.Preferences
	}

	merged.ID = existing.ID
	return merged
}
