package schedulefit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/tagcache"
)

// RosterFetcher resolves the SectionBundle candidates for a course in a term
// from the system of record (registrar feed, mock fixture, etc).
type RosterFetcher func(ctx context.Context, term string, code models.CourseCode) ([]models.SectionBundle, error)

// rosterTTL is the cache lifetime for section_bundles entries.
const rosterTTL = 30 * 24 * time.Hour

// Roster caches SectionBundle lookups under tag "section_bundles", keyed by
// (term, course_code), matching "section_bundles:{term}:v{tagver}:{code}".
type Roster struct {
	fetch RosterFetcher
	cache *tagcache.Cache
}

// NewRoster returns a Roster backed by fetch and cache.
func NewRoster(fetch RosterFetcher, cache *tagcache.Cache) *Roster {
	return &Roster{fetch: fetch, cache: cache}
}

// BundlesFor returns the candidate SectionBundles for code in term.
func (r *Roster) BundlesFor(ctx context.Context, term string, code models.CourseCode) ([]models.SectionBundle, error) {
	keyFields := map[string]any{"term": term, "course_code": string(code)}
	value, _, err := r.cache.GetOrSet(ctx, "section_bundles", keyFields, rosterTTL, func(ctx context.Context) (any, error) {
		return r.fetch(ctx, term, code)
	})
	if err != nil {
		return nil, err
	}
	return decodeBundles(value)
}

// BundlesForAll resolves bundles for every requested course, returning a map
// suitable for RankSchedules.
func (r *Roster) BundlesForAll(ctx context.Context, term string, codes []models.CourseCode) (map[models.CourseCode][]models.SectionBundle, error) {
	out := make(map[models.CourseCode][]models.SectionBundle, len(codes))
	for _, code := range codes {
		bundles, err := r.BundlesFor(ctx, term, code)
		if err != nil {
			return nil, fmt.Errorf("schedulefit: bundles for %q: %w", code, err)
		}
		out[code] = bundles
	}
	return out, nil
}

func decodeBundles(value any) ([]models.SectionBundle, error) {
	if bundles, ok := value.([]models.SectionBundle); ok {
		return bundles, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("schedulefit: re-encode cached bundles: %w", err)
	}
	var bundles []models.SectionBundle
	if err := json.Unmarshal(data, &bundles); err != nil {
		return nil, fmt.Errorf("schedulefit: decode cached bundles: %w", err)
	}
	return bundles, nil
}
