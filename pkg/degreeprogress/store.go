package degreeprogress

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/tagcache"
)

// RequirementsLoader resolves the RequirementSpec set for a major, e.g. from
// a YAML catalog or a database table.
type RequirementsLoader func(ctx context.Context, major string) ([]models.RequirementSpec, error)

// Store wraps Evaluate with the tag "degree_reqs" cache, keyed by
// (student_id, major, sorted completed-course set)
type Store struct {
	loadRequirements RequirementsLoader
	cache            *tagcache.Cache
	ttl              time.Duration
}

// New returns a Store that resolves requirements via loadRequirements and
// caches evaluations in cache.
func New(loadRequirements RequirementsLoader, cache *tagcache.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{loadRequirements: loadRequirements, cache: cache, ttl: ttl}
}

// Get evaluates unmet requirements for studentID/major given their completed
// courses, serving from cache when the (student, major, course-set) triple
// has already been computed under the current degree_reqs tag version.
func (s *Store) Get(ctx context.Context, studentID, major string, have []models.CourseCode) ([]models.UnmetReq, error) {
	sorted := sortedCodeStrings(have)
	keyFields := map[string]any{"sid": studentID, "major": major, "have": sorted}

	value, _, err := s.cache.GetOrSet(ctx, "degree_reqs", keyFields, s.ttl, func(ctx context.Context) (any, error) {
		specs, err := s.loadRequirements(ctx, major)
		if err != nil {
			return nil, fmt.Errorf("degreeprogress: load requirements for %q: %w", major, err)
		}
		haveSet := toCodeSet(have)
		return Evaluate(specs, haveSet), nil
	})
	if err != nil {
		return nil, err
	}

	return decodeUnmet(value)
}

// WhatIfGet evaluates unmet requirements as if planned courses were also
// completed, always bypassing the cache since planned sets are typically
// unique per call.
func (s *Store) WhatIfGet(ctx context.Context, major string, have, planned []models.CourseCode) ([]models.UnmetReq, error) {
	specs, err := s.loadRequirements(ctx, major)
	if err != nil {
		return nil, fmt.Errorf("degreeprogress: load requirements for %q: %w", major, err)
	}
	return WhatIf(specs, toCodeSet(have), toCodeSet(planned)), nil
}

func toCodeSet(codes []models.CourseCode) map[models.CourseCode]bool {
	set := make(map[models.CourseCode]bool, len(codes))
	for _, c := range codes {
		set[models.NormalizeCourseCode(string(c))] = true
	}
	return set
}

func sortedCodeStrings(codes []models.CourseCode) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, string(models.NormalizeCourseCode(string(c))))
	}
	sort.Strings(out)
	return out
}

func decodeUnmet(value any) ([]models.UnmetReq, error) {
	if unmet, ok := value.([]models.UnmetReq); ok {
		return unmet, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("degreeprogress: re-encode cached value: %w", err)
	}
	var unmet []models.UnmetReq
	if err := json.Unmarshal(data, &unmet); err != nil {
		return nil, fmt.Errorf("degreeprogress: decode cached value: %w", err)
	}
	return unmet, nil
}
