package gradesdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/provenance"
	"github.com/tfpre/CourseNavigator-sub000/pkg/tagcache"
)

// Store loads the grades CSV on demand, aggregates per course, and caches
// aggregates under tag "grades" keyed by (course, file_hash)
type Store struct {
	path  string
	cache *tagcache.Cache
	prov  *provenance.Store
	ttl   time.Duration

	mu   sync.Mutex
	file *LoadedFile
}

// New returns a Store reading path on first use.
func New(path string, cache *tagcache.Cache, prov *provenance.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{path: path, cache: cache, prov: prov, ttl: ttl}
}

func (s *Store) loadedFile() (*LoadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file, nil
	}
	f, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	s.file = f
	return f, nil
}

// Get returns the aggregated CourseGradesStats for code, serving from the
// tag cache when an entry already exists for the current file hash.
func (s *Store) Get(ctx context.Context, code models.CourseCode) (*models.CourseGradesStats, error) {
	file, err := s.loadedFile()
	if err != nil {
		return nil, err
	}

	keyFields := map[string]any{"course_code": string(code), "file_hash": file.FileHash}
	value, _, err := s.cache.GetOrSet(ctx, "grades", keyFields, s.ttl, func(ctx context.Context) (any, error) {
		agg, err := Aggregate(file.Rows, string(code))
		if err != nil {
			return nil, err
		}

		dataVersion := dataVersionOf(agg)
		agg.Provenance = &models.ProvenanceTag{
			Source:      "grades",
			EntityID:    string(code),
			DataVersion: dataVersion,
			FetchedAt:   time.Now().Unix(),
			TTLSeconds:  int64(s.ttl.Seconds()),
			Meta:        map[string]any{"file_hash": file.FileHash},
		}
		if s.prov != nil {
			_ = s.prov.Put(ctx, *agg.Provenance)
		}
		return agg, nil
	})
	if err != nil {
		return nil, err
	}

	return decodeStats(value)
}

func dataVersionOf(agg *models.CourseGradesStats) string {
	canonical, _ := json.Marshal(agg)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// decodeStats re-marshals a cache value (which may already be a typed
// struct on a fresh computation, or a map[string]any after a JSON round
// trip through tagcache) into CourseGradesStats.
func decodeStats(value any) (*models.CourseGradesStats, error) {
	if stats, ok := value.(*models.CourseGradesStats); ok {
		return stats, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("gradesdata: re-encode cached value: %w", err)
	}
	var stats models.CourseGradesStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("gradesdata: decode cached value: %w", err)
	}
	return &stats, nil
}
