package context

import (
	"context"
	"sync"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/config"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// registryNameByKind maps a ContextSourceKind to the config-registry name
// builtinContextProviders() uses, which predates the models package's enum
// naming and does not match it exactly (e.g. "grades" vs "grades_data").
var registryNameByKind = map[models.ContextSourceKind]string{
	models.ContextKindVectorSearch:      "vector_search",
	models.ContextKindGraphAnalysis:     "graph_analysis",
	models.ContextKindProfessorIntel:    "professor_intel",
	models.ContextKindDifficultyData:    "difficulty_data",
	models.ContextKindGradesData:        "grades",
	models.ContextKindEnrollmentData:    "enrollment_data",
	models.ContextKindScheduleFit:       "schedule_fit",
	models.ContextKindDegreeProgress:    "degree_progress",
	models.ContextKindConflictDetection: "conflict",
}

// FetchResult pairs a provider's kind with its outcome: exactly one of
// Source or Err is set. A timed-out or failed provider is simply absent
// from the final context map; a missing provider never fails the request.
type FetchResult struct {
	Kind   models.ContextSourceKind
	Source *models.ContextSource
	Err    error
}

// Manager fans a message out to every enabled Provider under its own
// deadline and fans the results back in, never failing the overall request
// on a provider error or timeout.
type Manager struct {
	providers []Provider
	cfg       map[string]config.ContextProviderConfig
}

// NewManager returns a Manager over providers, gated by cfg (provider
// registry name -> enabled/deadline). A nil or missing cfg entry defaults a
// provider to enabled with DefaultProviderDeadline.
func NewManager(providers []Provider, cfg map[string]config.ContextProviderConfig) *Manager {
	return &Manager{providers: providers, cfg: cfg}
}

// FetchAll runs every enabled provider concurrently, each bounded by its own
// deadline, and returns one FetchResult per provider that was attempted.
// Disabled providers are skipped entirely (no FetchResult is produced).
func (m *Manager) FetchAll(ctx context.Context, message string, profile models.StudentProfile) []FetchResult {
	return m.FetchEnabled(ctx, message, profile, nil)
}

// FetchEnabled is FetchAll with a per-request preference overlay: a kind
// explicitly set to false in prefs is skipped even when the registry enables
// it. A nil or empty prefs map behaves exactly like FetchAll.
func (m *Manager) FetchEnabled(ctx context.Context, message string, profile models.StudentProfile, prefs map[models.ContextSourceKind]bool) []FetchResult {
	var wg sync.WaitGroup
	results := make([]FetchResult, 0, len(m.providers))
	var mu sync.Mutex

	for _, p := range m.providers {
		registryName := registryNameByKind[p.Kind()]
		providerCfg, configured := m.cfg[registryName]
		if configured && !providerCfg.Enabled {
			continue
		}
		if enabled, requested := prefs[p.Kind()]; requested && !enabled {
			continue
		}

		deadline := DefaultProviderDeadline
		if configured && providerCfg.Deadline > 0 {
			deadline = providerCfg.Deadline
		}

		wg.Add(1)
		go func(p Provider, deadline time.Duration) {
			defer wg.Done()
			providerCtx, cancel := context.WithTimeout(ctx, deadline)
			defer cancel()

			source, err := p.Fetch(providerCtx, message, profile)
			mu.Lock()
			results = append(results, FetchResult{Kind: p.Kind(), Source: source, Err: err})
			mu.Unlock()
		}(p, deadline)
	}

	wg.Wait()
	return results
}

// Present returns only the successful sources from results, keyed by kind.
func Present(results []FetchResult) map[models.ContextSourceKind]*models.ContextSource {
	out := make(map[models.ContextSourceKind]*models.ContextSource, len(results))
	for _, r := range results {
		if r.Err == nil && r.Source != nil {
			out[r.Kind] = r.Source
		}
	}
	return out
}
