package context

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpre/CourseNavigator-sub000/pkg/config"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func TestExtractCourseCodesDedupesAndNormalizes(t *testing.T) {
	codes := ExtractCourseCodes("I've taken cs 1110 and CS1110, what about MATH 2210?")
	assert.Equal(t, []models.CourseCode{"CS 1110", "MATH 2210"}, codes)
}

func TestExtractCourseCodesEmptyWhenNoneMentioned(t *testing.T) {
	assert.Empty(t, ExtractCourseCodes("what should I take next semester?"))
}

func TestFallbackCourseCodesUsesProfileWhenMessageHasNone(t *testing.T) {
	profile := models.StudentProfile{Planned: []models.CourseCode{"CS 4820"}, Current: []models.CourseCode{"CS 3110"}}
	codes := fallbackCourseCodes("no mentions here", profile, 5)
	assert.Equal(t, []models.CourseCode{"CS 4820", "CS 3110"}, codes)
}

type stubProvider struct {
	kind  models.ContextSourceKind
	delay time.Duration
	err   error
}

func (s stubProvider) Kind() models.ContextSourceKind { return s.kind }

func (s stubProvider) Fetch(ctx context.Context, message string, profile models.StudentProfile) (*models.ContextSource, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.ContextSource{Kind: s.kind, Data: "ok"}, nil
}

func TestManagerFetchAllTimesOutSlowProviders(t *testing.T) {
	providers := []Provider{
		stubProvider{kind: models.ContextKindVectorSearch, delay: time.Millisecond},
		stubProvider{kind: models.ContextKindGraphAnalysis, delay: 500 * time.Millisecond},
	}
	cfg := map[string]config.ContextProviderConfig{
		"vector_search":  {Enabled: true, Deadline: 50 * time.Millisecond},
		"graph_analysis": {Enabled: true, Deadline: 20 * time.Millisecond},
	}
	manager := NewManager(providers, cfg)

	results := manager.FetchAll(context.Background(), "hi", models.StudentProfile{})
	present := Present(results)

	require.Contains(t, present, models.ContextKindVectorSearch)
	assert.NotContains(t, present, models.ContextKindGraphAnalysis)
}

func TestManagerFetchAllSkipsDisabledProviders(t *testing.T) {
	providers := []Provider{
		stubProvider{kind: models.ContextKindVectorSearch},
		stubProvider{kind: models.ContextKindProfessorIntel},
	}
	cfg := map[string]config.ContextProviderConfig{
		"vector_search":   {Enabled: true},
		"professor_intel": {Enabled: false},
	}
	manager := NewManager(providers, cfg)

	results := manager.FetchAll(context.Background(), "hi", models.StudentProfile{})
	assert.Len(t, results, 1)
	assert.Equal(t, models.ContextKindVectorSearch, results[0].Kind)
}

func TestManagerFetchAllRecordsProviderErrorsWithoutFailing(t *testing.T) {
	providers := []Provider{
		stubProvider{kind: models.ContextKindEnrollmentData, err: errors.New("upstream down")},
	}
	manager := NewManager(providers, nil)

	results := manager.FetchAll(context.Background(), "hi", models.StudentProfile{})
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Empty(t, Present(results))
}
