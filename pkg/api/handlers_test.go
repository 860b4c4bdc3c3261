package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpre/CourseNavigator-sub000/pkg/gradesdata"
	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func TestGradesMissingCourseReturns404(t *testing.T) {
	deps := defaultDeps()
	deps.Grades = &stubGrades{err: gradesdata.ErrCourseNotFound}
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodGet, "/grades/CS%209999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGradesReturnsStats(t *testing.T) {
	deps := defaultDeps()
	deps.Grades = &stubGrades{stats: &models.CourseGradesStats{
		CourseCode: "CS 2110",
		MeanGPA:    3.3,
		PassRate:   0.94,
	}}
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodGet, "/grades/CS2110", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"CS 2110"`)
}

func TestGradesRejectsInvalidCode(t *testing.T) {
	s := newTestServer(t, defaultDeps())
	rec := doJSON(s, http.MethodGet, "/grades/notacourse", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidateCacheBumpsVersion(t *testing.T) {
	cache := &stubCache{version: 2}
	deps := defaultDeps()
	deps.Cache = cache
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodPost, "/admin/cache/invalidate/grades", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "grades", cache.lastTag)
	assert.Contains(t, rec.Body.String(), `"new_version":2`)
}

func TestInvalidateCacheRejectsBadTag(t *testing.T) {
	s := newTestServer(t, defaultDeps())
	rec := doJSON(s, http.MethodPost, "/admin/cache/invalidate/NOT%20A%20TAG", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProfileMissingReturns404(t *testing.T) {
	s := newTestServer(t, defaultDeps())
	rec := doJSON(s, http.MethodGet, "/profiles/s1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutProfileNormalizesAndUsesPathID(t *testing.T) {
	profiles := &stubProfiles{}
	deps := defaultDeps()
	deps.Profiles = profiles
	s := newTestServer(t, deps)

	rec := doJSON(s, http.MethodPut, "/profiles/s1",
		`{"id":"ignored","completed":["cs 1110"],"current":[],"planned":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, profiles.putArg)
	assert.Equal(t, "s1", profiles.putArg.ID)
	assert.Equal(t, []models.CourseCode{"CS 1110"}, profiles.putArg.Completed)
}

func TestPatchProfileMerges(t *testing.T) {
	s := newTestServer(t, defaultDeps())
	rec := doJSON(s, http.MethodPatch, "/profiles/s1", `{"major":"Computer Science"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"s1"`)
	assert.Contains(t, rec.Body.String(), "Computer Science")
}
