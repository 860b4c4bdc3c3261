package schedulefit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func TestRankSchedulesForcedConflictScenario(t *testing.T) {
	// Forced-conflict scenario: CS 1110 Monday 600-660 vs MATH 1910 Monday 630-690.
	candidates := map[models.CourseCode][]models.SectionBundle{
		"CS 1110": {
			{BundleID: "cs1110-001", CourseCode: "CS 1110", Meetings: []models.SectionMeeting{
				{Days: []string{"M"}, StartMin: 600, EndMin: 660},
			}},
		},
		"MATH 1910": {
			{BundleID: "math1910-001", CourseCode: "MATH 1910", Meetings: []models.SectionMeeting{
				{Days: []string{"M"}, StartMin: 630, EndMin: 690},
			}},
		},
	}

	ranked := RankSchedules(context.Background(), candidates, []models.CourseCode{"CS 1110", "MATH 1910"}, Preferences{}, 5, DefaultConfig())
	require.Len(t, ranked, 1)
	assert.Equal(t, 90, ranked[0].FitScore)
	assert.Contains(t, ranked[0].ConflictReason, "CS 1110×MATH 1910")
}

func TestRankSchedulesPrefersConflictFreeOverConflicting(t *testing.T) {
	candidates := map[models.CourseCode][]models.SectionBundle{
		"CS 1110": {
			{BundleID: "cs1110-conflict", CourseCode: "CS 1110", Meetings: []models.SectionMeeting{{Days: []string{"M"}, StartMin: 600, EndMin: 660}}},
			{BundleID: "cs1110-clean", CourseCode: "CS 1110", Meetings: []models.SectionMeeting{{Days: []string{"T"}, StartMin: 600, EndMin: 660}}},
		},
		"MATH 1910": {
			{BundleID: "math1910-001", CourseCode: "MATH 1910", Meetings: []models.SectionMeeting{{Days: []string{"M"}, StartMin: 630, EndMin: 690}}},
		},
	}

	ranked := RankSchedules(context.Background(), candidates, []models.CourseCode{"CS 1110", "MATH 1910"}, Preferences{}, 5, DefaultConfig())
	for _, r := range ranked {
		assert.Empty(t, r.ConflictReason)
	}
}

func TestRankSchedulesEmptyWhenCourseHasNoCandidates(t *testing.T) {
	candidates := map[models.CourseCode][]models.SectionBundle{
		"CS 1110": {{BundleID: "cs1110-001", CourseCode: "CS 1110"}},
	}
	ranked := RankSchedules(context.Background(), candidates, []models.CourseCode{"CS 1110", "MATH 1910"}, Preferences{}, 5, DefaultConfig())
	assert.Empty(t, ranked)
}

func TestRankSchedulesDeduplicatesByBundleIDs(t *testing.T) {
	candidates := map[models.CourseCode][]models.SectionBundle{
		"CS 1110": {{BundleID: "cs1110-001", CourseCode: "CS 1110", Meetings: []models.SectionMeeting{{Days: []string{"T"}, StartMin: 600, EndMin: 660}}}},
	}
	ranked := RankSchedules(context.Background(), candidates, []models.CourseCode{"CS 1110"}, Preferences{}, 5, DefaultConfig())
	require.Len(t, ranked, 1)
}

func TestScoreAppliesNoFridayAndMorningPenalties(t *testing.T) {
	bundles := []models.SectionBundle{
		{BundleID: "b1", CourseCode: "CS 1110", Meetings: []models.SectionMeeting{{Days: []string{"F"}, StartMin: 480, EndMin: 540}}},
	}
	fit, _, _ := score(bundles, Preferences{DislikesMorning: true, NoFriday: true})
	// 100 - 5 (early) - 8 (friday) + 5 (light day) = 92
	assert.Equal(t, 92, fit)
}

func TestGapCountDetectsSameDayGap(t *testing.T) {
	bundles := []models.SectionBundle{
		{BundleID: "b1", CourseCode: "CS 1110", Meetings: []models.SectionMeeting{{Days: []string{"M"}, StartMin: 540, EndMin: 600}}},
		{BundleID: "b2", CourseCode: "MATH 1910", Meetings: []models.SectionMeeting{{Days: []string{"M"}, StartMin: 800, EndMin: 860}}},
	}
	assert.Equal(t, 1, gapCount(bundles))
}
