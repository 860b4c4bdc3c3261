package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func TestTopologicalSortOrdersPrereqsFirst(t *testing.T) {
	courses := []models.CourseCode{"CS 201", "CS 101", "CS 301"}
	prereqsOf := map[models.CourseCode][]models.CourseCode{
		"CS 101": nil,
		"CS 201": {"CS 101"},
		"CS 301": {"CS 201"},
	}

	ordered, unresolved := topologicalSort(courses, prereqsOf, map[models.CourseCode]bool{})

	require.Empty(t, unresolved)
	require.Len(t, ordered, 3)

	pos := map[models.CourseCode]int{}
	for i, c := range ordered {
		pos[c] = i
	}
	assert.Less(t, pos["CS 101"], pos["CS 201"])
	assert.Less(t, pos["CS 201"], pos["CS 301"])
}

func TestTopologicalSortTreatsCompletedAsSatisfied(t *testing.T) {
	courses := []models.CourseCode{"CS 201"}
	prereqsOf := map[models.CourseCode][]models.CourseCode{
		"CS 201": {"CS 101"},
	}

	ordered, unresolved := topologicalSort(courses, prereqsOf, map[models.CourseCode]bool{"CS 101": true})

	require.Empty(t, unresolved)
	assert.Equal(t, []models.CourseCode{"CS 201"}, ordered)
}

func TestTopologicalSortDetectsUnresolvableCycle(t *testing.T) {
	courses := []models.CourseCode{"CS 101", "CS 201"}
	prereqsOf := map[models.CourseCode][]models.CourseCode{
		"CS 101": {"CS 201"},
		"CS 201": {"CS 101"},
	}

	ordered, unresolved := topologicalSort(courses, prereqsOf, map[models.CourseCode]bool{})

	assert.Empty(t, ordered)
	assert.ElementsMatch(t, courses, unresolved)
}

func TestToCourseCodesKeepsEveryPathNode(t *testing.T) {
	codes := toCourseCodes([]any{"CS 101", "CS 201", "CS 301"})
	assert.Len(t, codes, 3)
}
