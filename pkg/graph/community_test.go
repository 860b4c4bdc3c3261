package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func TestToCourseCodes(t *testing.T) {
	raw := []any{"CS 101", "CS 201"}
	codes := toCourseCodes(raw)
	assert.Equal(t, []models.CourseCode{"CS 101", "CS 201"}, codes)
}

func TestToCourseCodesNonSlice(t *testing.T) {
	assert.Nil(t, toCourseCodes("not a slice"))
}
