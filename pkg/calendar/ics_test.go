package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

func newTestExporter() *Exporter {
	// render is exercised directly against a hand-built bundle map, so the
	// Exporter here never needs a live Roster/cache.
	return New(nil, "FA26", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), 15)
}

func TestRenderProducesOneEventPerMeeting(t *testing.T) {
	exporter := newTestExporter()
	bundles := map[models.CourseCode][]models.SectionBundle{
		"CS 1110": {
			{BundleID: "cs1110-001", CourseCode: "CS 1110", Meetings: []models.SectionMeeting{
				{Days: []string{"M", "W", "F"}, StartMin: 600, EndMin: 650},
			}},
		},
	}

	ics := exporter.render("Ada Lovelace", []models.CourseCode{"CS 1110"}, bundles)

	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Contains(t, ics, "END:VCALENDAR")
	assert.Contains(t, ics, "SUMMARY:CS 1110")
	assert.Contains(t, ics, "BYDAY=MO,WE,FR")
	assert.Contains(t, ics, "X-WR-CALNAME:Ada Lovelace")
}

func TestRenderSkipsCoursesWithNoSections(t *testing.T) {
	exporter := newTestExporter()
	bundles := map[models.CourseCode][]models.SectionBundle{}

	ics := exporter.render("", []models.CourseCode{"CS 4820"}, bundles)
	assert.NotContains(t, ics, "BEGIN:VEVENT")
}

func TestRenderIsDeterministicAcrossCourseOrdering(t *testing.T) {
	exporter := newTestExporter()
	bundles := map[models.CourseCode][]models.SectionBundle{
		"CS 1110": {{BundleID: "cs1110-001", CourseCode: "CS 1110", Meetings: []models.SectionMeeting{
			{Days: []string{"M"}, StartMin: 600, EndMin: 650},
		}}},
		"CS 2110": {{BundleID: "cs2110-001", CourseCode: "CS 2110", Meetings: []models.SectionMeeting{
			{Days: []string{"T"}, StartMin: 700, EndMin: 750},
		}}},
	}

	a := exporter.render("", []models.CourseCode{"CS 1110", "CS 2110"}, bundles)
	b := exporter.render("", []models.CourseCode{"CS 2110", "CS 1110"}, bundles)
	assert.Equal(t, a, b)
}

func TestEscapeTextEscapesSpecialCharacters(t *testing.T) {
	assert.Equal(t, `foo\, bar\; baz\n`, escapeText("foo, bar; baz\n"))
}

func TestNextOccurrenceFindsFirstMatchingWeekday(t *testing.T) {
	anchor := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC) // a Monday
	result := nextOccurrence(anchor, []string{"W"})
	assert.Equal(t, time.Wednesday, result.Weekday())
}

func TestRRuleDaysJoinsKnownCodes(t *testing.T) {
	assert.Equal(t, "MO,WE,FR", rruleDays([]string{"M", "W", "F"}))
}

func TestEventUIDIsStableForSameInput(t *testing.T) {
	assert.Equal(t, eventUID("cs1110-001", 0), eventUID("cs1110-001", 0))
	assert.NotEqual(t, eventUID("cs1110-001", 0), eventUID("cs1110-001", 1))
}
