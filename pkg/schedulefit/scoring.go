package schedulefit

import (
	"fmt"
	"sort"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

type taggedMeeting struct {
	courseCode models.CourseCode
	meeting    models.SectionMeeting
}

func flattenMeetings(bundles []models.SectionBundle) []taggedMeeting {
	var out []taggedMeeting
	for _, b := range bundles {
		for _, m := range b.Meetings {
			out = append(out, taggedMeeting{courseCode: b.CourseCode, meeting: m})
		}
	}
	return out
}

func overlaps(a, b models.SectionMeeting) bool {
	if a.StartMin >= b.EndMin || b.StartMin >= a.EndMin {
		return false
	}
	for _, da := range a.Days {
		for _, db := range b.Days {
			if da == db {
				return true
			}
		}
	}
	return false
}

// ConflictPairs returns a human-readable "CODE1×CODE2" description for every
// pairwise meeting overlap between distinct courses in bundles. Exported for
// use by ConflictDetectionContext (), which checks a mentioned course
// set for overlaps independent of beam-search ranking.
func ConflictPairs(bundles []models.SectionBundle) []string {
	return conflictPairs(bundles)
}

// conflictPairs returns a human-readable "CODE1×CODE2" description for
// every pairwise meeting overlap between distinct courses in bundles.
func conflictPairs(bundles []models.SectionBundle) []string {
	meetings := flattenMeetings(bundles)
	var pairs []string
	seen := make(map[string]bool)
	for i := 0; i < len(meetings); i++ {
		for j := i + 1; j < len(meetings); j++ {
			a, b := meetings[i], meetings[j]
			if a.courseCode == b.courseCode {
				continue
			}
			if !overlaps(a.meeting, b.meeting) {
				continue
			}
			codes := []string{string(a.courseCode), string(b.courseCode)}
			sort.Strings(codes)
			label := fmt.Sprintf("%s×%s", codes[0], codes[1])
			if !seen[label] {
				seen[label] = true
				pairs = append(pairs, label)
			}
		}
	}
	return pairs
}

// dailyMinutes sums scheduled minutes per day across bundles.
func dailyMinutes(bundles []models.SectionBundle) map[string]int {
	totals := make(map[string]int)
	for _, tm := range flattenMeetings(bundles) {
		duration := tm.meeting.EndMin - tm.meeting.StartMin
		for _, d := range tm.meeting.Days {
			totals[d] += duration
		}
	}
	return totals
}

// gapCount counts same-day gaps of at least gapMinMinutes between
// consecutive meetings.
func gapCount(bundles []models.SectionBundle) int {
	byDay := make(map[string][]models.SectionMeeting)
	for _, tm := range flattenMeetings(bundles) {
		for _, d := range tm.meeting.Days {
			byDay[d] = append(byDay[d], tm.meeting)
		}
	}

	gaps := 0
	for _, meetings := range byDay {
		sort.Slice(meetings, func(i, j int) bool { return meetings[i].StartMin < meetings[j].StartMin })
		for i := 1; i < len(meetings); i++ {
			gap := meetings[i].StartMin - meetings[i-1].EndMin
			if gap >= gapMinMinutes {
				gaps++
			}
		}
	}
	return gaps
}

func earliestStart(bundles []models.SectionBundle) int {
	earliest := -1
	for _, tm := range flattenMeetings(bundles) {
		if earliest == -1 || tm.meeting.StartMin < earliest {
			earliest = tm.meeting.StartMin
		}
	}
	if earliest == -1 {
		return 0
	}
	return earliest
}

func hasEarlyMeeting(bundles []models.SectionBundle) bool {
	for _, tm := range flattenMeetings(bundles) {
		if tm.meeting.StartMin < earlyMinMinutes {
			return true
		}
	}
	return false
}

func hasFridayMeeting(bundles []models.SectionBundle) bool {
	for _, tm := range flattenMeetings(bundles) {
		for _, d := range tm.meeting.Days {
			if d == "F" {
				return true
			}
		}
	}
	return false
}

func everyDayIsLight(bundles []models.SectionBundle) bool {
	for _, minutes := range dailyMinutes(bundles) {
		if float64(minutes)/60.0 > lightDayHoursMax {
			return false
		}
	}
	return true
}

// score computes (fit_score, total_gaps, conflict_reason) for a complete or
// partial set of chosen bundles.
func score(bundles []models.SectionBundle, prefs Preferences) (fit int, totalGaps int, conflictReason string) {
	pairs := conflictPairs(bundles)
	totalGaps = gapCount(bundles)

	points := 100
	points -= weightConflict * len(pairs)
	points -= weightGap * totalGaps
	if prefs.DislikesMorning && hasEarlyMeeting(bundles) {
		points -= weightEarly
	}
	if prefs.NoFriday && hasFridayMeeting(bundles) {
		points -= weightFriday
	}
	if everyDayIsLight(bundles) {
		points += bonusLightDay
	}

	if points < 0 {
		points = 0
	}
	if points > 100 {
		points = 100
	}

	conflictReason = ""
	if len(pairs) > 0 {
		conflictReason = joinPairs(pairs)
	}
	return points, totalGaps, conflictReason
}

func joinPairs(pairs []string) string {
	out := pairs[0]
	for _, p := range pairs[1:] {
		out += "; " + p
	}
	return out
}
