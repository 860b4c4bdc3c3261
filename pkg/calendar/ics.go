// Package calendar exports a student's selected sections as an RFC 5545
// iCalendar feed: one recurring VEVENT series per meeting slot, assembled
// line by line with a strings.Builder.
package calendar

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
	"github.com/tfpre/CourseNavigator-sub000/pkg/schedulefit"
)

// dayRRuleCode maps a SectionMeeting day letter to the RFC 5545 BYDAY code.
var dayRRuleCode = map[string]string{
	"M": "MO", "T": "TU", "W": "WE", "R": "TH", "F": "FR", "S": "SA", "U": "SU",
}

// Exporter builds an ICS feed from a student's planned course codes by
// resolving each to its first roster-returned SectionBundle — the export is
// a planning aid, not a registration confirmation, so picking a
// representative section rather than the student's actual enrolled section
// is an accepted simplification (no registrar enrollment feed exists in
// this system).
type Exporter struct {
	roster *schedulefit.Roster
	term   string

	// semesterStart anchors the weekly recurrence; no live registrar
	// term-date feed is wired, so this is a fixed placeholder date
	// configured at construction time.
	semesterStart time.Time
	semesterWeeks int
}

// New returns an Exporter over roster for term, anchoring recurring events
// at semesterStart for semesterWeeks weeks.
func New(roster *schedulefit.Roster, term string, semesterStart time.Time, semesterWeeks int) *Exporter {
	if semesterWeeks <= 0 {
		semesterWeeks = 15
	}
	return &Exporter{roster: roster, term: term, semesterStart: semesterStart, semesterWeeks: semesterWeeks}
}

// Export renders an ICS calendar (as text) containing one recurring VEVENT
// series per course meeting slot.
func (e *Exporter) Export(ctx context.Context, studentName string, codes []models.CourseCode) (string, error) {
	bundles, err := e.roster.BundlesForAll(ctx, e.term, codes)
	if err != nil {
		return "", fmt.Errorf("calendar: resolve sections: %w", err)
	}
	return e.render(studentName, codes, bundles), nil
}

// render is the pure text-assembly step, separated from section resolution
// so it can be exercised without a live Roster/cache.
func (e *Exporter) render(studentName string, codes []models.CourseCode, bundles map[models.CourseCode][]models.SectionBundle) string {
	var sb strings.Builder
	sb.WriteString("BEGIN:VCALENDAR\r\n")
	sb.WriteString("VERSION:2.0\r\n")
	sb.WriteString("PRODID:-//advisor//course-plan//EN\r\n")
	sb.WriteString("CALSCALE:GREGORIAN\r\n")
	if studentName != "" {
		fmt.Fprintf(&sb, "X-WR-CALNAME:%s — %s\r\n", escapeText(studentName), e.term)
	}

	// Stable iteration order so repeated exports of the same course set
	// produce byte-identical output.
	sorted := append([]models.CourseCode{}, codes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, code := range sorted {
		sections := bundles[code]
		if len(sections) == 0 {
			continue
		}
		bundle := sections[0]
		for i, meeting := range bundle.Meetings {
			e.writeEvent(&sb, bundle, meeting, i)
		}
	}

	sb.WriteString("END:VCALENDAR\r\n")
	return sb.String()
}

func (e *Exporter) writeEvent(sb *strings.Builder, bundle models.SectionBundle, meeting models.SectionMeeting, meetingIdx int) {
	days := rruleDays(meeting.Days)
	if days == "" {
		return
	}
	firstOccurrence := nextOccurrence(e.semesterStart, meeting.Days)
	start := dayStart(firstOccurrence, meeting.StartMin)
	end := dayStart(firstOccurrence, meeting.EndMin)
	until := e.semesterStart.AddDate(0, 0, 7*e.semesterWeeks)

	sb.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(sb, "UID:%s\r\n", eventUID(bundle.BundleID, meetingIdx))
	fmt.Fprintf(sb, "DTSTAMP:%s\r\n", e.semesterStart.UTC().Format("20060102T150405Z"))
	fmt.Fprintf(sb, "DTSTART:%s\r\n", start.Format("20060102T150405"))
	fmt.Fprintf(sb, "DTEND:%s\r\n", end.Format("20060102T150405"))
	fmt.Fprintf(sb, "RRULE:FREQ=WEEKLY;BYDAY=%s;UNTIL=%s\r\n", days, until.UTC().Format("20060102T150405Z"))
	fmt.Fprintf(sb, "SUMMARY:%s\r\n", escapeText(string(bundle.CourseCode)))
	fmt.Fprintf(sb, "DESCRIPTION:%s\r\n", escapeText("Section "+bundle.BundleID))
	sb.WriteString("END:VEVENT\r\n")
}

func rruleDays(days []string) string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		if code, ok := dayRRuleCode[d]; ok {
			out = append(out, code)
		}
	}
	return strings.Join(out, ",")
}

// nextOccurrence returns the first date on/after anchor that falls on one of
// days (weekday letters), so a multi-day meeting's events all start on a
// consistent week.
func nextOccurrence(anchor time.Time, days []string) time.Time {
	wanted := make(map[time.Weekday]bool)
	for _, d := range days {
		if wd, ok := weekdayOf(d); ok {
			wanted[wd] = true
		}
	}
	for i := 0; i < 7; i++ {
		candidate := anchor.AddDate(0, 0, i)
		if wanted[candidate.Weekday()] {
			return candidate
		}
	}
	return anchor
}

func weekdayOf(day string) (time.Weekday, bool) {
	switch day {
	case "U":
		return time.Sunday, true
	case "M":
		return time.Monday, true
	case "T":
		return time.Tuesday, true
	case "W":
		return time.Wednesday, true
	case "R":
		return time.Thursday, true
	case "F":
		return time.Friday, true
	case "S":
		return time.Saturday, true
	}
	return 0, false
}

func dayStart(day time.Time, minutesSinceMidnight int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).Add(time.Duration(minutesSinceMidnight) * time.Minute)
}

func eventUID(bundleID string, meetingIdx int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s:%d", bundleID, meetingIdx)))
	return hex.EncodeToString(sum[:8]) + "@advisor"
}

// escapeText escapes commas, semicolons, and newlines per RFC 5545 §3.3.11.
func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ",", `\,`, ";", `\;`, "\n", `\n`)
	return r.Replace(s)
}
