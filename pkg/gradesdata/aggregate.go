// Package gradesdata loads and aggregates the on-disk grades CSV: a pure,
// stable aggregation over (course_id, term, ...) rows, so repeated loads of
// the same file produce identical aggregates.
package gradesdata

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// ErrCourseNotFound is returned when the CSV contains no rows for a course;
// the HTTP layer maps it to a 404.
var ErrCourseNotFound = errors.New("gradesdata: course not found")

// Row is one parsed line of the grades CSV.
type Row struct {
	CourseID             string
	Term                 string
	MeanGPA              float64
	GradeAPct            float64
	GradeBPct            float64
	GradeCPct            float64
	GradeDPct            float64
	GradeFPct            float64
	EnrollmentCount      int
	DifficultyPercentile float64
	UpdatedAt            string
}

// histogramTolerance is the allowed slack around 100 for a row's or
// aggregate's A..F percentages
const histogramTolerance = 5.0

// Aggregate combines every row for courseID across terms into one
// CourseGradesStats: mean GPA, population stdev, averaged histogram, summed
// enrollment, averaged difficulty percentile. Deterministic given the same
// (sorted-stable) input rows; returns an error if no rows match or if the
// aggregate histogram falls outside tolerance.
func Aggregate(rows []Row, courseID string) (*models.CourseGradesStats, error) {
	var matched []Row
	for _, r := range rows {
		if r.CourseID == courseID {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrCourseNotFound, courseID)
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Term < matched[j].Term })

	n := float64(len(matched))
	var sumGPA, sumA, sumB, sumC, sumD, sumF, sumDifficulty float64
	var sumEnrollment int
	terms := make([]string, 0, len(matched))
	gpas := make([]float64, 0, len(matched))

	for _, r := range matched {
		sumGPA += r.MeanGPA
		sumA += r.GradeAPct
		sumB += r.GradeBPct
		sumC += r.GradeCPct
		sumD += r.GradeDPct
		sumF += r.GradeFPct
		sumDifficulty += r.DifficultyPercentile
		sumEnrollment += r.EnrollmentCount
		terms = append(terms, r.Term)
		gpas = append(gpas, r.MeanGPA)
	}

	meanGPA := sumGPA / n
	histogram := map[string]float64{
		"A": sumA / n,
		"B": sumB / n,
		"C": sumC / n,
		"D": sumD / n,
		"F": sumF / n,
	}
	histogramSum := histogram["A"] + histogram["B"] + histogram["C"] + histogram["D"] + histogram["F"]
	if math.Abs(histogramSum-100) > histogramTolerance {
		return nil, fmt.Errorf("gradesdata: aggregate histogram for %q sums to %.2f, outside [95,105]", courseID, histogramSum)
	}

	passRate := (histogram["A"] + histogram["B"] + histogram["C"] + histogram["D"]) / 100

	return &models.CourseGradesStats{
		CourseCode:           models.NormalizeCourseCode(courseID),
		Terms:                terms,
		MeanGPA:              meanGPA,
		StdevGPA:             pstdev(gpas, meanGPA),
		PassRate:             passRate,
		Histogram:            histogram,
		EnrollmentCount:      sumEnrollment,
		DifficultyPercentile: sumDifficulty / n,
	}, nil
}

// pstdev computes the population standard deviation (not sample stdev),
// matching the explicit instruction.
func pstdev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
