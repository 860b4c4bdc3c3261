package gradesdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Row {
	return []Row{
		{CourseID: "CS 3110", Term: "FA22", MeanGPA: 3.2, GradeAPct: 40, GradeBPct: 35, GradeCPct: 15, GradeDPct: 5, GradeFPct: 5, EnrollmentCount: 100, DifficultyPercentile: 70},
		{CourseID: "CS 3110", Term: "SP23", MeanGPA: 3.4, GradeAPct: 50, GradeBPct: 30, GradeCPct: 12, GradeDPct: 4, GradeFPct: 4, EnrollmentCount: 120, DifficultyPercentile: 65},
		{CourseID: "MATH 2210", Term: "FA22", MeanGPA: 2.8, GradeAPct: 20, GradeBPct: 30, GradeCPct: 30, GradeDPct: 10, GradeFPct: 10, EnrollmentCount: 80, DifficultyPercentile: 80},
	}
}

func TestAggregateComputesMeanAcrossTerms(t *testing.T) {
	agg, err := Aggregate(sampleRows(), "CS 3110")
	require.NoError(t, err)
	assert.InDelta(t, 3.3, agg.MeanGPA, 1e-9)
	assert.ElementsMatch(t, []string{"FA22", "SP23"}, agg.Terms)
	assert.Equal(t, 220, agg.EnrollmentCount)
}

func TestAggregateComputesPopulationStdev(t *testing.T) {
	agg, err := Aggregate(sampleRows(), "CS 3110")
	require.NoError(t, err)
	// population stdev of [3.2, 3.4] around mean 3.3 is 0.1, not the sample
	// stdev (which would be ~0.1414).
	assert.InDelta(t, 0.1, agg.StdevGPA, 1e-9)
}

func TestAggregatePassRateFromHistogram(t *testing.T) {
	agg, err := Aggregate(sampleRows(), "MATH 2210")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, agg.PassRate, 1e-9)
}

func TestAggregateRejectsUnknownCourse(t *testing.T) {
	_, err := Aggregate(sampleRows(), "CS 9999")
	assert.Error(t, err)
}

func TestAggregateRejectsHistogramOutsideTolerance(t *testing.T) {
	rows := []Row{
		{CourseID: "CS 1000", Term: "FA22", GradeAPct: 10, GradeBPct: 10, GradeCPct: 10, GradeDPct: 10, GradeFPct: 10},
	}
	_, err := Aggregate(rows, "CS 1000")
	assert.Error(t, err)
}

func TestAggregateIsDeterministicRegardlessOfInputOrder(t *testing.T) {
	rows := sampleRows()
	reversed := []Row{rows[1], rows[0], rows[2]}

	a, err := Aggregate(rows, "CS 3110")
	require.NoError(t, err)
	b, err := Aggregate(reversed, "CS 3110")
	require.NoError(t, err)

	assert.Equal(t, a.MeanGPA, b.MeanGPA)
	assert.Equal(t, a.StdevGPA, b.StdevGPA)
}
