package gradesdata

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

// LoadedFile is the parsed CSV rows plus the hash of the bytes they came
// from, used as part of the grades cache key (GradesContext).
type LoadedFile struct {
	Rows     []Row
	FileHash string
}

// Load reads and parses the grades CSV at path, matching the column order
// columns: course_id, term, mean_gpa, grade_a_pct..grade_f_pct,
// enrollment_count, difficulty_percentile, updated_at.
func Load(path string) (*LoadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gradesdata: read %q: %w", path, err)
	}

	sum := sha256.Sum256(data)
	fileHash := hex.EncodeToString(sum[:])

	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("gradesdata: parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return &LoadedFile{FileHash: fileHash}, nil
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("gradesdata: row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}

	return &LoadedFile{Rows: rows, FileHash: fileHash}, nil
}

func parseRow(record []string) (Row, error) {
	if len(record) < 11 {
		return Row{}, fmt.Errorf("expected 11 columns, got %d", len(record))
	}

	floatAt := func(i int) (float64, error) { return strconv.ParseFloat(record[i], 64) }
	intAt := func(i int) (int, error) { return strconv.Atoi(record[i]) }

	meanGPA, err := floatAt(2)
	if err != nil {
		return Row{}, fmt.Errorf("mean_gpa: %w", err)
	}
	gradeA, err := floatAt(3)
	if err != nil {
		return Row{}, fmt.Errorf("grade_a_pct: %w", err)
	}
	gradeB, err := floatAt(4)
	if err != nil {
		return Row{}, fmt.Errorf("grade_b_pct: %w", err)
	}
	gradeC, err := floatAt(5)
	if err != nil {
		return Row{}, fmt.Errorf("grade_c_pct: %w", err)
	}
	gradeD, err := floatAt(6)
	if err != nil {
		return Row{}, fmt.Errorf("grade_d_pct: %w", err)
	}
	gradeF, err := floatAt(7)
	if err != nil {
		return Row{}, fmt.Errorf("grade_f_pct: %w", err)
	}
	enrollment, err := intAt(8)
	if err != nil {
		return Row{}, fmt.Errorf("enrollment_count: %w", err)
	}
	difficultyPercentile, err := floatAt(9)
	if err != nil {
		return Row{}, fmt.Errorf("difficulty_percentile: %w", err)
	}

	return Row{
		CourseID:             record[0],
		Term:                 record[1],
		MeanGPA:              meanGPA,
		GradeAPct:            gradeA,
		GradeBPct:            gradeB,
		GradeCPct:            gradeC,
		GradeDPct:            gradeD,
		GradeFPct:            gradeF,
		EnrollmentCount:      enrollment,
		DifficultyPercentile: difficultyPercentile,
		UpdatedAt:            record[10],
	}, nil
}
