// Package degreeprogress implements the DegreeProgressEvaluator: a pure,
// deterministic evaluator over RequirementSpec sets, ordered stably so the
// same inputs always produce the same prompt text.
package degreeprogress

import (
	"sort"

	"github.com/tfpre/CourseNavigator-sub000/pkg/models"
)

// Evaluate returns one UnmetReq per spec in specs that the student has not
// yet satisfied, given their completed-course set have. Satisfied
// requirements are omitted entirely. The result is ordered
// (-credit_gap, -count_gap, id), stable and deterministic.
func Evaluate(specs []models.RequirementSpec, have map[models.CourseCode]bool) []models.UnmetReq {
	var unmet []models.UnmetReq
	for _, spec := range specs {
		if u, ok := evaluateOne(spec, have); ok {
			unmet = append(unmet, u)
		}
	}

	sort.SliceStable(unmet, func(i, j int) bool {
		a, b := unmet[i], unmet[j]
		if a.CreditGap != b.CreditGap {
			return a.CreditGap > b.CreditGap
		}
		if a.CountGap != b.CountGap {
			return a.CountGap > b.CountGap
		}
		return a.ID < b.ID
	})
	return unmet
}

func evaluateOne(spec models.RequirementSpec, have map[models.CourseCode]bool) (models.UnmetReq, bool) {
	kind := spec.Kind
	if kind == "" {
		kind = models.RequirementCountAtLeast
	}

	switch kind {
	case models.RequirementAllOfSet:
		return evaluateAllOfSet(spec, have)
	case models.RequirementCreditsAtLeast:
		return evaluateCreditsAtLeast(spec, have)
	case models.RequirementCountAtLeast:
		return evaluateCountAtLeast(spec, have, minCountOrDefault(spec))
	default:
		// Unknown kind with nothing satisfied: treat as COUNT_AT_LEAST 1.
		return evaluateCountAtLeast(spec, have, 1)
	}
}

func minCountOrDefault(spec models.RequirementSpec) int {
	if spec.MinCount > 0 {
		return spec.MinCount
	}
	return 1
}

func evaluateAllOfSet(spec models.RequirementSpec, have map[models.CourseCode]bool) (models.UnmetReq, bool) {
	var missing []models.CourseCode
	for _, sat := range spec.Satisfiers {
		if !have[sat.Code] {
			missing = append(missing, sat.Code)
		}
	}
	if len(missing) == 0 {
		return models.UnmetReq{}, false
	}

	courses := missing
	if len(courses) > 5 {
		courses = courses[:5]
	}
	return models.UnmetReq{
		ID:               spec.ID,
		Summary:          spec.Summary,
		Kind:             models.RequirementAllOfSet,
		CountGap:         len(missing),
		CoursesToSatisfy: courses,
	}, true
}

func evaluateCountAtLeast(spec models.RequirementSpec, have map[models.CourseCode]bool, minCount int) (models.UnmetReq, bool) {
	satisfiedCount := 0
	var unsatisfied []models.CourseCode
	for _, sat := range spec.Satisfiers {
		if have[sat.Code] {
			satisfiedCount++
		} else {
			unsatisfied = append(unsatisfied, sat.Code)
		}
	}

	countGap := minCount - satisfiedCount
	if countGap < 0 {
		countGap = 0
	}
	if countGap == 0 {
		return models.UnmetReq{}, false
	}

	want := countGap * 2
	if want < 1 {
		want = 1
	}
	if want > len(unsatisfied) {
		want = len(unsatisfied)
	}

	return models.UnmetReq{
		ID:               spec.ID,
		Summary:          spec.Summary,
		Kind:             models.RequirementCountAtLeast,
		CountGap:         countGap,
		CoursesToSatisfy: unsatisfied[:want],
	}, true
}

func evaluateCreditsAtLeast(spec models.RequirementSpec, have map[models.CourseCode]bool) (models.UnmetReq, bool) {
	var haveCredits float64
	var unsatisfied []models.Satisfier
	for _, sat := range spec.Satisfiers {
		credits := sat.Credits
		if credits <= 0 {
			credits = models.DefaultCourseCredits
		}
		if have[sat.Code] {
			haveCredits += credits
		} else {
			unsatisfied = append(unsatisfied, models.Satisfier{Code: sat.Code, Credits: credits})
		}
	}

	creditGap := spec.MinCredits - haveCredits
	if creditGap < 0 {
		creditGap = 0
	}
	if creditGap == 0 {
		return models.UnmetReq{}, false
	}

	sort.SliceStable(unsatisfied, func(i, j int) bool { return unsatisfied[i].Credits > unsatisfied[j].Credits })
	courses := make([]models.CourseCode, 0, len(unsatisfied))
	for _, s := range unsatisfied {
		courses = append(courses, s.Code)
	}

	return models.UnmetReq{
		ID:               spec.ID,
		Summary:          spec.Summary,
		Kind:             models.RequirementCreditsAtLeast,
		CreditGap:        creditGap,
		CoursesToSatisfy: courses,
	}, true
}

// WhatIf evaluates the same requirement specs with planned courses unioned
// into have, bypassing any cache the caller might otherwise apply.
func WhatIf(specs []models.RequirementSpec, have, planned map[models.CourseCode]bool) []models.UnmetReq {
	union := make(map[models.CourseCode]bool, len(have)+len(planned))
	for c := range have {
		union[c] = true
	}
	for c := range planned {
		union[c] = true
	}
	return Evaluate(specs, union)
}
