package compliance

import (
	"math"

	"github.com/stwalsh4118/permits/api/internal/models"
)

// Level names used in reports.
const (
	BasicLevelName     = "Basic Zoning Compliance"
	StandardLevelName  = "Standard Compliance"
	StatewideLevelName = "Oregon Statewide Planning Goals"
)

// Weights added to the overall violation count by the statewide rollup.
const (
	StatewideNonCompliantWeight = 5
	StatewideNeedsReviewWeight  = 2
)

// LevelRate is the share of checks without violations, as a percentage.
// No checks is 100%.
func LevelRate(checked, violations int) float64 {
	if checked <= 0 {
		return 100
	}
	return float64(checked-violations) / float64(checked) * 100
}

// LevelStatusFor classifies a zoning or code level: no violations is
// COMPLIANT, violations up to 30% of checks is NEEDS_REVIEW, more is
// NON_COMPLIANT.
func LevelStatusFor(checked, violations int) models.LevelStatus {
	switch {
	case violations <= 0:
		return models.StatusCompliant
	case violations*10 <= checked*3:
		return models.StatusNeedsReview
	default:
		return models.StatusNonCompliant
	}
}

// GoalStatus classifies a single goal by its unmet requirements using the
// same thresholds as LevelStatusFor.
func GoalStatus(requirements, unmet int) models.LevelStatus {
	return LevelStatusFor(requirements, unmet)
}

// GoalRollup classifies the statewide level: all goals compliant is
// COMPLIANT, fewer than half compliant is NON_COMPLIANT, anything else
// NEEDS_REVIEW. The rate is the compliant share of goals, rounded to one
// decimal.
func GoalRollup(evals []models.GoalEvaluation) (models.LevelStatus, float64) {
	total := len(evals)
	if total == 0 {
		return models.StatusCompliant, 100
	}

	compliant := 0
	for _, e := range evals {
		if e.Status == models.StatusCompliant {
			compliant++
		}
	}

	rate := round1(float64(compliant) / float64(total) * 100)
	switch {
	case compliant == total:
		return models.StatusCompliant, rate
	case compliant*2 < total:
		return models.StatusNonCompliant, rate
	default:
		return models.StatusNeedsReview, rate
	}
}

// SummarizeLevel builds a level report from its verdicts. Only FAIL counts
// as a violation.
func SummarizeLevel(name string, verdicts []models.Verdict) *models.LevelReport {
	level := &models.LevelReport{
		Name:     name,
		Verdicts: verdicts,
		Checked:  len(verdicts),
	}
	for _, v := range verdicts {
		switch v.Outcome {
		case models.OutcomeFail:
			level.Violations++
		case models.OutcomeWarning:
			level.Warnings++
		}
	}
	level.ComplianceRate = LevelRate(level.Checked, level.Violations)
	level.Status = LevelStatusFor(level.Checked, level.Violations)
	return level
}

// SummarizeGoals builds the statewide level report from goal evaluations.
func SummarizeGoals(evals []models.GoalEvaluation) *models.LevelReport {
	status, rate := GoalRollup(evals)
	level := &models.LevelReport{
		Name:           StatewideLevelName,
		Goals:          evals,
		Checked:        len(evals),
		Status:         status,
		ComplianceRate: rate,
		Source:         SourceRuleStore,
	}
	for _, e := range evals {
		if e.Status != models.StatusCompliant {
			level.Violations++
		}
	}
	return level
}

// DegradedLevel is the report for a level whose inputs could not be loaded.
// It contributes no violations.
func DegradedLevel(name string, err error) *models.LevelReport {
	return &models.LevelReport{
		Name:           name,
		Status:         models.StatusNeedsReview,
		ComplianceRate: 100,
		Degraded:       true,
		Error:          err.Error(),
	}
}

// WeightedViolations counts basic and standard violations plus the statewide
// weight. Nil and degraded levels count zero.
func WeightedViolations(basic, standard, statewide *models.LevelReport) int {
	total := 0
	for _, level := range []*models.LevelReport{basic, standard} {
		if level != nil && !level.Degraded {
			total += level.Violations
		}
	}
	if statewide != nil && !statewide.Degraded {
		switch statewide.Status {
		case models.StatusNonCompliant:
			total += StatewideNonCompliantWeight
		case models.StatusNeedsReview:
			total += StatewideNeedsReviewWeight
		}
	}
	return total
}

// WeightedPolicy maps weighted violations to the overall status of a
// multi-level check.
func WeightedPolicy(weighted int) models.OverallStatus {
	switch {
	case weighted <= 0:
		return models.OverallApproved
	case weighted <= 2:
		return models.OverallApprovedWithConditions
	case weighted <= 5:
		return models.OverallNeedsReview
	default:
		return models.OverallDenied
	}
}

// PassRatePolicy maps pass counts to the overall status of a direct check:
// everything passing is APPROVED, under half passing is REJECTED.
func PassRatePolicy(total, passed int) models.OverallStatus {
	switch {
	case passed >= total:
		return models.OverallApproved
	case passed*2 < total:
		return models.OverallRejected
	default:
		return models.OverallNeedsReview
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
