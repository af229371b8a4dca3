package compliance

import (
	"fmt"
	"strings"

	"github.com/stwalsh4118/permits/api/internal/models"
)

// Classify maps a failing zoning rule name to its recommendation type.
func Classify(ruleName string) models.RecommendationType {
	name := strings.ToLower(ruleName)
	switch {
	case strings.Contains(name, "setback"):
		return models.RecommendSetback
	case strings.Contains(name, "height"):
		return models.RecommendHeight
	case strings.Contains(name, "coverage"):
		return models.RecommendCoverage
	}
	return models.RecommendCode
}

// Recommend derives the ordered recommendations of a report: zoning
// failures, then standard failures, then unmet statewide goals, then the
// expert review notice. A report without violations gets one COMPLIANT
// entry in place of the violation entries.
func Recommend(report *models.ComplianceReport) []models.Recommendation {
	recs := []models.Recommendation{}

	if report.Basic != nil {
		for _, v := range report.Basic.Verdicts {
			if v.Outcome == models.OutcomeFail {
				recs = append(recs, zoningRecommendation(v))
			}
		}
	}

	if report.Standard != nil {
		for _, v := range report.Standard.Verdicts {
			if v.Outcome == models.OutcomeFail {
				recs = append(recs, models.Recommendation{
					Type:    models.RecommendCode,
					Message: fmt.Sprintf("Resolve %s: %s", v.RuleName, v.Message),
				})
			}
		}
	}

	if report.Statewide != nil {
		for _, g := range report.Statewide.Goals {
			if g.Status == models.StatusCompliant {
				continue
			}
			rec := models.Recommendation{
				Type:    models.RecommendGoal,
				Message: fmt.Sprintf("Address Oregon Goal %d: %s", g.GoalNumber, g.Title),
			}
			if len(g.Recommendations) > 0 {
				rec.Suggestion = g.Recommendations[0]
			}
			recs = append(recs, rec)
		}
	}

	if len(recs) == 0 {
		recs = append(recs, models.Recommendation{
			Type:       models.RecommendCompliant,
			Message:    "Project appears to meet basic compliance requirements",
			Suggestion: "Proceed with standard permit review process and verify all documentation is complete",
		})
	}

	if report.Expert != nil && report.Expert.Available {
		recs = append(recs, models.Recommendation{
			Type:    models.RecommendExpert,
			Message: "Review expert analysis for additional recommendations and conditions",
		})
	}
	return recs
}

// RecommendDirect derives recommendations for a direct check.
func RecommendDirect(verdicts []models.Verdict) []models.Recommendation {
	recs := []models.Recommendation{}
	for _, v := range verdicts {
		if v.Outcome != models.OutcomeFail {
			continue
		}
		if v.Category == models.CategoryZoning {
			recs = append(recs, zoningRecommendation(v))
			continue
		}
		recs = append(recs, models.Recommendation{
			Type:    models.RecommendCode,
			Message: fmt.Sprintf("Resolve %s: %s", v.RuleName, v.Message),
		})
	}

	if len(recs) == 0 {
		recs = append(recs, models.Recommendation{
			Type:       models.RecommendCompliant,
			Message:    "Project meets all zoning requirements",
			Suggestion: "Ready to proceed with permit application",
		})
	}
	return recs
}

func zoningRecommendation(v models.Verdict) models.Recommendation {
	rec := models.Recommendation{Type: Classify(v.RuleName)}
	switch rec.Type {
	case models.RecommendSetback:
		rec.Message = fmt.Sprintf("Consider redesigning to meet %s requirement", v.RuleName)
		rec.Suggestion = "You may need to reduce building size or request a variance"
	case models.RecommendHeight:
		rec.Message = fmt.Sprintf("Reduce building height to comply with %s", v.RuleName)
		rec.Suggestion = "Consider single-story design or lower roof pitch"
	case models.RecommendCoverage:
		rec.Message = fmt.Sprintf("Reduce building footprint to meet %s", v.RuleName)
		rec.Suggestion = "Consider multi-story design or smaller building footprint"
	default:
		rec.Message = fmt.Sprintf("Address %s: %s", v.RuleName, v.Message)
	}
	return rec
}
