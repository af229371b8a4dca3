package compliance

import (
	"strings"

	"github.com/stwalsh4118/permits/api/internal/models"
)

// requirementRules map a phrase in a requirement's text to the description
// words that satisfy it. Requirements matching no phrase are met.
var requirementRules = []struct {
	phrase string
	anyOf  []string
}{
	{phrase: "public notice"},
	{phrase: "environmental impact", anyOf: []string{"environmental", "impact"}},
	{phrase: "transportation", anyOf: []string{"parking", "access"}},
	{phrase: "housing", anyOf: []string{"residential", "housing"}},
}

// RequirementMet applies the keyword heuristic to one requirement.
func RequirementMet(req models.GoalRequirement, description string) bool {
	text := strings.ToLower(req.Text)
	desc := strings.ToLower(description)

	for _, r := range requirementRules {
		if !strings.Contains(text, r.phrase) {
			continue
		}
		if len(r.anyOf) == 0 {
			return true
		}
		for _, word := range r.anyOf {
			if strings.Contains(desc, word) {
				return true
			}
		}
		return false
	}
	return true
}

// EvaluateGoalRequirements evaluates the requirements of one goal and
// classifies the goal with GoalStatus.
func EvaluateGoalRequirements(goal models.StatewideGoal, reqs []models.GoalRequirement, description string) models.GoalEvaluation {
	eval := models.GoalEvaluation{
		GoalNumber:          goal.Number,
		Title:               goal.Title,
		Findings:            make([]models.GoalFinding, 0, len(reqs)),
		Recommendations:     []string{},
		RequirementsChecked: len(reqs),
		Applicable:          true,
	}

	for _, req := range reqs {
		met := RequirementMet(req, description)
		eval.Findings = append(eval.Findings, models.GoalFinding{
			Requirement: req.Text,
			Criteria:    req.Criteria,
			Met:         met,
		})
		if !met {
			eval.RequirementsUnmet++
			eval.Recommendations = append(eval.Recommendations, "Address: "+req.Criteria)
		}
	}

	eval.Status = GoalStatus(eval.RequirementsChecked, eval.RequirementsUnmet)
	return eval
}
