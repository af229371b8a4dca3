package expert

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stwalsh4118/permits/api/internal/models"
)

// Task selects what the analyzer is asked to do.
type Task string

const (
	// TaskExpertReview asks for a planner's review of a finished report.
	TaskExpertReview Task = "expert_review"
	// TaskStatewideFallback asks for a goal analysis when the goal rules
	// could not be loaded.
	TaskStatewideFallback Task = "statewide_fallback"
)

// Prompt is the structured payload handed to an Analyzer.
type Prompt struct {
	Prior    *models.ComplianceReport
	Property models.ReportProperty
	Permit   models.PermitSummary
	Details  models.ProjectDetails
	Task     Task
}

// SystemInstruction frames the model as a municipal planner.
const SystemInstruction = "You are an expert city planner reviewing permit applications for a small Oregon city. " +
	"Be specific, cite the zoning standard or statewide planning goal you rely on, and never invent property facts."

var expertSections = []string{
	"Expert Assessment of Compliance Issues",
	"Risk Analysis and Mitigation Strategies",
	"Recommended Conditions of Approval",
	"Potential Appeals or Challenges",
	"Best Practices Recommendations",
	"Long-term Planning Considerations",
}

// Render formats the prompt as model input.
func (p Prompt) Render() string {
	var b strings.Builder

	switch p.Task {
	case TaskStatewideFallback:
		b.WriteString("Analyze this project for compliance with Oregon's 19 Statewide Planning Goals.\n\n")
		p.writeProject(&b)
		b.WriteString("\nProvide detailed compliance analysis for the applicable goals.\n")
	default:
		b.WriteString("As an expert city planner, provide a comprehensive analysis of this permit application.\n\n")
		p.writeProject(&b)
		if p.Prior != nil {
			b.WriteString("\nDeterministic compliance results:\n")
			writePrior(&b, p.Prior)
		}
		b.WriteString("\nProvide:\n")
		for i, s := range expertSections {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	}
	return b.String()
}

func (p Prompt) writeProject(b *strings.Builder) {
	fmt.Fprintf(b, "Permit Type: %s (%s)\n", p.Permit.Name, p.Permit.Code)
	fmt.Fprintf(b, "Property: %s (tax lot %s)\n", p.Property.Address, p.Property.TaxLot)

	ctx, err := json.Marshal(p.Property.Context)
	if err == nil {
		fmt.Fprintf(b, "Property Context: %s\n", ctx)
	}
	details, err := json.Marshal(p.Details)
	if err == nil {
		fmt.Fprintf(b, "Project Details: %s\n", details)
	}
}

func writePrior(b *strings.Builder, r *models.ComplianceReport) {
	fmt.Fprintf(b, "- Overall status: %s\n", r.OverallStatus)
	for _, level := range []*models.LevelReport{r.Basic, r.Standard, r.Statewide} {
		if level == nil {
			continue
		}
		if level.Degraded {
			fmt.Fprintf(b, "- %s: unavailable (%s)\n", level.Name, level.Error)
			continue
		}
		fmt.Fprintf(b, "- %s: %s, %d checked, %d violations\n", level.Name, level.Status, level.Checked, level.Violations)
		for _, v := range level.Verdicts {
			if v.Outcome != models.OutcomePass {
				fmt.Fprintf(b, "  * %s [%s]: %s\n", v.RuleName, v.Outcome, v.Message)
			}
		}
		for _, g := range level.Goals {
			if g.Status != models.StatusCompliant {
				fmt.Fprintf(b, "  * Goal %d %s: %s\n", g.GoalNumber, g.Title, g.Status)
			}
		}
	}
}
