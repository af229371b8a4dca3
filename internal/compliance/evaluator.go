package compliance

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permits/api/internal/models"
)

// coveragePlaces is the precision lot coverage is reported and compared at.
const coveragePlaces = 1

// notProvided is shown when a project omits the value a rule checks.
const notProvided = "not provided"

// EvaluateZoning evaluates every rule against the project. Lot coverage is
// derived from the property's acreage when not supplied directly.
func EvaluateZoning(property *models.Property, rules []*models.ZoningRule, details *models.ProjectDetails) []models.Verdict {
	lot := property.LotSquareFeet()
	verdicts := make([]models.Verdict, 0, len(rules)+2)
	for _, rule := range rules {
		verdicts = append(verdicts, EvaluateRule(rule, details, lot)...)
	}
	return verdicts
}

// EvaluateRule checks one zoning rule. A setback rule yields one verdict per
// regulated side; every other kind yields exactly one verdict.
// Missing project values pass.
func EvaluateRule(rule *models.ZoningRule, details *models.ProjectDetails, lotSquareFeet float64) []models.Verdict {
	switch p := rule.Params.(type) {
	case models.SetbackParams:
		return evaluateSetback(rule, p, details)
	case models.HeightLimitParams:
		return []models.Verdict{evaluateHeight(rule, p, details)}
	case models.CoverageParams:
		return []models.Verdict{evaluateCoverage(rule, p, details, lotSquareFeet)}
	case models.NotedParams:
		return []models.Verdict{noted(rule)}
	}
	return []models.Verdict{noted(rule)}
}

func evaluateSetback(rule *models.ZoningRule, p models.SetbackParams, d *models.ProjectDetails) []models.Verdict {
	sides := []struct {
		name     string
		required *float64
		provided *float64
	}{
		{"Front", p.Front, d.FrontSetback},
		{"Rear", p.Rear, d.RearSetback},
		{"Side", p.Side, d.SideSetback},
	}

	verdicts := make([]models.Verdict, 0, len(sides))
	for _, side := range sides {
		if side.required == nil {
			continue
		}
		req := *side.required
		v := models.Verdict{
			RuleID:        rule.ID,
			RuleName:      side.name + " Setback",
			Category:      models.CategoryZoning,
			Required:      feet(req),
			RequiredValue: models.Float(req),
		}

		switch {
		case side.provided == nil:
			v.Provided = notProvided
			v.Message = fmt.Sprintf("%s setback not provided, requirement of %s assumed met", side.name, feet(req))
			pass(&v)
		case *side.provided >= req:
			v.Provided = feet(*side.provided)
			v.ProvidedValue = models.Float(*side.provided)
			v.Message = side.name + " setback meets requirement"
			pass(&v)
		default:
			v.Provided = feet(*side.provided)
			v.ProvidedValue = models.Float(*side.provided)
			v.Message = fmt.Sprintf("%s setback insufficient - Required: %s, Provided: %s",
				side.name, feet(req), feet(*side.provided))
			fail(&v)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts
}

func evaluateHeight(rule *models.ZoningRule, p models.HeightLimitParams, d *models.ProjectDetails) models.Verdict {
	v := models.Verdict{
		RuleID:        rule.ID,
		RuleName:      rule.Name,
		Category:      models.CategoryZoning,
		Required:      "Max " + feet(p.MaxFeet),
		RequiredValue: models.Float(p.MaxFeet),
	}

	switch {
	case d.BuildingHeight == nil:
		v.Provided = notProvided
		v.Message = "Building height not provided, limit assumed met"
		pass(&v)
	case *d.BuildingHeight <= p.MaxFeet:
		v.Provided = feet(*d.BuildingHeight)
		v.ProvidedValue = models.Float(*d.BuildingHeight)
		v.Message = "Building height within limit"
		pass(&v)
	default:
		v.Provided = feet(*d.BuildingHeight)
		v.ProvidedValue = models.Float(*d.BuildingHeight)
		v.Message = fmt.Sprintf("Building height exceeds limit - Max: %s, Provided: %s",
			feet(p.MaxFeet), feet(*d.BuildingHeight))
		fail(&v)
	}
	return v
}

func evaluateCoverage(rule *models.ZoningRule, p models.CoverageParams, d *models.ProjectDetails, lotSquareFeet float64) models.Verdict {
	v := models.Verdict{
		RuleID:        rule.ID,
		RuleName:      rule.Name,
		Category:      models.CategoryZoning,
		Required:      "Max " + percent(p.MaxPercentage),
		RequiredValue: models.Float(p.MaxPercentage),
	}

	provided, ok := ProvidedCoverage(d, lotSquareFeet)
	switch {
	case !ok:
		v.Provided = notProvided
		v.Message = "Lot coverage not provided, limit assumed met"
		pass(&v)
	case withinCoverage(provided, p.MaxPercentage):
		v.Provided = oneDecimalPercent(provided)
		v.ProvidedValue = models.Float(provided)
		v.Message = "Lot coverage within limit"
		pass(&v)
	default:
		v.Provided = oneDecimalPercent(provided)
		v.ProvidedValue = models.Float(provided)
		v.Message = fmt.Sprintf("Lot coverage exceeds limit - Max: %s, Provided: %s",
			percent(p.MaxPercentage), oneDecimalPercent(provided))
		fail(&v)
	}
	return v
}

// ProvidedCoverage returns the lot coverage percentage of the project: the
// supplied value, or square footage over lot area when both are known.
// Derived coverage is computed in decimal arithmetic so that a footprint
// exactly at the limit is not pushed over it by float error.
func ProvidedCoverage(d *models.ProjectDetails, lotSquareFeet float64) (float64, bool) {
	if d.LotCoverage != nil {
		return *d.LotCoverage, true
	}
	if d.SquareFootage != nil && lotSquareFeet > 0 {
		ratio := decimal.NewFromFloat(*d.SquareFootage).
			Mul(decimal.NewFromInt(100)).
			DivRound(decimal.NewFromFloat(lotSquareFeet), 8)
		return ratio.InexactFloat64(), true
	}
	return 0, false
}

// withinCoverage compares coverage at the precision it is reported, so a
// value shown as the limit never fails against it.
func withinCoverage(provided, limit float64) bool {
	return decimal.NewFromFloat(provided).Round(coveragePlaces).
		LessThanOrEqual(decimal.NewFromFloat(limit))
}

func noted(rule *models.ZoningRule) models.Verdict {
	required := rule.Description
	if required == "" {
		required = "See zoning code"
	}
	v := models.Verdict{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Category: models.CategoryZoning,
		Required: required,
		Provided: "To be verified",
		Message:  rule.Name + " requirement noted",
	}
	pass(&v)
	return v
}

func pass(v *models.Verdict) {
	v.Outcome = models.OutcomePass
	v.Compliant = true
}

func fail(v *models.Verdict) {
	v.Outcome = models.OutcomeFail
	v.Compliant = false
}

func warn(v *models.Verdict) {
	v.Outcome = models.OutcomeWarning
	v.Compliant = true
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func feet(v float64) string {
	return number(v) + " ft"
}

func percent(v float64) string {
	return number(v) + "%"
}

func oneDecimalPercent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(coveragePlaces) + "%"
}
