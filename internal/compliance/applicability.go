// Package compliance evaluates proposed projects against zoning rules and
// Oregon's statewide planning goals.
//
// The pipeline is: select applicable rules and goals, evaluate each into a
// verdict, aggregate verdicts into level reports and an overall status, and
// derive recommendations. Every step except the Engine is a pure function.
package compliance

import (
	"sort"
	"strings"

	"github.com/stwalsh4118/permits/api/internal/models"
)

// SelectRules returns the active rules for the property's zoning district,
// in the order given.
func SelectRules(property *models.Property, rules []*models.ZoningRule) []*models.ZoningRule {
	district := strings.ToUpper(strings.TrimSpace(property.Zoning))
	selected := make([]*models.ZoningRule, 0, len(rules))
	for _, rule := range rules {
		if rule == nil || !rule.Active {
			continue
		}
		if rule.District == district {
			selected = append(selected, rule)
		}
	}
	return selected
}

// SelectGoals returns the goals whose trigger matches the property context
// or project description, ordered by goal number.
func SelectGoals(goals []models.StatewideGoal, pctx models.PropertyContext, description string) []models.StatewideGoal {
	text := strings.ToLower(description)
	zone := pctx.ZoneCode()

	selected := make([]models.StatewideGoal, 0, len(goals))
	for _, goal := range goals {
		if triggered(goal.Trigger, pctx, zone, text) {
			selected = append(selected, goal)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Number < selected[j].Number })
	return selected
}

// GoalApplies reports whether a single goal is triggered.
func GoalApplies(goal models.StatewideGoal, pctx models.PropertyContext, description string) bool {
	return triggered(goal.Trigger, pctx, pctx.ZoneCode(), strings.ToLower(description))
}

func triggered(t models.GoalTrigger, pctx models.PropertyContext, zone, text string) bool {
	switch {
	case t.Always:
		return true
	case t.Floodplain && pctx.InFloodplain:
		return true
	case t.Riparian && pctx.RiparianOverlay:
		return true
	case t.UrbanGrowthBoundary && pctx.WithinUrbanGrowthBoundary():
		return true
	}

	if zone != "" {
		for _, pattern := range t.ZonePatterns {
			if pattern != "" && strings.Contains(zone, strings.ToUpper(pattern)) {
				return true
			}
		}
	}

	if text != "" {
		for _, kw := range t.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}
