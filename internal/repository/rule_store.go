package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/models"
)

// ruleStore is the PostgreSQL implementation of RuleStore.
type ruleStore struct {
	db *database.Database
}

// NewRuleStore creates a RuleStore backed by PostgreSQL.
func NewRuleStore(db *database.Database) RuleStore {
	return &ruleStore{db: db}
}

// RulesForDistrict parses each row's parameters as it is read, so a bad
// parameter bag surfaces as an error here rather than during evaluation.
func (s *ruleStore) RulesForDistrict(ctx context.Context, district string) ([]*models.ZoningRule, error) {
	query := `
		SELECT id, district, rule_type, description, parameters, active
		FROM zoning_rules
		WHERE district = $1 AND active
		ORDER BY id`

	district = strings.ToUpper(strings.TrimSpace(district))
	rows, err := s.db.Pool.Query(ctx, query, district)
	if err != nil {
		return nil, fmt.Errorf("failed to query zoning rules for %s: %w", district, err)
	}
	defer rows.Close()

	rules := []*models.ZoningRule{}
	for rows.Next() {
		var (
			id          int64
			dist        string
			ruleType    string
			description string
			raw         []byte
			active      bool
		)
		if err := rows.Scan(&id, &dist, &ruleType, &description, &raw, &active); err != nil {
			return nil, fmt.Errorf("failed to scan zoning rule row: %w", err)
		}

		params := map[string]any{}
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("zoning rule %d: invalid parameters: %w", id, err)
		}

		rule, err := models.NewZoningRule(id, dist, ruleType, params, active)
		if err != nil {
			return nil, err
		}
		rule.Description = description
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zoning rule rows: %w", err)
	}
	return rules, nil
}

func (s *ruleStore) AllGoals(ctx context.Context) ([]models.StatewideGoal, error) {
	query := `
		SELECT id, goal_number, title, description, requirements, trigger
		FROM statewide_goals
		ORDER BY goal_number`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query statewide goals: %w", err)
	}
	defer rows.Close()

	goals := []models.StatewideGoal{}
	for rows.Next() {
		var g models.StatewideGoal
		var trigger []byte
		if err := rows.Scan(&g.ID, &g.Number, &g.Title, &g.Description, &g.Requirements, &trigger); err != nil {
			return nil, fmt.Errorf("failed to scan statewide goal row: %w", err)
		}
		if err := json.Unmarshal(trigger, &g.Trigger); err != nil {
			return nil, fmt.Errorf("goal %d: invalid trigger: %w", g.Number, err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statewide goal rows: %w", err)
	}
	return goals, nil
}

func (s *ruleStore) RequirementsForGoal(ctx context.Context, goalID int64) ([]models.GoalRequirement, error) {
	query := `
		SELECT id, goal_id, requirement_type, requirement_text, compliance_criteria, priority
		FROM goal_requirements
		WHERE goal_id = $1
		ORDER BY id`

	rows, err := s.db.Pool.Query(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query requirements for goal %d: %w", goalID, err)
	}
	defer rows.Close()

	reqs := []models.GoalRequirement{}
	for rows.Next() {
		var r models.GoalRequirement
		if err := rows.Scan(&r.ID, &r.GoalID, &r.Type, &r.Text, &r.Criteria, &r.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan goal requirement row: %w", err)
		}
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goal requirement rows: %w", err)
	}
	return reqs, nil
}
