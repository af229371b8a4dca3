package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/seed"
)

// SeedCounts reports how many rows of each kind a seed run wrote.
type SeedCounts struct {
	Properties   int
	PermitTypes  int
	Rules        int
	Goals        int
	Requirements int
}

// SeedPostgres upserts a reference data set in one transaction. Rows are
// keyed by their seed ids, so running it twice leaves the tables unchanged.
func SeedPostgres(ctx context.Context, db *database.Database, data *seed.Data) (SeedCounts, error) {
	var counts SeedCounts

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, p := range data.Properties {
		_, err := tx.Exec(ctx, `
			INSERT INTO properties
				(id, address, tax_lot, zoning, acres, latitude, longitude,
				 in_floodplain, riparian_overlay, in_urban_growth_boundary)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				address = EXCLUDED.address,
				tax_lot = EXCLUDED.tax_lot,
				zoning = EXCLUDED.zoning,
				acres = EXCLUDED.acres,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				in_floodplain = EXCLUDED.in_floodplain,
				riparian_overlay = EXCLUDED.riparian_overlay,
				in_urban_growth_boundary = EXCLUDED.in_urban_growth_boundary`,
			p.ID, p.Address, p.TaxLot, p.Zoning, p.Acres, p.Latitude, p.Longitude,
			p.InFloodplain, p.RiparianOverlay, p.InUrbanGrowthBoundary,
		)
		if err != nil {
			return counts, fmt.Errorf("failed to seed property %d: %w", p.ID, err)
		}
		counts.Properties++
	}

	for _, pt := range data.PermitTypes {
		_, err := tx.Exec(ctx, `
			INSERT INTO permit_types
				(id, code, name, description, base_fee, per_square_foot_fee, per_unit_fee,
				 requires_public_notice, requires_public_hearing, standard_review_days,
				 can_auto_approve, active, review_time, requirements, required_documents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code,
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				base_fee = EXCLUDED.base_fee,
				per_square_foot_fee = EXCLUDED.per_square_foot_fee,
				per_unit_fee = EXCLUDED.per_unit_fee,
				requires_public_notice = EXCLUDED.requires_public_notice,
				requires_public_hearing = EXCLUDED.requires_public_hearing,
				standard_review_days = EXCLUDED.standard_review_days,
				can_auto_approve = EXCLUDED.can_auto_approve,
				active = EXCLUDED.active,
				review_time = EXCLUDED.review_time,
				requirements = EXCLUDED.requirements,
				required_documents = EXCLUDED.required_documents`,
			pt.ID, string(pt.Code), pt.Name, pt.Description, pt.BaseFee, pt.PerSquareFootFee, pt.PerUnitFee,
			pt.RequiresPublicNotice, pt.RequiresPublicHearing, pt.StandardReviewDays,
			pt.CanAutoApprove, pt.Active, pt.ReviewTime, nonNil(pt.Requirements), nonNil(pt.RequiredDocuments),
		)
		if err != nil {
			return counts, fmt.Errorf("failed to seed permit type %s: %w", pt.Code, err)
		}
		counts.PermitTypes++
	}

	for _, rule := range data.Rules {
		if err := seedRule(ctx, tx, rule); err != nil {
			return counts, err
		}
		counts.Rules++
	}

	for _, g := range data.Goals {
		trigger, err := json.Marshal(g.Trigger)
		if err != nil {
			return counts, fmt.Errorf("failed to encode trigger for goal %d: %w", g.Number, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO statewide_goals (id, goal_number, title, description, requirements, trigger)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				goal_number = EXCLUDED.goal_number,
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				requirements = EXCLUDED.requirements,
				trigger = EXCLUDED.trigger`,
			g.ID, g.Number, g.Title, g.Description, nonNil(g.Requirements), trigger,
		)
		if err != nil {
			return counts, fmt.Errorf("failed to seed goal %d: %w", g.Number, err)
		}
		counts.Goals++

		for _, req := range data.Requirements[g.ID] {
			_, err := tx.Exec(ctx, `
				INSERT INTO goal_requirements
					(id, goal_id, requirement_type, requirement_text, compliance_criteria, priority)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET
					goal_id = EXCLUDED.goal_id,
					requirement_type = EXCLUDED.requirement_type,
					requirement_text = EXCLUDED.requirement_text,
					compliance_criteria = EXCLUDED.compliance_criteria,
					priority = EXCLUDED.priority`,
				req.ID, req.GoalID, req.Type, req.Text, req.Criteria, req.Priority,
			)
			if err != nil {
				return counts, fmt.Errorf("failed to seed requirement %d of goal %d: %w", req.ID, g.Number, err)
			}
			counts.Requirements++
		}
	}

	// Explicit ids leave the serial sequences behind.
	for _, table := range []string{"properties", "permit_types", "zoning_rules", "statewide_goals", "goal_requirements"} {
		q := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST((SELECT MAX(id) FROM %s), 1))`, table, table)
		if _, err := tx.Exec(ctx, q); err != nil {
			return counts, fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return counts, fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return counts, nil
}

func seedRule(ctx context.Context, tx pgx.Tx, rule *models.ZoningRule) error {
	params, err := json.Marshal(rule.Params.Map())
	if err != nil {
		return fmt.Errorf("failed to encode parameters for rule %d: %w", rule.ID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO zoning_rules (id, district, rule_type, description, parameters, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			district = EXCLUDED.district,
			rule_type = EXCLUDED.rule_type,
			description = EXCLUDED.description,
			parameters = EXCLUDED.parameters,
			active = EXCLUDED.active`,
		rule.ID, rule.District, storedRuleType(rule), rule.Description, params, rule.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to seed zoning rule %d: %w", rule.ID, err)
	}
	return nil
}

// storedRuleType writes the canonical kind for known kinds so aliases in the
// seed cannot occupy two slots of the active-rule index.
func storedRuleType(rule *models.ZoningRule) string {
	if rule.Kind == models.RuleNoted {
		return rule.Type
	}
	return string(rule.Kind)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
