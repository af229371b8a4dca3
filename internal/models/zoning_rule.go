package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// RuleKind is the closed set of zoning rule kinds the evaluator understands.
// Any other kind loads as RuleNoted and is recorded without a numeric check.
type RuleKind string

const (
	RuleSetback     RuleKind = "setback"
	RuleHeightLimit RuleKind = "height_limit"
	RuleLotCoverage RuleKind = "lot_coverage"
	RuleNoted       RuleKind = "noted"
)

// ruleKindAliases maps stored spellings onto canonical kinds.
var ruleKindAliases = map[string]RuleKind{
	"setback":      RuleSetback,
	"setbacks":     RuleSetback,
	"height":       RuleHeightLimit,
	"height_limit": RuleHeightLimit,
	"coverage":     RuleLotCoverage,
	"lot_coverage": RuleLotCoverage,
}

// NormalizeRuleKind resolves a stored rule type to its canonical kind.
// Unknown types map to RuleNoted.
func NormalizeRuleKind(raw string) RuleKind {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "_")
	if kind, ok := ruleKindAliases[key]; ok {
		return kind
	}
	return RuleNoted
}

// RuleParams is the typed parameter set for one rule kind.
type RuleParams interface {
	Kind() RuleKind
	// Map renders the parameters in their stored form.
	Map() map[string]any
}

// SetbackParams holds minimum distances in feet. Nil sides are not regulated.
type SetbackParams struct {
	Front *float64
	Rear  *float64
	Side  *float64
}

func (SetbackParams) Kind() RuleKind { return RuleSetback }

func (p SetbackParams) Map() map[string]any {
	m := map[string]any{}
	if p.Front != nil {
		m["front"] = *p.Front
	}
	if p.Rear != nil {
		m["rear"] = *p.Rear
	}
	if p.Side != nil {
		m["side"] = *p.Side
	}
	return m
}

// HeightLimitParams caps building height.
type HeightLimitParams struct {
	MaxStories *int
	MaxFeet    float64
}

func (HeightLimitParams) Kind() RuleKind { return RuleHeightLimit }

func (p HeightLimitParams) Map() map[string]any {
	m := map[string]any{"max_feet": p.MaxFeet}
	if p.MaxStories != nil {
		m["max_stories"] = *p.MaxStories
	}
	return m
}

// CoverageParams caps the share of the lot covered by structures.
type CoverageParams struct {
	MaxPercentage float64
}

func (CoverageParams) Kind() RuleKind { return RuleLotCoverage }

func (p CoverageParams) Map() map[string]any {
	return map[string]any{"max_percentage": p.MaxPercentage}
}

// NotedParams keeps a rule the evaluator has no checker for.
type NotedParams struct {
	Values map[string]any
	Type   string
}

func (NotedParams) Kind() RuleKind { return RuleNoted }

func (p NotedParams) Map() map[string]any {
	if p.Values == nil {
		return map[string]any{}
	}
	return p.Values
}

// ZoningRule is one dimensional standard for a zoning district.
type ZoningRule struct {
	Params      RuleParams
	District    string
	Kind        RuleKind
	Type        string
	Name        string
	Description string
	ID          int64
	Active      bool
}

// zoningRuleJSON is the wire shape of a ZoningRule.
type zoningRuleJSON struct {
	Parameters  map[string]any `json:"parameters"`
	District    string         `json:"district"`
	Kind        RuleKind       `json:"kind"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ID          int64          `json:"id"`
	Active      bool           `json:"active"`
}

// MarshalJSON renders typed parameters as a plain object.
func (r ZoningRule) MarshalJSON() ([]byte, error) {
	out := zoningRuleJSON{
		ID:          r.ID,
		District:    r.District,
		Kind:        r.Kind,
		Type:        r.Type,
		Name:        r.Name,
		Description: r.Description,
		Active:      r.Active,
		Parameters:  map[string]any{},
	}
	if r.Params != nil {
		out.Parameters = r.Params.Map()
	}
	return json.Marshal(out)
}

// NewZoningRule builds a rule from its stored form, validating parameters.
func NewZoningRule(id int64, district, ruleType string, raw map[string]any, active bool) (*ZoningRule, error) {
	district = strings.ToUpper(strings.TrimSpace(district))
	if district == "" {
		return nil, fmt.Errorf("zoning rule %d: district is required", id)
	}

	params, err := ParseRuleParams(ruleType, raw)
	if err != nil {
		return nil, fmt.Errorf("zoning rule %d (%s %s): %w", id, district, ruleType, err)
	}

	return &ZoningRule{
		ID:       id,
		District: district,
		Kind:     params.Kind(),
		Type:     strings.ToLower(strings.TrimSpace(ruleType)),
		Name:     ruleName(params, ruleType),
		Active:   active,
		Params:   params,
	}, nil
}

// ParseRuleParams converts a stored parameter bag into typed parameters.
func ParseRuleParams(ruleType string, raw map[string]any) (RuleParams, error) {
	switch NormalizeRuleKind(ruleType) {
	case RuleSetback:
		var p SetbackParams
		var err error
		if p.Front, err = optionalNonNegative(raw, "front"); err != nil {
			return nil, err
		}
		if p.Rear, err = optionalNonNegative(raw, "rear"); err != nil {
			return nil, err
		}
		if p.Side, err = optionalNonNegative(raw, "side"); err != nil {
			return nil, err
		}
		if p.Front == nil && p.Rear == nil && p.Side == nil {
			return nil, fmt.Errorf("setback needs at least one of front, rear, side")
		}
		return p, nil

	case RuleHeightLimit:
		maxFeet, err := optionalNonNegative(raw, "max_feet")
		if err != nil {
			return nil, err
		}
		if maxFeet == nil || *maxFeet == 0 {
			return nil, fmt.Errorf("height limit needs a positive max_feet")
		}
		p := HeightLimitParams{MaxFeet: *maxFeet}
		stories, err := optionalNonNegative(raw, "max_stories")
		if err != nil {
			return nil, err
		}
		if stories != nil {
			n := int(*stories)
			p.MaxStories = &n
		}
		return p, nil

	case RuleLotCoverage:
		pct, err := optionalNonNegative(raw, "max_percentage")
		if err != nil {
			return nil, err
		}
		if pct == nil || *pct == 0 || *pct > 100 {
			return nil, fmt.Errorf("lot coverage needs max_percentage in (0, 100]")
		}
		return CoverageParams{MaxPercentage: *pct}, nil

	case RuleNoted:
		values := make(map[string]any, len(raw))
		for k, v := range raw {
			values[k] = v
		}
		return NotedParams{Type: strings.ToLower(strings.TrimSpace(ruleType)), Values: values}, nil
	}
	return nil, fmt.Errorf("unhandled rule type %q", ruleType)
}

func ruleName(params RuleParams, ruleType string) string {
	switch params.(type) {
	case SetbackParams:
		return "Setback Requirements"
	case HeightLimitParams:
		return "Height Limit"
	case CoverageParams:
		return "Lot Coverage Limit"
	}
	return titleCase(strings.ReplaceAll(strings.TrimSpace(ruleType), "_", " "))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// optionalNonNegative reads a numeric parameter that may be absent.
func optionalNonNegative(raw map[string]any, key string) (*float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%s must be a non-negative number, got %v", key, v)
	}
	return &f, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
