// Package seed loads the reference data a jurisdiction needs: properties,
// permit types, zoning rules and the statewide planning goals.
package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/stwalsh4118/permits/api/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed shady_cove.yaml
var defaultSeed []byte

// RequirementPriority is the priority assigned to generated goal requirements.
const RequirementPriority = "MEDIUM"

// Data is a validated reference data set.
type Data struct {
	Requirements map[int64][]models.GoalRequirement
	Jurisdiction string
	Properties   []models.Property
	PermitTypes  []models.PermitType
	Rules        []*models.ZoningRule
	Goals        []models.StatewideGoal
}

type document struct {
	Jurisdiction string                 `yaml:"jurisdiction"`
	Properties   []models.Property      `yaml:"properties"`
	PermitTypes  []models.PermitType    `yaml:"permit_types"`
	ZoningRules  []ruleDocument         `yaml:"zoning_rules"`
	Goals        []models.StatewideGoal `yaml:"goals"`
}

type ruleDocument struct {
	Parameters  map[string]any `yaml:"parameters"`
	District    string         `yaml:"district"`
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	ID          int64          `yaml:"id"`
	Active      bool           `yaml:"active"`
}

// Default returns the embedded City of Shady Cove data set.
func Default() (*Data, error) {
	return Load(bytes.NewReader(defaultSeed))
}

// LoadFile reads a seed document from path.
func LoadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes and validates a seed document.
func Load(r io.Reader) (*Data, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode seed document: %w", err)
	}

	data := &Data{
		Jurisdiction: doc.Jurisdiction,
		Properties:   doc.Properties,
		PermitTypes:  doc.PermitTypes,
		Requirements: make(map[int64][]models.GoalRequirement),
	}

	if err := validateProperties(data.Properties); err != nil {
		return nil, err
	}
	if err := validatePermitTypes(data.PermitTypes); err != nil {
		return nil, err
	}

	rules, err := buildRules(doc.ZoningRules)
	if err != nil {
		return nil, err
	}
	data.Rules = rules

	goals, err := buildGoals(doc.Goals)
	if err != nil {
		return nil, err
	}
	data.Goals = goals

	var reqID int64
	for _, g := range goals {
		for _, text := range g.Requirements {
			reqID++
			data.Requirements[g.ID] = append(data.Requirements[g.ID], NewGoalRequirement(reqID, g.ID, text))
		}
	}

	return data, nil
}

// NewGoalRequirement derives the checkable requirement for one goal requirement text.
func NewGoalRequirement(id, goalID int64, text string) models.GoalRequirement {
	return models.GoalRequirement{
		ID:       id,
		GoalID:   goalID,
		Type:     "GENERAL",
		Text:     text,
		Criteria: fmt.Sprintf("Ensure %s is addressed in project planning", strings.ToLower(text)),
		Priority: RequirementPriority,
	}
}

func validateProperties(props []models.Property) error {
	seen := make(map[int64]bool, len(props))
	for i := range props {
		p := &props[i]
		if p.ID <= 0 {
			return fmt.Errorf("property %q: id must be positive", p.Address)
		}
		if seen[p.ID] {
			return fmt.Errorf("property %d: duplicate id", p.ID)
		}
		seen[p.ID] = true
		if strings.TrimSpace(p.Address) == "" || strings.TrimSpace(p.TaxLot) == "" {
			return fmt.Errorf("property %d: address and tax lot are required", p.ID)
		}
		if p.Acres < 0 {
			return fmt.Errorf("property %d: acres must be non-negative", p.ID)
		}
		p.Zoning = strings.ToUpper(strings.TrimSpace(p.Zoning))
	}
	return nil
}

func validatePermitTypes(types []models.PermitType) error {
	seenID := make(map[int64]bool, len(types))
	seenCode := make(map[models.PermitCode]bool, len(types))
	for i := range types {
		pt := &types[i]
		code, err := models.ParsePermitCode(string(pt.Code))
		if err != nil {
			return fmt.Errorf("permit type %d: %w", pt.ID, err)
		}
		pt.Code = code
		if seenID[pt.ID] || seenCode[code] {
			return fmt.Errorf("permit type %d (%s): duplicate id or code", pt.ID, code)
		}
		seenID[pt.ID] = true
		seenCode[code] = true
		if pt.BaseFee < 0 || pt.PerSquareFootFee < 0 || pt.PerUnitFee < 0 {
			return fmt.Errorf("permit type %s: fees must be non-negative", code)
		}
	}
	return nil
}

func buildRules(docs []ruleDocument) ([]*models.ZoningRule, error) {
	rules := make([]*models.ZoningRule, 0, len(docs))
	active := make(map[string]int64)
	for _, d := range docs {
		rule, err := models.NewZoningRule(d.ID, d.District, d.Type, d.Parameters, d.Active)
		if err != nil {
			return nil, err
		}
		rule.Description = d.Description

		if rule.Active {
			key := RuleKey(rule)
			if other, dup := active[key]; dup {
				return nil, fmt.Errorf("zoning rules %d and %d: more than one active %s rule for district %s",
					other, rule.ID, rule.Type, rule.District)
			}
			active[key] = rule.ID
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// RuleKey identifies the (district, kind) slot a rule occupies. Noted rules
// are keyed by their stored type since each is a distinct kind of standard.
func RuleKey(rule *models.ZoningRule) string {
	kind := string(rule.Kind)
	if rule.Kind == models.RuleNoted {
		kind = rule.Type
	}
	return rule.District + "/" + kind
}

func buildGoals(goals []models.StatewideGoal) ([]models.StatewideGoal, error) {
	seen := make(map[int]bool, len(goals))
	for i := range goals {
		g := &goals[i]
		if g.Number < 1 || g.Number > 19 {
			return nil, fmt.Errorf("goal %q: number %d is outside 1-19", g.Title, g.Number)
		}
		if seen[g.Number] {
			return nil, fmt.Errorf("goal %d: duplicate number", g.Number)
		}
		seen[g.Number] = true
		if g.ID == 0 {
			g.ID = int64(g.Number)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].Number < goals[j].Number })
	return goals, nil
}
