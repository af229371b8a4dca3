package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ComplianceLevel selects how deep a compliance check goes. Each level
// includes every check of the levels before it.
type ComplianceLevel string

const (
	LevelBasic         ComplianceLevel = "BASIC"
	LevelStandard      ComplianceLevel = "STANDARD"
	LevelComprehensive ComplianceLevel = "COMPREHENSIVE"
	LevelExpert        ComplianceLevel = "EXPERT"
)

var levelRank = map[ComplianceLevel]int{
	LevelBasic:         1,
	LevelStandard:      2,
	LevelComprehensive: 3,
	LevelExpert:        4,
}

// ParseComplianceLevel parses s case-insensitively. Empty means COMPREHENSIVE.
func ParseComplianceLevel(s string) (ComplianceLevel, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return LevelComprehensive, nil
	}
	level := ComplianceLevel(s)
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("unknown compliance level %q", s)
	}
	return level, nil
}

// Includes reports whether a check at level l performs the checks of other.
func (l ComplianceLevel) Includes(other ComplianceLevel) bool {
	return levelRank[l] >= levelRank[other]
}

// Outcome is the tri-state result of one check.
type Outcome string

const (
	OutcomePass    Outcome = "PASS"
	OutcomeFail    Outcome = "FAIL"
	OutcomeWarning Outcome = "WARNING"
)

// Category groups verdicts for reporting.
type Category string

const (
	CategoryZoning        Category = "zoning"
	CategoryPermit        Category = "permit"
	CategoryBuildingCode  Category = "building_code"
	CategoryUtilities     Category = "utilities"
	CategoryAccess        Category = "access"
	CategoryEnvironmental Category = "environmental"
)

// LevelStatus summarizes one level of a report or one statewide goal.
type LevelStatus string

const (
	StatusCompliant    LevelStatus = "COMPLIANT"
	StatusNeedsReview  LevelStatus = "NEEDS_REVIEW"
	StatusNonCompliant LevelStatus = "NON_COMPLIANT"
)

// Severity orders level statuses from best to worst.
func (s LevelStatus) Severity() int {
	switch s {
	case StatusCompliant:
		return 0
	case StatusNeedsReview:
		return 1
	case StatusNonCompliant:
		return 2
	}
	return -1
}

// OverallStatus is the decision for a whole compliance check.
type OverallStatus string

const (
	OverallApproved               OverallStatus = "APPROVED"
	OverallApprovedWithConditions OverallStatus = "APPROVED_WITH_CONDITIONS"
	OverallNeedsReview            OverallStatus = "NEEDS_REVIEW"
	OverallDenied                 OverallStatus = "DENIED"
	OverallRejected               OverallStatus = "REJECTED"
)

// Verdict is the outcome of evaluating one rule or requirement.
// Compliant is false only for FAIL; warnings are compliant advisories.
type Verdict struct {
	RequiredValue *float64 `json:"requiredValue,omitempty"`
	ProvidedValue *float64 `json:"providedValue,omitempty"`
	RuleName      string   `json:"ruleName"`
	Category      Category `json:"category"`
	Required      string   `json:"required"`
	Provided      string   `json:"provided"`
	Outcome       Outcome  `json:"outcome"`
	Message       string   `json:"message"`
	RuleID        int64    `json:"ruleId,omitempty"`
	Compliant     bool     `json:"compliant"`
}

// LevelReport aggregates the verdicts of one compliance level.
type LevelReport struct {
	Verdicts         []Verdict        `json:"verdicts,omitempty"`
	Goals            []GoalEvaluation `json:"goals,omitempty"`
	Name             string           `json:"name"`
	ZoningDistrict   string           `json:"zoningDistrict,omitempty"`
	Status           LevelStatus      `json:"status"`
	Source           string           `json:"source,omitempty"`
	Error            string           `json:"error,omitempty"`
	FallbackAnalysis string           `json:"fallbackAnalysis,omitempty"`
	Checked          int              `json:"checked"`
	Violations       int              `json:"violations"`
	Warnings         int              `json:"warnings"`
	ComplianceRate   float64          `json:"complianceRate"`
	Degraded         bool             `json:"degraded"`
}

// ExpertAnalysis is the optional free-text review attached at EXPERT level.
type ExpertAnalysis struct {
	Text      string `json:"text,omitempty"`
	Model     string `json:"model,omitempty"`
	Error     string `json:"error,omitempty"`
	Available bool   `json:"available"`
	Degraded  bool   `json:"degraded"`
}

// RecommendationType classifies a recommendation.
type RecommendationType string

const (
	RecommendSetback   RecommendationType = "SETBACK_VIOLATION"
	RecommendHeight    RecommendationType = "HEIGHT_VIOLATION"
	RecommendCoverage  RecommendationType = "COVERAGE_VIOLATION"
	RecommendCode      RecommendationType = "CODE_VIOLATION"
	RecommendGoal      RecommendationType = "GOAL_VIOLATION"
	RecommendExpert    RecommendationType = "EXPERT_REVIEW"
	RecommendCompliant RecommendationType = "COMPLIANT"
)

// Recommendation is one actionable remediation step.
type Recommendation struct {
	Type       RecommendationType `json:"type"`
	Message    string             `json:"message"`
	Suggestion string             `json:"suggestion,omitempty"`
}

// ReportSummary holds the headline metrics of a report.
type ReportSummary struct {
	ZoningComplianceRate    *float64        `json:"zoningComplianceRate,omitempty"`
	ZoningViolations        *int            `json:"zoningViolations,omitempty"`
	StandardComplianceRate  *float64        `json:"standardComplianceRate,omitempty"`
	StandardViolations      *int            `json:"standardViolations,omitempty"`
	StatewideGoalsChecked   *int            `json:"statewideGoalsChecked,omitempty"`
	StatewideComplianceRate *float64        `json:"statewideComplianceRate,omitempty"`
	ComplianceLevel         ComplianceLevel `json:"complianceLevel"`
	OverallStatus           OverallStatus   `json:"overallStatus"`
	ChecksPerformed         int             `json:"checksPerformed"`
	WeightedViolations      int             `json:"weightedViolations"`
}

// ReportProperty is the property snapshot embedded in a report.
type ReportProperty struct {
	Address string          `json:"address"`
	TaxLot  string          `json:"taxLot"`
	Context PropertyContext `json:"context"`
	ID      int64           `json:"id"`
}

// ComplianceReport is the result of a multi-level compliance check.
type ComplianceReport struct {
	CheckedAt       time.Time        `json:"checkedAt"`
	Basic           *LevelReport     `json:"basicZoning,omitempty"`
	Standard        *LevelReport     `json:"standardCompliance,omitempty"`
	Statewide       *LevelReport     `json:"statewideCompliance,omitempty"`
	Expert          *ExpertAnalysis  `json:"expertAnalysis,omitempty"`
	Property        ReportProperty   `json:"property"`
	Permit          PermitSummary    `json:"permitType"`
	Details         ProjectDetails   `json:"projectDetails"`
	ChecksPerformed []string         `json:"checksPerformed"`
	Recommendations []Recommendation `json:"recommendations"`
	Level           ComplianceLevel  `json:"complianceLevel"`
	OverallStatus   OverallStatus    `json:"overallStatus"`
	Summary         ReportSummary    `json:"summary"`
	ID              uuid.UUID        `json:"id"`
	Persisted       bool             `json:"persisted"`
}

// DirectSummary holds the pass-rate metrics of a direct check.
type DirectSummary struct {
	OverallStatus  OverallStatus `json:"overallStatus"`
	TotalChecks    int           `json:"totalChecks"`
	PassedChecks   int           `json:"passedChecks"`
	FailedChecks   int           `json:"failedChecks"`
	ComplianceRate float64       `json:"complianceRate"`
}

// DirectCheckResult is the result of the single-level zoning and permit check.
type DirectCheckResult struct {
	Verdicts        []Verdict        `json:"verdicts"`
	Recommendations []Recommendation `json:"recommendations"`
	Property        ReportProperty   `json:"property"`
	Permit          PermitSummary    `json:"permitType"`
	Summary         DirectSummary    `json:"summary"`
	Error           string           `json:"error,omitempty"`
	// Degraded is set when zoning rules could not be loaded; only the
	// permit-specific checks ran.
	Degraded bool `json:"degraded"`
}

// ComplianceCheckRecord is the append-only audit row for one report.
type ComplianceCheckRecord struct {
	CreatedAt     time.Time       `json:"createdAt"`
	Report        json.RawMessage `json:"report"`
	Level         ComplianceLevel `json:"complianceLevel"`
	OverallStatus OverallStatus   `json:"overallStatus"`
	ID            uuid.UUID       `json:"id"`
	PropertyID    int64           `json:"propertyId"`
	PermitTypeID  int64           `json:"permitTypeId"`
}

// NewComplianceCheckRecord serializes report into an audit record.
func NewComplianceCheckRecord(report *ComplianceReport) (*ComplianceCheckRecord, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode compliance report %s: %w", report.ID, err)
	}
	return &ComplianceCheckRecord{
		ID:            report.ID,
		PropertyID:    report.Property.ID,
		PermitTypeID:  report.Permit.ID,
		Level:         report.Level,
		OverallStatus: report.OverallStatus,
		Report:        body,
		CreatedAt:     report.CheckedAt,
	}, nil
}

// DecodeReport restores the report stored in the record.
func (r *ComplianceCheckRecord) DecodeReport() (*ComplianceReport, error) {
	var report ComplianceReport
	if err := json.Unmarshal(r.Report, &report); err != nil {
		return nil, fmt.Errorf("failed to decode compliance report %s: %w", r.ID, err)
	}
	return &report, nil
}
