package models

import (
	"fmt"
	"strings"
)

// PermitCode identifies a permit type.
type PermitCode string

const (
	PermitSingleFamily PermitCode = "SFR"
	PermitAddition     PermitCode = "ADD"
	PermitDeck         PermitCode = "DECK"
	PermitFence        PermitCode = "FENCE"
	PermitADU          PermitCode = "ADU"
	PermitCommercial   PermitCode = "COM"
)

// ValidPermitCodes is the set of permit codes the city issues.
var ValidPermitCodes = map[PermitCode]bool{
	PermitSingleFamily: true,
	PermitAddition:     true,
	PermitDeck:         true,
	PermitFence:        true,
	PermitADU:          true,
	PermitCommercial:   true,
}

// ParsePermitCode normalizes s and checks it against ValidPermitCodes.
func ParsePermitCode(s string) (PermitCode, error) {
	code := PermitCode(strings.ToUpper(strings.TrimSpace(s)))
	if !ValidPermitCodes[code] {
		return "", fmt.Errorf("unknown permit code %q", s)
	}
	return code, nil
}

// PermitType is a kind of permit with its fee schedule and review policy.
type PermitType struct {
	Requirements          []string   `json:"requirements" yaml:"requirements"`
	RequiredDocuments     []string   `json:"requiredDocuments" yaml:"required_documents"`
	Code                  PermitCode `json:"code" yaml:"code"`
	Name                  string     `json:"name" yaml:"name"`
	Description           string     `json:"description" yaml:"description"`
	ReviewTime            string     `json:"reviewTime" yaml:"review_time"`
	BaseFee               float64    `json:"baseFee" yaml:"base_fee"`
	PerSquareFootFee      float64    `json:"perSquareFootFee" yaml:"per_square_foot_fee"`
	PerUnitFee            float64    `json:"perUnitFee" yaml:"per_unit_fee"`
	ID                    int64      `json:"id" yaml:"id"`
	StandardReviewDays    int        `json:"standardReviewDays" yaml:"standard_review_days"`
	RequiresPublicNotice  bool       `json:"requiresPublicNotice" yaml:"requires_public_notice"`
	RequiresPublicHearing bool       `json:"requiresPublicHearing" yaml:"requires_public_hearing"`
	CanAutoApprove        bool       `json:"canAutoApprove" yaml:"can_auto_approve"`
	Active                bool       `json:"active" yaml:"active"`
}

// Summary is the slice of a permit type embedded in compliance reports.
func (p *PermitType) Summary() PermitSummary {
	return PermitSummary{ID: p.ID, Code: p.Code, Name: p.Name}
}

// PermitSummary identifies a permit type inside a report.
type PermitSummary struct {
	Code PermitCode `json:"code"`
	Name string     `json:"name"`
	ID   int64      `json:"id"`
}

// PermitRequirements is the intake checklist for a permit type.
type PermitRequirements struct {
	Requirements          []string      `json:"requirements"`
	RequiredDocuments     []string      `json:"requiredDocuments"`
	ReviewTime            string        `json:"reviewTime"`
	Permit                PermitSummary `json:"permit"`
	StandardReviewDays    int           `json:"standardReviewDays"`
	RequiresPublicNotice  bool          `json:"requiresPublicNotice"`
	RequiresPublicHearing bool          `json:"requiresPublicHearing"`
	CanAutoApprove        bool          `json:"canAutoApprove"`
}
