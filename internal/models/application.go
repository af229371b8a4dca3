package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationStatus is the review state of a permit application.
type ApplicationStatus string

const (
	ApplicationDraft                  ApplicationStatus = "DRAFT"
	ApplicationSubmitted              ApplicationStatus = "SUBMITTED"
	ApplicationIncomplete             ApplicationStatus = "INCOMPLETE"
	ApplicationUnderReview            ApplicationStatus = "UNDER_REVIEW"
	ApplicationApproved               ApplicationStatus = "APPROVED"
	ApplicationApprovedWithConditions ApplicationStatus = "APPROVED_WITH_CONDITIONS"
	ApplicationDenied                 ApplicationStatus = "DENIED"
	ApplicationWithdrawn              ApplicationStatus = "WITHDRAWN"
)

var applicationStatuses = map[ApplicationStatus]bool{
	ApplicationDraft:                  true,
	ApplicationSubmitted:              true,
	ApplicationIncomplete:             true,
	ApplicationUnderReview:            true,
	ApplicationApproved:               true,
	ApplicationApprovedWithConditions: true,
	ApplicationDenied:                 true,
	ApplicationWithdrawn:              true,
}

// ParseApplicationStatus parses s case-insensitively.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	status := ApplicationStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !applicationStatuses[status] {
		return "", fmt.Errorf("unknown application status %q", s)
	}
	return status, nil
}

// Active reports whether the application is waiting on staff.
func (s ApplicationStatus) Active() bool {
	return s == ApplicationSubmitted || s == ApplicationUnderReview
}

// Decided reports whether review has ended in a decision.
func (s ApplicationStatus) Decided() bool {
	return s == ApplicationApproved || s == ApplicationApprovedWithConditions || s == ApplicationDenied
}

// Applicant identifies who filed an application.
type Applicant struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"max=20"`
}

// Application is a permit request for one property under one permit type.
// CalculatedFee is quoted when the application is created. ComplianceCheckIDs
// lists the reports run for it, oldest first.
type Application struct {
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
	SubmittedAt        *time.Time        `json:"submittedAt,omitempty"`
	ReviewCompletedAt  *time.Time        `json:"reviewCompletedAt,omitempty"`
	Applicant          Applicant         `json:"applicant"`
	Details            ProjectDetails    `json:"projectDetails"`
	ComplianceIssues   []string          `json:"complianceIssues"`
	ComplianceCheckIDs []uuid.UUID       `json:"complianceCheckIds"`
	Status             ApplicationStatus `json:"status"`
	ReviewNotes        string            `json:"reviewNotes,omitempty"`
	CalculatedFee      decimal.Decimal   `json:"calculatedFee"`
	PropertyID         int64             `json:"propertyId"`
	PermitTypeID       int64             `json:"permitTypeId"`
	ID                 uuid.UUID         `json:"id"`
	FeePaid            bool              `json:"feePaid"`
	CompliancePassed   bool              `json:"complianceCheckPassed"`
}

// ApplicationPage is one page of a filtered application listing.
type ApplicationPage struct {
	Applications []Application     `json:"applications"`
	Status       ApplicationStatus `json:"status,omitempty"`
	Total        int               `json:"total"`
	Page         int               `json:"page"`
	PageSize     int               `json:"pageSize"`
}

// PermitTypeCount is the number of applications filed under a permit type.
type PermitTypeCount struct {
	PermitType   string `json:"permitType,omitempty"`
	PermitTypeID int64  `json:"permitTypeId"`
	Count        int    `json:"count"`
}

// ApplicationStats feeds the staff dashboard. Windowed figures cover the
// period starting at Since.
type ApplicationStats struct {
	Since              time.Time         `json:"since"`
	ByPermitType       []PermitTypeCount `json:"permitBreakdown"`
	FeesCollected      decimal.Decimal   `json:"feesCollected"`
	TotalApplications  int               `json:"totalApplications"`
	ActiveApplications int               `json:"activeApplications"`
	RecentlyApproved   int               `json:"recentlyApproved"`
	AutoApproved       int               `json:"autoApproved"`
	NeedsReview        int               `json:"needsReview"`
}
