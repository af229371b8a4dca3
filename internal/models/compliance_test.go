package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComplianceLevel(t *testing.T) {
	level, err := ParseComplianceLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelComprehensive, level)

	level, err = ParseComplianceLevel(" expert ")
	require.NoError(t, err)
	assert.Equal(t, LevelExpert, level)

	_, err = ParseComplianceLevel("THOROUGH")
	assert.Error(t, err)
}

func TestComplianceLevel_Includes(t *testing.T) {
	assert.True(t, LevelExpert.Includes(LevelBasic))
	assert.True(t, LevelStandard.Includes(LevelStandard))
	assert.False(t, LevelBasic.Includes(LevelStandard))
	assert.False(t, LevelComprehensive.Includes(LevelExpert))
}

func TestLevelStatus_Severity(t *testing.T) {
	assert.Less(t, StatusCompliant.Severity(), StatusNeedsReview.Severity())
	assert.Less(t, StatusNeedsReview.Severity(), StatusNonCompliant.Severity())
}

func TestPropertyContext_WithinUrbanGrowthBoundary(t *testing.T) {
	assert.True(t, PropertyContext{}.WithinUrbanGrowthBoundary())
	assert.True(t, PropertyContext{InUrbanGrowthBoundary: Bool(true)}.WithinUrbanGrowthBoundary())
	assert.False(t, PropertyContext{InUrbanGrowthBoundary: Bool(false)}.WithinUrbanGrowthBoundary())
}

func TestParsePermitCode(t *testing.T) {
	code, err := ParsePermitCode("adu")
	require.NoError(t, err)
	assert.Equal(t, PermitADU, code)

	_, err = ParsePermitCode("POOL")
	assert.Error(t, err)
}

func TestComplianceCheckRecord_RoundTripsReport(t *testing.T) {
	report := &ComplianceReport{
		ID:            uuid.New(),
		CheckedAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Property:      ReportProperty{ID: 1, Address: "123 Main Street"},
		Permit:        PermitSummary{ID: 2, Code: PermitDeck, Name: "Deck/Patio"},
		Level:         LevelBasic,
		OverallStatus: OverallApproved,
	}

	record, err := NewComplianceCheckRecord(report)
	require.NoError(t, err)
	assert.Equal(t, report.ID, record.ID)
	assert.Equal(t, int64(1), record.PropertyID)
	assert.Equal(t, int64(2), record.PermitTypeID)

	decoded, err := record.DecodeReport()
	require.NoError(t, err)
	assert.Equal(t, report.Property.Address, decoded.Property.Address)
	assert.Equal(t, report.OverallStatus, decoded.OverallStatus)
}
