package models

import "strings"

// ProjectDetails is the per-check description of a proposed project.
// Numeric fields are optional; a nil field is "not provided".
type ProjectDetails struct {
	FrontSetback   *float64 `json:"front_setback,omitempty" yaml:"front_setback,omitempty" validate:"omitempty,gte=0"`
	RearSetback    *float64 `json:"rear_setback,omitempty" yaml:"rear_setback,omitempty" validate:"omitempty,gte=0"`
	SideSetback    *float64 `json:"side_setback,omitempty" yaml:"side_setback,omitempty" validate:"omitempty,gte=0"`
	BuildingHeight *float64 `json:"building_height,omitempty" yaml:"building_height,omitempty" validate:"omitempty,gte=0"`
	LotCoverage    *float64 `json:"lot_coverage,omitempty" yaml:"lot_coverage,omitempty" validate:"omitempty,gte=0,lte=100"`
	SquareFootage  *float64 `json:"square_footage,omitempty" yaml:"square_footage,omitempty" validate:"omitempty,gte=0"`
	ParkingSpaces  *float64 `json:"parking_spaces,omitempty" yaml:"parking_spaces,omitempty" validate:"omitempty,gte=0"`
	ProjectValue   *float64 `json:"project_value,omitempty" yaml:"project_value,omitempty" validate:"omitempty,gte=0"`
	// DeckHeight is in inches above grade.
	DeckHeight *float64 `json:"deck_height,omitempty" yaml:"deck_height,omitempty" validate:"omitempty,gte=0"`
	// FenceHeight is in feet.
	FenceHeight *float64 `json:"fence_height,omitempty" yaml:"fence_height,omitempty" validate:"omitempty,gte=0"`
	Units       *float64 `json:"units,omitempty" yaml:"units,omitempty" validate:"omitempty,gte=0"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" validate:"max=4000"`
}

// TrimmedDescription returns the description without surrounding whitespace.
func (d *ProjectDetails) TrimmedDescription() string {
	return strings.TrimSpace(d.Description)
}

// Float returns a pointer to v. It keeps literals in tests and seeds short.
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
