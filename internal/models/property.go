package models

import (
	"strings"
	"time"
)

// Property is a tax lot in the city's property registry.
// It is reference data: compliance checks and applications refer to it by ID.
type Property struct {
	CreatedAt             time.Time `json:"createdAt" yaml:"-"`
	Latitude              *float64  `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude             *float64  `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	InUrbanGrowthBoundary *bool     `json:"inUrbanGrowthBoundary,omitempty" yaml:"in_urban_growth_boundary,omitempty"`
	Address               string    `json:"address" yaml:"address"`
	TaxLot                string    `json:"taxLot" yaml:"tax_lot"`
	Zoning                string    `json:"zoning" yaml:"zoning"`
	Acres                 float64   `json:"acres" yaml:"acres"`
	ID                    int64     `json:"id" yaml:"id"`
	InFloodplain          bool      `json:"inFloodplain" yaml:"in_floodplain"`
	RiparianOverlay       bool      `json:"riparianOverlay" yaml:"riparian_overlay"`
}

// LotSquareFeet returns the lot area in square feet.
func (p *Property) LotSquareFeet() float64 {
	return p.Acres * SquareFeetPerAcre
}

// Context returns the subset of the property the goal selector needs.
func (p *Property) Context() PropertyContext {
	return PropertyContext{
		Zoning:                p.Zoning,
		Acres:                 p.Acres,
		InFloodplain:          p.InFloodplain,
		RiparianOverlay:       p.RiparianOverlay,
		InUrbanGrowthBoundary: p.InUrbanGrowthBoundary,
	}
}

// SquareFeetPerAcre converts lot acreage to square feet.
const SquareFeetPerAcre = 43560.0

// PropertyContext carries overlay flags and zoning for goal applicability.
// A zero value is an "empty" context: no zone, no overlays, UGB unspecified.
type PropertyContext struct {
	InUrbanGrowthBoundary *bool   `json:"in_urban_growth_boundary,omitempty" yaml:"in_urban_growth_boundary,omitempty"`
	Zoning                string  `json:"zoning,omitempty" yaml:"zoning,omitempty"`
	Acres                 float64 `json:"acres,omitempty" yaml:"acres,omitempty"`
	InFloodplain          bool    `json:"in_floodplain" yaml:"in_floodplain"`
	RiparianOverlay       bool    `json:"riparian_overlay" yaml:"riparian_overlay"`
}

// WithinUrbanGrowthBoundary treats an unspecified boundary flag as inside.
func (c PropertyContext) WithinUrbanGrowthBoundary() bool {
	if c.InUrbanGrowthBoundary == nil {
		return true
	}
	return *c.InUrbanGrowthBoundary
}

// ZoneCode returns the upper-cased, trimmed zoning code.
func (c PropertyContext) ZoneCode() string {
	return strings.ToUpper(strings.TrimSpace(c.Zoning))
}
