package compliance

import (
	"fmt"
	"math"

	"github.com/stwalsh4118/permits/api/internal/models"
)

// Permit-specific limits.
const (
	DeckRailingHeightInches = 30.0
	MaxFenceHeightFeet      = 6.0
	MaxADUSquareFeet        = 800.0

	// CommercialSquareFeetPerSpace is the floor area served by one parking
	// space in a commercial building.
	CommercialSquareFeetPerSpace = 250.0
	// DefaultCommercialSquareFeet is assumed when a commercial project omits
	// its floor area.
	DefaultCommercialSquareFeet = 1000.0
)

// StandardVerdicts runs the code, utility, permit, access and environmental
// checks for a permit on a property. It does not depend on zoning rules.
func StandardVerdicts(property *models.Property, code models.PermitCode, details *models.ProjectDetails) []models.Verdict {
	var verdicts []models.Verdict
	verdicts = append(verdicts, BuildingCodeVerdicts(code)...)
	verdicts = append(verdicts, UtilityVerdicts()...)
	verdicts = append(verdicts, PermitVerdicts(code, details)...)
	verdicts = append(verdicts, ParkingVerdict(code, details), streetAccess())
	verdicts = append(verdicts, EnvironmentalVerdicts(property.Context())...)
	return verdicts
}

// PermitVerdicts applies the checks specific to deck, fence and ADU permits.
// A verdict is emitted only when the project triggers the check: a deck high
// enough to need a railing, a fence over the height limit or an oversized
// ADU. Projects within those limits add nothing to the check count.
func PermitVerdicts(code models.PermitCode, d *models.ProjectDetails) []models.Verdict {
	switch code {
	case models.PermitDeck:
		if d.DeckHeight == nil || *d.DeckHeight <= DeckRailingHeightInches {
			return nil
		}
		h := *d.DeckHeight
		v := models.Verdict{
			RuleName:      "Deck Height Safety",
			Category:      models.CategoryPermit,
			Required:      fmt.Sprintf("Railing above %s in", number(DeckRailingHeightInches)),
			RequiredValue: models.Float(DeckRailingHeightInches),
			Provided:      number(h) + " in",
			ProvidedValue: models.Float(h),
			Message:       fmt.Sprintf("Deck railing required for heights over %s inches", number(DeckRailingHeightInches)),
		}
		warn(&v)
		return []models.Verdict{v}

	case models.PermitFence:
		if d.FenceHeight == nil || *d.FenceHeight <= MaxFenceHeightFeet {
			return nil
		}
		h := *d.FenceHeight
		v := models.Verdict{
			RuleName:      "Maximum Fence Height",
			Category:      models.CategoryPermit,
			Required:      "Max " + feet(MaxFenceHeightFeet),
			RequiredValue: models.Float(MaxFenceHeightFeet),
			Provided:      feet(h),
			ProvidedValue: models.Float(h),
			Message:       fmt.Sprintf("Maximum fence height %s, %s proposed", feet(MaxFenceHeightFeet), feet(h)),
		}
		fail(&v)
		return []models.Verdict{v}

	case models.PermitADU:
		if d.SquareFootage == nil || *d.SquareFootage <= MaxADUSquareFeet {
			return nil
		}
		size := *d.SquareFootage
		v := models.Verdict{
			RuleName:      "Maximum ADU Size",
			Category:      models.CategoryPermit,
			Required:      "Max " + number(MaxADUSquareFeet) + " sq ft",
			RequiredValue: models.Float(MaxADUSquareFeet),
			Provided:      number(size) + " sq ft",
			ProvidedValue: models.Float(size),
			Message:       fmt.Sprintf("Maximum ADU size %s sq ft, %s sq ft proposed", number(MaxADUSquareFeet), number(size)),
		}
		fail(&v)
		return []models.Verdict{v}
	}
	return nil
}

// RequiredParking returns the number of off-street spaces a permit needs.
func RequiredParking(code models.PermitCode, d *models.ProjectDetails) int {
	switch code {
	case models.PermitSingleFamily, models.PermitAddition:
		return 2
	case models.PermitADU:
		return 1
	case models.PermitCommercial:
		sqft := DefaultCommercialSquareFeet
		if d.SquareFootage != nil {
			sqft = *d.SquareFootage
		}
		return int(math.Ceil(sqft / CommercialSquareFeetPerSpace))
	}
	return 1
}

// ParkingVerdict compares provided parking with RequiredParking. A project
// that omits its parking is assumed to provide exactly what is required.
func ParkingVerdict(code models.PermitCode, d *models.ProjectDetails) models.Verdict {
	required := float64(RequiredParking(code, d))
	provided := required
	if d.ParkingSpaces != nil {
		provided = *d.ParkingSpaces
	}

	v := models.Verdict{
		RuleName:      "Parking Requirements",
		Category:      models.CategoryAccess,
		Required:      number(required) + " spaces",
		RequiredValue: models.Float(required),
		Provided:      number(provided) + " spaces",
		ProvidedValue: models.Float(provided),
	}
	if provided >= required {
		v.Message = "Parking meets requirement"
		pass(&v)
	} else {
		v.Message = fmt.Sprintf("Parking insufficient - Required: %s, Provided: %s", number(required), number(provided))
		fail(&v)
	}
	return v
}

// EnvironmentalVerdicts checks the floodplain and riparian overlays.
func EnvironmentalVerdicts(pctx models.PropertyContext) []models.Verdict {
	flood := models.Verdict{
		RuleName: "Floodplain Compliance",
		Category: models.CategoryEnvironmental,
		Required: "Floodplain development permit",
	}
	if pctx.InFloodplain {
		flood.Provided = "In floodplain"
		flood.Message = "Floodplain development permit required"
		fail(&flood)
	} else {
		flood.Provided = "Not in floodplain"
		flood.Message = "Property not in floodplain"
		pass(&flood)
	}

	verdicts := []models.Verdict{flood}
	if pctx.RiparianOverlay {
		riparian := models.Verdict{
			RuleName: "Riparian Protection",
			Category: models.CategoryEnvironmental,
			Required: "Riparian setback",
			Provided: "To be verified",
			Message:  "Riparian setback requirements to be verified",
		}
		warn(&riparian)
		verdicts = append(verdicts, riparian)
	}
	return verdicts
}

// BuildingCodeVerdicts lists the code items verified at plan review.
func BuildingCodeVerdicts(code models.PermitCode) []models.Verdict {
	var names []string
	switch code {
	case models.PermitSingleFamily, models.PermitAddition, models.PermitADU:
		names = []string{"Egress Requirements", "Fire Safety"}
	case models.PermitCommercial:
		names = []string{"ADA Compliance", "Commercial Fire Code"}
	}
	return advisories(models.CategoryBuildingCode, names)
}

// UtilityVerdicts lists the service connections verified at plan review.
func UtilityVerdicts() []models.Verdict {
	return advisories(models.CategoryUtilities, []string{"Water Service", "Sewer Service", "Electrical Service"})
}

func streetAccess() models.Verdict {
	return advisories(models.CategoryAccess, []string{"Street Access"})[0]
}

func advisories(category models.Category, names []string) []models.Verdict {
	verdicts := make([]models.Verdict, 0, len(names))
	for _, name := range names {
		v := models.Verdict{
			RuleName: name,
			Category: category,
			Required: "Per adopted code",
			Provided: "To be verified",
			Message:  name + " to be verified at plan review",
		}
		pass(&v)
		verdicts = append(verdicts, v)
	}
	return verdicts
}
