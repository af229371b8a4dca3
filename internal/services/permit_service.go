package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/repository"
)

// Project value surcharge: a share of the value above a threshold.
var (
	ValueFeeThreshold = decimal.NewFromInt(10000)
	ValueFeeRate      = decimal.RequireFromString("0.005")
)

// PermitService defines the interface for permit type and fee operations.
type PermitService interface {
	// ListPermitTypes returns active permit types ordered by id.
	ListPermitTypes(ctx context.Context) ([]models.PermitType, error)

	// GetPermitType returns ErrPermitTypeNotFound if no permit type has the id.
	GetPermitType(ctx context.Context, id int64) (*models.PermitType, error)

	// GetRequirements returns the intake checklist of a permit type.
	GetRequirements(ctx context.Context, id int64) (*models.PermitRequirements, error)

	// CalculateFee quotes the fee for a project under a permit type.
	CalculateFee(ctx context.Context, id int64, details models.ProjectDetails) (*models.FeeQuote, error)
}

type permitService struct {
	repo repository.PermitTypeRepository
	log  *logger.Logger
}

// NewPermitService creates a new instance of PermitService.
func NewPermitService(repo repository.PermitTypeRepository, log *logger.Logger) PermitService {
	return &permitService{
		repo: repo,
		log:  log,
	}
}

func (s *permitService) ListPermitTypes(ctx context.Context) ([]models.PermitType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("Failed to list permit types", err, nil)
		return nil, fmt.Errorf("failed to list permit types: %w", err)
	}
	return types, nil
}

func (s *permitService) GetPermitType(ctx context.Context, id int64) (*models.PermitType, error) {
	if id <= 0 {
		return nil, invalid("permit_type_id", "must be a positive integer")
	}

	pt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to query permit type", err, map[string]interface{}{
			"permit_type_id": id,
		})
		return nil, fmt.Errorf("failed to query permit type: %w", err)
	}
	if pt == nil || !pt.Active {
		return nil, fmt.Errorf("%w: id %d", ErrPermitTypeNotFound, id)
	}
	return pt, nil
}

func (s *permitService) GetRequirements(ctx context.Context, id int64) (*models.PermitRequirements, error) {
	pt, err := s.GetPermitType(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.PermitRequirements{
		Permit:                pt.Summary(),
		Requirements:          nonNilStrings(pt.Requirements),
		RequiredDocuments:     nonNilStrings(pt.RequiredDocuments),
		ReviewTime:            pt.ReviewTime,
		StandardReviewDays:    pt.StandardReviewDays,
		RequiresPublicNotice:  pt.RequiresPublicNotice,
		RequiresPublicHearing: pt.RequiresPublicHearing,
		CanAutoApprove:        pt.CanAutoApprove,
	}, nil
}

func (s *permitService) CalculateFee(ctx context.Context, id int64, details models.ProjectDetails) (*models.FeeQuote, error) {
	if err := validateStruct(detailsValidator, details); err != nil {
		return nil, err
	}

	pt, err := s.GetPermitType(ctx, id)
	if err != nil {
		return nil, err
	}

	quote := QuoteFee(pt, details)
	s.log.Info("Fee calculated", map[string]interface{}{
		"permit_code": pt.Code,
		"total_fee":   quote.TotalFee.StringFixed(2),
	})
	return quote, nil
}

// QuoteFee computes the itemized fee: the base fee, the per-square-foot fee,
// the project value surcharge and the per-unit fee, each rounded to cents.
func QuoteFee(pt *models.PermitType, d models.ProjectDetails) *models.FeeQuote {
	base := decimal.NewFromFloat(pt.BaseFee).Round(2)
	quote := &models.FeeQuote{
		PermitType: pt.Name,
		BaseFee:    base,
		Breakdown: []models.FeeLineItem{
			{Item: pt.Name + " Base Fee", Amount: base},
		},
	}

	additional := decimal.Zero
	add := func(item string, amount decimal.Decimal) {
		amount = amount.Round(2)
		additional = additional.Add(amount)
		quote.Breakdown = append(quote.Breakdown, models.FeeLineItem{Item: item, Amount: amount})
	}

	rate := decimal.NewFromFloat(pt.PerSquareFootFee)
	if d.SquareFootage != nil && *d.SquareFootage > 0 && rate.IsPositive() {
		sqft := decimal.NewFromFloat(*d.SquareFootage)
		add(fmt.Sprintf("Square Footage Fee (%s sq ft @ $%s/sq ft)", sqft.String(), rate.StringFixed(2)), sqft.Mul(rate))
	}

	if d.ProjectValue != nil {
		value := decimal.NewFromFloat(*d.ProjectValue)
		if value.GreaterThan(ValueFeeThreshold) {
			add("Project Value Fee (0.5% of value over $10,000)", value.Sub(ValueFeeThreshold).Mul(ValueFeeRate))
		}
	}

	perUnit := decimal.NewFromFloat(pt.PerUnitFee)
	if d.Units != nil && *d.Units > 0 && perUnit.IsPositive() {
		units := decimal.NewFromFloat(*d.Units)
		add(fmt.Sprintf("Dwelling Unit Fee (%s units @ $%s/unit)", units.String(), perUnit.StringFixed(2)), units.Mul(perUnit))
	}

	quote.AdditionalFees = additional
	quote.TotalFee = base.Add(additional)
	return quote
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
