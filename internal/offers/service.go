// Package offers manages redeemable discount codes.
package offers

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/restaurant-backend/pkg/db"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

// CreateInput describes a new offer. At least one of the discounts is required.
type CreateInput struct {
	Code               string             `json:"code" validate:"required,max=64"`
	Name               string             `json:"name" validate:"required,max=200"`
	DiscountPriceCents *int64             `json:"discount_price_cents" validate:"omitempty,gte=0"`
	DiscountPercent    *int               `json:"discount_percent" validate:"omitempty,gte=0,lte=100"`
	Availability       enums.Availability `json:"availability" validate:"omitempty,oneof=isAvailable isTemporarilyUnavailable isUnavailable"`
}

type Service interface {
	GetByCode(ctx context.Context, code string) (*models.Offer, error)
	Create(ctx context.Context, input CreateInput) (*models.Offer, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer repository is required")
	}
	return &service{repo: repo}, nil
}

// NormalizeCode trims and upper-cases a code so lookups are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.Offer, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer code is required")
	}
	offer, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	return offer, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Offer, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer code is required")
	}
	if input.DiscountPriceCents == nil && input.DiscountPercent == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer needs a flat or percent discount")
	}
	if input.DiscountPercent != nil && (*input.DiscountPercent < 0 || *input.DiscountPercent > 100) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	if input.DiscountPriceCents != nil && *input.DiscountPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount price must not be negative")
	}
	availability := input.Availability
	if availability == "" {
		availability = enums.AvailabilityAvailable
	}
	if !availability.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid availability")
	}

	offer := &models.Offer{
		Code:               code,
		Name:               strings.TrimSpace(input.Name),
		DiscountPriceCents: input.DiscountPriceCents,
		DiscountPercent:    input.DiscountPercent,
		Availability:       availability,
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_offers_code") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "offer code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	return offer, nil
}
