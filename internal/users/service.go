package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/internal/squarecustomers"
	"github.com/angelmondragon/restaurant-backend/pkg/db"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

// Service manages local user records keyed by identity-provider subject.
type Service interface {
	Register(ctx context.Context, authUID string, input CreateInput) (*UserDTO, bool, error)
	Resolve(ctx context.Context, authUID string) (*models.User, error)
	Me(ctx context.Context, authUID string) (*UserDTO, error)
	Get(ctx context.Context, caller *models.User, id uuid.UUID) (*UserDTO, error)
	AddCard(ctx context.Context, caller *models.User, id uuid.UUID, input CardInput) (*squarecustomers.Card, error)
}

type ServiceParams struct {
	Repo      *Repository
	Customers squarecustomers.Service
	Logger    *logger.Logger
}

type service struct {
	repo      *Repository
	customers squarecustomers.Service
	logg      *logger.Logger
}

// NewService builds the users service. Customers may be nil when no Square
// account is configured; card vaulting is then unavailable.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: params.Repo, customers: params.Customers, logg: params.Logger}, nil
}

// Register creates the local user for authUID. Registering an existing subject
// returns the stored user with created=false.
func (s *service) Register(ctx context.Context, authUID string, input CreateInput) (*UserDTO, bool, error) {
	authUID = strings.TrimSpace(authUID)
	if authUID == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}

	existing, err := s.repo.FindByAuthUID(ctx, authUID)
	switch {
	case err == nil:
		return FromModel(s.ensureCustomer(ctx, existing)), false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	user := input.ToModel(authUID)
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			// lost a race with a concurrent registration for the same subject
			existing, findErr := s.repo.FindByAuthUID(ctx, authUID)
			if findErr != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "lookup user")
			}
			return FromModel(existing), false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(s.ensureCustomer(ctx, user)), true, nil
}

// ensureCustomer links a Square customer when one is missing. Failures are
// logged and retried on the next card vault.
func (s *service) ensureCustomer(ctx context.Context, user *models.User) *models.User {
	if s.customers == nil || (user.SquareCustomerID != nil && *user.SquareCustomerID != "") {
		return user
	}
	if _, err := s.linkCustomer(ctx, user); err != nil {
		logCtx := s.logg.WithUserID(ctx, user.ID.String())
		s.logg.Error(logCtx, "users.ensure_square_customer_failed", err)
	}
	return user
}

func (s *service) linkCustomer(ctx context.Context, user *models.User) (string, error) {
	input := squarecustomers.Input{
		ReferenceID: "rb:user:" + user.ID.String(),
		Phone:       user.Phone,
	}
	if user.Email != nil {
		input.Email = *user.Email
	}
	if user.DisplayName != nil {
		input.DisplayName = *user.DisplayName
	}
	customerID, err := s.customers.EnsureCustomer(ctx, input)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetSquareCustomerID(ctx, user.ID, customerID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store square customer")
	}
	user.SquareCustomerID = &customerID
	return customerID, nil
}

func (s *service) Resolve(ctx context.Context, authUID string) (*models.User, error) {
	user, err := s.repo.FindByAuthUID(ctx, authUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return user, nil
}

func (s *service) Me(ctx context.Context, authUID string) (*UserDTO, error) {
	user, err := s.Resolve(ctx, authUID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Get(ctx context.Context, caller *models.User, id uuid.UUID) (*UserDTO, error) {
	if err := Authorize(caller, id); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) AddCard(ctx context.Context, caller *models.User, id uuid.UUID, input CardInput) (*squarecustomers.Card, error) {
	if caller == nil || caller.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cards can only be added to your own account")
	}
	if s.customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "card vaulting unavailable")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	customerID := ""
	if user.SquareCustomerID != nil {
		customerID = *user.SquareCustomerID
	}
	if customerID == "" {
		if customerID, err = s.linkCustomer(ctx, user); err != nil {
			return nil, err
		}
	}

	card, err := s.customers.VaultCard(ctx, squarecustomers.CardInput{
		CustomerID:        customerID,
		Nonce:             input.Nonce,
		CardholderName:    input.CardholderName,
		VerificationToken: input.VerificationToken,
		ReferenceID:       "rb:user:" + user.ID.String(),
	})
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String(), "card_id": card.ID})
	s.logg.Info(logCtx, "users.card_vaulted")
	return card, nil
}

// Authorize lets users read themselves and staff read anyone.
func Authorize(caller *models.User, id uuid.UUID) error {
	if caller == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if caller.ID != id && !caller.IsStaff() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot access another user")
	}
	return nil
}
