package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// UserDTO is the transport shape that omits provider identifiers.
type UserDTO struct {
	ID                uuid.UUID      `json:"id"`
	Email             *string        `json:"email,omitempty"`
	DisplayName       *string        `json:"display_name,omitempty"`
	Phone             *string        `json:"phone,omitempty"`
	Role              enums.UserRole `json:"role"`
	HasSquareCustomer bool           `json:"has_square_customer"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// CreateInput holds the profile fields captured when a token subject first registers.
type CreateInput struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
}

// CardInput carries the tokenized card from the payment form.
type CardInput struct {
	Nonce             string `json:"nonce" validate:"required"`
	CardholderName    string `json:"cardholder_name" validate:"omitempty,max=120"`
	VerificationToken string `json:"verification_token"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                u.ID,
		Email:             u.Email,
		DisplayName:       u.DisplayName,
		Phone:             u.Phone,
		Role:              u.Role,
		HasSquareCustomer: u.SquareCustomerID != nil && *u.SquareCustomerID != "",
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (c CreateInput) ToModel(authUID string) *models.User {
	return &models.User{
		AuthUID:     authUID,
		Email:       trimmed(c.Email),
		DisplayName: trimmed(c.DisplayName),
		Phone:       trimmed(c.Phone),
		Role:        enums.UserRoleCustomer,
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
