package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// User is the local record for an identity-provider subject.
type User struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	AuthUID          string         `gorm:"column:auth_uid;not null;uniqueIndex"`
	Email            *string        `gorm:"column:email"`
	DisplayName      *string        `gorm:"column:display_name"`
	Phone            *string        `gorm:"column:phone"`
	Role             enums.UserRole `gorm:"column:role;type:user_role_enum;not null"`
	SquareCustomerID *string        `gorm:"column:square_customer_id"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = enums.UserRoleCustomer
	}
	return nil
}

// IsStaff reports whether the user may access kitchen routes.
func (u User) IsStaff() bool {
	return u.Role == enums.UserRoleStaff
}
