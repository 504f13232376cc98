package storehours

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByWeekday returns the opening window configured for weekday.
func (r *Repository) FindByWeekday(ctx context.Context, weekday time.Weekday) (*models.StoreHours, error) {
	var hours models.StoreHours
	if err := r.db.WithContext(ctx).First(&hours, "weekday = ?", int(weekday)).Error; err != nil {
		return nil, err
	}
	return &hours, nil
}

// Upsert stores the window for one weekday.
func (r *Repository) Upsert(ctx context.Context, hours *models.StoreHours) error {
	return r.db.WithContext(ctx).Save(hours).Error
}
