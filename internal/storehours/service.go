package storehours

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

// DateLayout is the query format for a calendar day, e.g. 3/7/2026.
const DateLayout = "1/2/2006"

// Hours is the resolved opening window for one calendar day.
type Hours struct {
	Date        string     `json:"date"`
	IsOpen      bool       `json:"is_open"`
	OpeningDate *time.Time `json:"opening_date,omitempty"`
	ClosingDate *time.Time `json:"closing_date,omitempty"`
}

type Service interface {
	ForDate(ctx context.Context, date string) (*Hours, error)
}

type ServiceParams struct {
	Repo     *Repository
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	repo *Repository
	loc  *time.Location
	now  func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("store hours repository required")
	}
	svc := &service{repo: params.Repo, loc: params.Location, now: params.Now}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// ForDate resolves the window for date (today in the store's timezone when
// empty). Closing instants roll onto the following day for late-night shifts.
func (s *service) ForDate(ctx context.Context, date string) (*Hours, error) {
	day, err := s.parseDay(date)
	if err != nil {
		return nil, err
	}

	hours, err := s.repo.FindByWeekday(ctx, day.Weekday())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store hours not configured").
				WithDetails(map[string]any{"weekday": day.Weekday().String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store hours")
	}
	return Resolve(*hours, day), nil
}

func (s *service) parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		now := s.now().In(s.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc), nil
	}
	day, err := time.ParseInLocation(DateLayout, raw, s.loc)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "date must be formatted as M/d/yyyy")
	}
	return day, nil
}

// Resolve places a weekday window on a concrete calendar day.
func Resolve(hours models.StoreHours, day time.Time) *Hours {
	out := &Hours{Date: day.Format(DateLayout), IsOpen: hours.IsOpen}
	if !hours.IsOpen {
		return out
	}
	y, m, d := day.Date()
	opening := time.Date(y, m, d, hours.OpeningHour, hours.OpeningMinute, 0, 0, day.Location())
	closingDay := d
	if hours.IsClosingNextDay {
		closingDay++
	}
	closing := time.Date(y, m, closingDay, hours.ClosingHour, hours.ClosingMinute, 0, 0, day.Location())
	out.OpeningDate = &opening
	out.ClosingDate = &closing
	return out
}
