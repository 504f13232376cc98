package storehours

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/restaurant-backend/internal/testdb"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

func newService(t *testing.T, now time.Time) (Service, *Repository, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	repo := NewRepository(testdb.Open(t))
	svc, err := NewService(ServiceParams{Repo: repo, Location: loc, Now: func() time.Time { return now }})
	require.NoError(t, err)
	return svc, repo, loc
}

func TestForDateSameDayWindow(t *testing.T) {
	svc, repo, loc := newService(t, time.Now())
	ctx := context.Background()
	// 3/6/2026 is a Friday
	require.NoError(t, repo.Upsert(ctx, &models.StoreHours{
		Weekday: int(time.Friday), OpeningHour: 11, OpeningMinute: 30, ClosingHour: 22, IsOpen: true,
	}))

	hours, err := svc.ForDate(ctx, "3/6/2026")
	require.NoError(t, err)
	require.True(t, hours.IsOpen)
	require.Equal(t, "3/6/2026", hours.Date)
	require.True(t, hours.OpeningDate.Equal(time.Date(2026, 3, 6, 11, 30, 0, 0, loc)))
	require.True(t, hours.ClosingDate.Equal(time.Date(2026, 3, 6, 22, 0, 0, 0, loc)))
}

func TestForDateClosingNextDay(t *testing.T) {
	svc, repo, loc := newService(t, time.Now())
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &models.StoreHours{
		Weekday: int(time.Saturday), OpeningHour: 17, ClosingHour: 2, ClosingMinute: 15, IsOpen: true, IsClosingNextDay: true,
	}))

	// end of month rolls into the next month
	hours, err := svc.ForDate(ctx, "1/31/2026")
	require.NoError(t, err)
	require.True(t, hours.ClosingDate.Equal(time.Date(2026, 2, 1, 2, 15, 0, 0, loc)))
}

func TestForDateClosedDay(t *testing.T) {
	svc, repo, _ := newService(t, time.Now())
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &models.StoreHours{Weekday: int(time.Monday), IsOpen: false}))

	hours, err := svc.ForDate(ctx, "3/2/2026")
	require.NoError(t, err)
	require.False(t, hours.IsOpen)
	require.Nil(t, hours.OpeningDate)
	require.Nil(t, hours.ClosingDate)
}

func TestForDateDefaultsToTodayInStoreTimezone(t *testing.T) {
	// 03:00 UTC Sunday is still Saturday evening in Chicago
	now := time.Date(2026, 3, 8, 3, 0, 0, 0, time.UTC)
	svc, repo, _ := newService(t, now)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &models.StoreHours{Weekday: int(time.Saturday), OpeningHour: 9, ClosingHour: 17, IsOpen: true}))

	hours, err := svc.ForDate(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "3/7/2026", hours.Date)
}

func TestForDateErrors(t *testing.T) {
	svc, _, _ := newService(t, time.Now())
	ctx := context.Background()

	_, err := svc.ForDate(ctx, "2026-03-06")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ForDate(ctx, "3/6/2026")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
