package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleUpcomingWindow(t *testing.T) {
	d := openTestDB(t)
	s := NewScheduleService(d)
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	for title, at := range map[string]time.Time{
		"past":      now.Add(-time.Hour),
		"tomorrow":  now.Add(24 * time.Hour),
		"in-3-days": now.Add(NotificationWindow - time.Minute),
		"next-week": now.Add(7 * 24 * time.Hour),
		"soon":      now.Add(time.Hour),
	} {
		_, err := s.Create(ctx, ScheduleInput{Title: title, StartsAt: at})
		require.NoError(t, err)
	}

	items, err := s.Upcoming(ctx)
	require.NoError(t, err)
	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"soon", "tomorrow", "in-3-days"}, titles)
}

func TestScheduleValidation(t *testing.T) {
	d := openTestDB(t)
	s := NewScheduleService(d)
	ctx := context.Background()
	start := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	_, err := s.Create(ctx, ScheduleInput{StartsAt: start})
	assertViolation(t, err, "title", "required")
	_, err = s.Create(ctx, ScheduleInput{Title: "TTD", StartsAt: start, EndsAt: &before})
	assertViolation(t, err, "ends_at", "invalid")
	missing := uint(77)
	_, err = s.Create(ctx, ScheduleInput{Title: "TTD", StartsAt: start, ClientID: &missing})
	assertViolation(t, err, "client_id", "not_found")

	sc, err := s.Create(ctx, ScheduleInput{Title: "TTD AJB", StartsAt: start})
	require.NoError(t, err)
	sc, err = s.Update(ctx, sc.ID, ScheduleInput{Title: "TTD AJB", Location: "Kantor", StartsAt: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "Kantor", sc.Location)

	require.NoError(t, s.Delete(ctx, sc.ID))
	_, err = s.Get(ctx, sc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
