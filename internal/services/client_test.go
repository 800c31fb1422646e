package services

import (
	"context"
	"testing"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLifecycleIsAudited(t *testing.T) {
	d := openTestDB(t)
	s := NewClientService(d)
	admin := newUser(t, d, "admin@ppat.test", models.RoleAdmin)
	ctx := auth.WithUserID(context.Background(), admin.ID)

	c, err := s.Create(ctx, ClientInput{Type: "company", Name: " PT Maju ", NationalID: "9120001"})
	require.NoError(t, err)
	assert.Equal(t, "PT Maju", c.Name)

	_, err = s.Create(ctx, ClientInput{Type: "individual", Name: "Other", NationalID: "9120001"})
	assertViolation(t, err, "national_id", "taken")

	_, err = s.Create(ctx, ClientInput{Type: "alien", Name: "X", NationalID: "1"})
	assertViolation(t, err, "type", "invalid_choice")

	_, err = s.Update(ctx, c.ID, ClientInput{Type: "company", Name: "PT Maju Jaya", NationalID: "9120001", Phone: "0812"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, c.ID))
	_, err = s.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, c.ID), ErrNotFound)

	// soft-deleted national ids stay reserved
	_, err = s.Create(ctx, ClientInput{Type: "individual", Name: "Again", NationalID: "9120001"})
	assertViolation(t, err, "national_id", "taken")

	feed := NewActivityFeed(d)
	page, err := feed.List(ctx, audit.FeedFilter{SubjectType: "client", SubjectID: c.ID}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	events := []string{page.Entries[0].Event, page.Entries[1].Event, page.Entries[2].Event}
	assert.Equal(t, []string{models.EventDeleted, models.EventUpdated, models.EventCreated}, events)

	updated := page.Entries[1]
	assert.Equal(t, "PT Maju", updated.Old["name"])
	assert.Equal(t, "PT Maju Jaya", updated.Attributes["name"])
	assert.Equal(t, "0812", updated.Attributes["phone"])
	assert.NotContains(t, updated.Attributes, "national_id")

	for _, e := range page.Entries {
		assert.Equal(t, admin.Name, e.CauserName)
		assert.Equal(t, "PT Maju Jaya", e.SubjectLabel, "label resolves soft-deleted subjects")
	}
	assert.Empty(t, page.Entries[0].Attributes)
	assert.Equal(t, "PT Maju Jaya", page.Entries[0].Old["name"])
}

func TestClientList(t *testing.T) {
	d := openTestDB(t)
	s := NewClientService(d)
	ctx := context.Background()
	for _, in := range []ClientInput{
		{Type: "individual", Name: "Siti Aminah", NationalID: "3174001"},
		{Type: "individual", Name: "Agus Salim", NationalID: "3174002"},
		{Type: "company", Name: "CV Sentosa", NationalID: "8120003"},
	} {
		_, err := s.Create(ctx, in)
		require.NoError(t, err)
	}

	page, err := s.List(ctx, "3174", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Agus Salim", page.Items[0].Name)

	page, err = s.List(ctx, "SENTOSA", 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = s.List(ctx, "", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
}

func TestSystemCauser(t *testing.T) {
	d := openTestDB(t)
	_, err := NewExpenseService(d).Create(context.Background(), ExpenseInput{SpentAt: "2024-03-01", Category: "ATK", Amount: 75_000})
	require.NoError(t, err)

	page, err := NewActivityFeed(d).List(context.Background(), audit.FeedFilter{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Nil(t, page.Entries[0].CauserID)
	assert.Equal(t, "system", page.Entries[0].CauserName)
	assert.Equal(t, "ATK", page.Entries[0].SubjectLabel)
}
