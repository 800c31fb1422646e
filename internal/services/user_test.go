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

func TestUserLifecycle(t *testing.T) {
	d := openTestDB(t)
	var invalidated []uint
	s := NewUserService(d, func(id uint) { invalidated = append(invalidated, id) })
	ctx := context.Background()

	_, err := s.Create(ctx, UserInput{Name: "Rina", Email: "rina@ppat.test", Role: "staff"})
	assertViolation(t, err, "password", "required")
	_, err = s.Create(ctx, UserInput{Name: "Rina", Email: "rina@ppat.test", Password: "rahasia123", Role: "owner"})
	assertViolation(t, err, "role", "invalid_choice")
	_, err = s.Create(ctx, UserInput{Name: "Rina", Email: "rina@ppat.test", Password: "short", Role: "staff"})
	assertViolation(t, err, "password", "too_small")

	u, err := s.Create(ctx, UserInput{Name: "Rina", Email: " Rina@PPAT.test ", Password: "rahasia123", Role: "staff"})
	require.NoError(t, err)
	assert.Equal(t, "rina@ppat.test", u.Email)
	assert.NotEqual(t, "rahasia123", u.Password)

	_, err = s.Create(ctx, UserInput{Name: "Dup", Email: "rina@ppat.test", Password: "rahasia123", Role: "admin"})
	assertViolation(t, err, "email", "taken")

	got, err := s.Authenticate(ctx, "RINA@ppat.test", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = s.Authenticate(ctx, "rina@ppat.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "nobody@ppat.test", "rahasia123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	inactive := false
	u, err = s.Update(ctx, u.ID, UserInput{Name: "Rina", Email: "rina@ppat.test", Role: "bos", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, models.RoleBos, u.Role)
	assert.False(t, s.Active(ctx, u.ID))
	_, err = s.Authenticate(ctx, "rina@ppat.test", "rahasia123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "password kept, but user inactive")

	require.NoError(t, s.Delete(ctx, u.ID))
	assert.ErrorIs(t, s.Delete(ctx, u.ID), ErrNotFound)
	assert.Equal(t, []uint{u.ID, u.ID}, invalidated)
}

func TestUserCreatedInactive(t *testing.T) {
	d := openTestDB(t)
	s := NewUserService(d, nil)
	off := false
	u, err := s.Create(context.Background(), UserInput{Name: "Tono", Email: "tono@ppat.test", Password: "rahasia123", Role: "staff", IsActive: &off})
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.False(t, s.Active(context.Background(), u.ID))
}

func TestUserEmailNormalizedBeforeValidation(t *testing.T) {
	d := openTestDB(t)
	s := NewUserService(d, nil)
	ctx := context.Background()

	u, err := s.Create(ctx, UserInput{Name: "Dewi", Email: "  Dewi@PPAT.test\t", Password: "rahasia123", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "dewi@ppat.test", u.Email)

	u, err = s.Update(ctx, u.ID, UserInput{Name: "Dewi", Email: " DEWI.S@ppat.test ", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "dewi.s@ppat.test", u.Email)

	_, err = s.Create(ctx, UserInput{Name: "Blank", Email: "   ", Password: "rahasia123", Role: "admin"})
	assertViolation(t, err, "email", "required")
}

func TestUserWritesAreAudited(t *testing.T) {
	d := openTestDB(t)
	root := newUser(t, d, "root@ppat.test", models.RoleSuperAdmin)
	s := NewUserService(d, nil)
	ctx := auth.WithUserID(context.Background(), root.ID)

	u, err := s.Create(ctx, UserInput{Name: "Rina", Email: "rina@ppat.test", Password: "rahasia123", Role: "staff"})
	require.NoError(t, err)
	_, err = s.Update(ctx, u.ID, UserInput{Name: "Rina", Email: "rina@ppat.test", Role: "bos"})
	require.NoError(t, err)
	// a password change alone leaves no entry
	_, err = s.Update(ctx, u.ID, UserInput{Name: "Rina", Email: "rina@ppat.test", Password: "rahasia456", Role: "bos"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, u.ID))

	page, err := NewActivityFeed(d).List(context.Background(), audit.FeedFilter{SubjectType: "user", SubjectID: u.ID}, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	assert.Equal(t, models.EventDeleted, page.Entries[0].Event)
	assert.Equal(t, models.EventUpdated, page.Entries[1].Event)
	assert.Equal(t, models.EventCreated, page.Entries[2].Event)

	assert.Equal(t, map[string]any{"role": "bos"}, map[string]any(page.Entries[1].Attributes))
	assert.Equal(t, "staff", page.Entries[1].Old["role"])
	for _, e := range page.Entries {
		assert.NotContains(t, e.Attributes, "password")
		assert.NotContains(t, e.Old, "password")
		assert.Equal(t, "rina@ppat.test", e.SubjectLabel)
		assert.Equal(t, root.Name, e.CauserName)
	}
}

func TestUserCreatedInactiveIsAudited(t *testing.T) {
	d := openTestDB(t)
	s := NewUserService(d, nil)
	off := false
	u, err := s.Create(context.Background(), UserInput{Name: "Tono", Email: "tono@ppat.test", Password: "rahasia123", Role: "staff", IsActive: &off})
	require.NoError(t, err)

	var events []string
	d.Model(&models.ActivityLog{}).Where("subject_type = ? AND subject_id = ?", "user", u.ID).Order("id").Pluck("event", &events)
	assert.Equal(t, []string{models.EventCreated, models.EventUpdated}, events)
}
