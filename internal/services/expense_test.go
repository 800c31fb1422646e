package services

import (
	"context"
	"testing"

	"github.com/diewo77/go-ppat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseCRUD(t *testing.T) {
	d := openTestDB(t)
	s := NewExpenseService(d)
	ctx := context.Background()
	client := newClient(t, d, "3401")
	order := createOrder(t, NewOrderService(d, nil), OrderInput{ClientID: client.ID, ServiceID: serviceOf(t, d, "notaris").ID})

	_, err := s.Create(ctx, ExpenseInput{SpentAt: "2024-03-01", Category: "Materai", Amount: 0})
	assertViolation(t, err, "amount", "too_small")

	missing := uint(999)
	_, err = s.Create(ctx, ExpenseInput{SpentAt: "2024-03-01", Category: "Materai", Amount: 10_000, OrderID: &missing})
	assertViolation(t, err, "order_id", "not_found")

	e, err := s.Create(ctx, ExpenseInput{SpentAt: "2024-03-01", Category: "Materai", Amount: 10_000, OrderID: &order.ID})
	require.NoError(t, err)
	_, err = s.Create(ctx, ExpenseInput{SpentAt: "2024-04-02", Category: "Transport", Amount: 50_000})
	require.NoError(t, err)

	e, err = s.Update(ctx, e.ID, ExpenseInput{SpentAt: "2024-03-02", Category: "Materai", Amount: 20_000, OrderID: &order.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(20_000), e.Amount)

	page, err := s.List(ctx, ExpenseFilter{From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, e.ID, page.Items[0].ID)

	page, err = s.List(ctx, ExpenseFilter{OrderID: order.ID})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = s.List(ctx, ExpenseFilter{From: "March"})
	assertViolation(t, err, "from", "invalid")

	require.NoError(t, s.Delete(ctx, e.ID))
	assert.ErrorIs(t, s.Delete(ctx, e.ID), ErrNotFound)

	var events []string
	d.Model(&models.ActivityLog{}).Where("subject_type = ? AND subject_id = ?", "expense", e.ID).Order("id").Pluck("event", &events)
	assert.Equal(t, []string{models.EventCreated, models.EventUpdated, models.EventDeleted}, events)
}
