package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-ppat/internal/models"
	"github.com/diewo77/go-ppat/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderReport(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	notaris := serviceOf(t, f.db, "notaris")
	a := f.order(t, 1_000_000, 200_000)
	createOrder(t, f.orders, OrderInput{ClientID: f.client.ID, ServiceID: notaris.ID, ServicePrice: 500_000})
	_, err := f.payments.Add(ctx, a.ID, pay(700_000), nil)
	require.NoError(t, err)

	reports := NewReportService(f.db)
	r, err := reports.Orders(ctx, ReportFilter{})
	require.NoError(t, err)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, ReportSummary{
		Orders:       2,
		ServicePrice: 1_500_000,
		TaxDeposit:   200_000,
		TotalAmount:  1_700_000,
		TotalPaid:    700_000,
		Outstanding:  1_000_000,
	}, r.Summary)
	assert.Equal(t, int64(500_000), r.Rows[0].Balance)

	r, err = reports.Orders(ctx, ReportFilter{ServiceTypeID: notaris.ServiceTypeID})
	require.NoError(t, err)
	require.Len(t, r.Rows, 1)
	assert.Equal(t, notaris.ID, r.Rows[0].ServiceID)

	r, err = reports.Orders(ctx, ReportFilter{PaymentStatus: string(models.PaymentPartial)})
	require.NoError(t, err)
	require.Len(t, r.Rows, 1)
	assert.Equal(t, a.ID, r.Rows[0].ID)

	tomorrow := time.Now().AddDate(0, 0, 1).Format(dateLayout)
	r, err = reports.Orders(ctx, ReportFilter{From: tomorrow})
	require.NoError(t, err)
	assert.Empty(t, r.Rows)

	_, err = reports.Orders(ctx, ReportFilter{Status: "gone"})
	assertViolation(t, err, "status", "invalid_choice")
}

func TestDashboard(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	a := f.order(t, 1_000_000, 0)
	f.order(t, 300_000, 0)
	today := time.Now().Format(dateLayout)
	_, err := f.payments.Add(ctx, a.ID, PaymentInput{Amount: 400_000, PaidAt: today, Method: "cash"}, nil)
	require.NoError(t, err)
	_, err = NewExpenseService(f.db).Create(ctx, ExpenseInput{SpentAt: today, Category: "ATK", Amount: 25_000})
	require.NoError(t, err)

	dash, err := NewReportService(f.db).Dashboard(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, dash.OrdersByStatus[models.OrderNew])
	assert.EqualValues(t, 1, dash.OrdersByPaymentStatus[models.PaymentPartial])
	assert.EqualValues(t, 1, dash.OrdersByPaymentStatus[models.PaymentUnpaid])
	assert.Equal(t, int64(400_000), dash.IncomeThisMonth)
	assert.Equal(t, int64(25_000), dash.ExpensesThisMonth)
	assert.Equal(t, int64(900_000), dash.Outstanding)
	assert.EqualValues(t, 1, dash.Clients)
	assert.Len(t, dash.RecentOrders, 2)
}

func TestInvoice(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	o := f.order(t, 1_000_000, 200_000)
	_, err := f.payments.Add(ctx, o.ID, pay(300_000), nil)
	require.NoError(t, err)

	inv, err := NewInvoiceService(f.db, f.orders).Build(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, inv.Number)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, f.service.Name, inv.Lines[0].Label)
	assert.Equal(t, int64(1_200_000), inv.Total)
	assert.Equal(t, int64(300_000), inv.TotalPaid)
	assert.Equal(t, int64(900_000), inv.Balance)
	require.NotNil(t, inv.Company)

	_, err = NewInvoiceService(f.db, f.orders).Build(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	orders := NewOrderService(d, nil)
	svc := serviceOf(t, d, "notaris")
	for i := 0; i < 7; i++ {
		c := newClient(t, d, "55"+strings.Repeat("0", i))
		createOrder(t, orders, OrderInput{ClientID: c.ID, ServiceID: svc.ID, Description: "Akta Budi"})
	}
	newUser(t, d, "budi@ppat.test", models.RoleStaff)

	res, err := NewSearchService(d).Search(ctx, "budi")
	require.NoError(t, err)
	assert.Len(t, res.Clients, SearchLimit)
	assert.Len(t, res.Orders, SearchLimit)
	assert.Len(t, res.Users, 1)

	res, err = NewSearchService(d).Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, res.Clients)
	assert.Empty(t, res.Orders)
}

func TestOrderFiles(t *testing.T) {
	d := openTestDB(t)
	root := t.TempDir()
	files := NewOrderFileService(d, storage.NewLocal(root), nil, Limits{MaxUploadBytes: 16})
	ctx := context.Background()
	o := createOrder(t, NewOrderService(d, nil), OrderInput{ClientID: newClient(t, d, "3501").ID, ServiceID: serviceOf(t, d, "notaris").ID})

	_, err := files.Add(ctx, o.ID, "ktp", Upload{Name: "virus.exe", Reader: strings.NewReader("x")})
	assertViolation(t, err, "file", "file_type_not_allowed")
	_, err = files.Add(ctx, o.ID, "ktp", Upload{Name: "big.pdf", Reader: bytes.NewReader(make([]byte, 17))})
	assertViolation(t, err, "file", "too_large")
	_, err = files.Add(ctx, 999, "ktp", Upload{Name: "ok.pdf", Reader: strings.NewReader("%PDF")})
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	d.Model(&models.OrderFile{}).Count(&count)
	assert.Zero(t, count)

	file, err := files.Add(ctx, o.ID, "ktp", Upload{Name: "KTP Budi.pdf", Reader: strings.NewReader("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "pdf", file.Extension)
	assert.Equal(t, int64(4), file.Size)

	require.NoError(t, files.Delete(ctx, o.ID, file.ID))
	assert.ErrorIs(t, files.Delete(ctx, o.ID, file.ID), ErrNotFound)
}
