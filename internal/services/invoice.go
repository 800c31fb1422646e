package services

import (
	"context"
	"time"

	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// Invoice is the printable view of an order.
type Invoice struct {
	Number    string          `json:"number"`
	IssuedAt  time.Time       `json:"issued_at"`
	Company   *models.Company `json:"company"`
	Order     *models.Order   `json:"order"`
	Lines     []InvoiceLine   `json:"lines"`
	Total     int64           `json:"total"`
	TotalPaid int64           `json:"total_paid"`
	Balance   int64           `json:"balance"`
}

type InvoiceLine struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

type InvoiceService struct {
	db     *gorm.DB
	orders *OrderService
	now    func() time.Time
}

func NewInvoiceService(db *gorm.DB, orders *OrderService) *InvoiceService {
	return &InvoiceService{db: db, orders: orders, now: time.Now}
}

// Build assembles the invoice of one order. Lines with a zero amount are left out,
// except the service line.
func (s *InvoiceService) Build(ctx context.Context, orderID uint) (*Invoice, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	company, err := current(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	inv := &Invoice{
		Number:   order.OrderNumber,
		IssuedAt: s.now(),
		Company:  company,
		Order:    order,
		Total:    order.TotalAmount,
	}
	label := "Jasa"
	if order.Service != nil {
		label = order.Service.Name
	}
	inv.Lines = append(inv.Lines, InvoiceLine{Label: label, Amount: order.ServicePrice})
	if order.TaxDeposit > 0 {
		inv.Lines = append(inv.Lines, InvoiceLine{Label: "Titipan Pajak", Amount: order.TaxDeposit})
	}
	for _, p := range order.Payments {
		inv.TotalPaid += p.Amount
	}
	inv.Balance = max(inv.Total-inv.TotalPaid, 0)
	return inv, nil
}
