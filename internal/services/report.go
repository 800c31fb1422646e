package services

import (
	"context"
	"time"

	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// maxReportRows bounds one report; narrow the filters for more.
const maxReportRows = 1000

// ReportFilter selects orders by creation date (inclusive days) and attributes.
type ReportFilter struct {
	From          string
	To            string
	Status        string
	PaymentStatus string
	ServiceTypeID uint
	ClientID      uint
}

type ReportRow struct {
	models.Order
	TotalPaid int64 `json:"total_paid"`
	Balance   int64 `json:"balance"`
}

type ReportSummary struct {
	Orders       int64 `json:"orders"`
	ServicePrice int64 `json:"service_price"`
	TaxDeposit   int64 `json:"tax_deposit"`
	TotalAmount  int64 `json:"total_amount"`
	TotalPaid    int64 `json:"total_paid"`
	Outstanding  int64 `json:"outstanding"`
}

type OrderReport struct {
	Rows      []ReportRow   `json:"rows"`
	Summary   ReportSummary `json:"summary"`
	Truncated bool          `json:"truncated"`
}

type Dashboard struct {
	OrdersByStatus        map[models.OrderStatus]int64   `json:"orders_by_status"`
	OrdersByPaymentStatus map[models.PaymentStatus]int64 `json:"orders_by_payment_status"`
	IncomeThisMonth       int64                          `json:"income_this_month"`
	ExpensesThisMonth     int64                          `json:"expenses_this_month"`
	Outstanding           int64                          `json:"outstanding"`
	Clients               int64                          `json:"clients"`
	RecentOrders          []models.Order                 `json:"recent_orders"`
	UpcomingSchedules     []models.Schedule              `json:"upcoming_schedules"`
}

type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

// Orders returns the filtered orders, oldest first, with paid amounts and a summary.
func (s *ReportService) Orders(ctx context.Context, f ReportFilter) (*OrderReport, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	from, to, err := dateRange(f.From, f.To)
	if err != nil {
		return nil, err
	}
	if from != nil {
		q = q.Where("orders.created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("orders.created_at < ?", *to)
	}
	if f.Status != "" {
		st, ok := models.ParseOrderStatus(f.Status)
		if !ok {
			return nil, invalid("status", "invalid_choice")
		}
		q = q.Where("orders.status = ?", st)
	}
	if f.PaymentStatus != "" {
		q = q.Where("orders.payment_status = ?", f.PaymentStatus)
	}
	if f.ServiceTypeID != 0 {
		q = q.Where("orders.service_id IN (?)",
			s.db.Model(&models.Service{}).Select("id").Where("service_type_id = ?", f.ServiceTypeID))
	}
	if f.ClientID != 0 {
		q = q.Where("orders.client_id = ?", f.ClientID)
	}

	var orders []models.Order
	err = q.Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Service.ServiceType").
		Order("orders.created_at, orders.id").
		Limit(maxReportRows + 1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	report := &OrderReport{Rows: make([]ReportRow, 0, len(orders))}
	if len(orders) > maxReportRows {
		orders = orders[:maxReportRows]
		report.Truncated = true
	}

	paid, err := paidByOrder(s.db.WithContext(ctx), orders)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		row := ReportRow{Order: o, TotalPaid: paid[o.ID]}
		row.Balance = max(o.TotalAmount-row.TotalPaid, 0)
		report.Rows = append(report.Rows, row)

		report.Summary.Orders++
		report.Summary.ServicePrice += o.ServicePrice
		report.Summary.TaxDeposit += o.TaxDeposit
		report.Summary.TotalAmount += o.TotalAmount
		report.Summary.TotalPaid += row.TotalPaid
		report.Summary.Outstanding += row.Balance
	}
	return report, nil
}

func paidByOrder(db *gorm.DB, orders []models.Order) (map[uint]int64, error) {
	out := map[uint]int64{}
	if len(orders) == 0 {
		return out, nil
	}
	ids := make([]uint, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	var sums []struct {
		OrderID uint
		Total   int64
	}
	err := db.Model(&models.Payment{}).
		Select("order_id, COALESCE(SUM(amount), 0) AS total").
		Where("order_id IN ?", ids).
		Group("order_id").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	for _, s := range sums {
		out[s.OrderID] = s.Total
	}
	return out, nil
}

// Dashboard summarizes the practice for the current month.
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	d := &Dashboard{
		OrdersByStatus:        map[models.OrderStatus]int64{},
		OrdersByPaymentStatus: map[models.PaymentStatus]int64{},
	}

	var byStatus []struct {
		Status models.OrderStatus
		N      int64
	}
	if err := db.Model(&models.Order{}).Select("status, COUNT(*) AS n").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, r := range byStatus {
		d.OrdersByStatus[r.Status] = r.N
	}
	var byPayment []struct {
		PaymentStatus models.PaymentStatus
		N             int64
	}
	if err := db.Model(&models.Order{}).Select("payment_status, COUNT(*) AS n").Group("payment_status").Scan(&byPayment).Error; err != nil {
		return nil, err
	}
	for _, r := range byPayment {
		d.OrdersByPaymentStatus[r.PaymentStatus] = r.N
	}

	err := db.Model(&models.Payment{}).
		Where("paid_at >= ? AND paid_at < ?", monthStart, monthEnd).
		Select("COALESCE(SUM(amount), 0)").Scan(&d.IncomeThisMonth).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&models.Expense{}).
		Where("spent_at >= ? AND spent_at < ?", monthStart, monthEnd).
		Select("COALESCE(SUM(amount), 0)").Scan(&d.ExpensesThisMonth).Error
	if err != nil {
		return nil, err
	}

	var billed, paid int64
	active := db.Model(&models.Order{}).Where("status <> ?", models.OrderCancel)
	if err := active.Select("COALESCE(SUM(total_amount), 0)").Scan(&billed).Error; err != nil {
		return nil, err
	}
	err = db.Model(&models.Payment{}).
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.status <> ?", models.OrderCancel).
		Select("COALESCE(SUM(payments.amount), 0)").Scan(&paid).Error
	if err != nil {
		return nil, err
	}
	d.Outstanding = max(billed-paid, 0)

	if err := db.Model(&models.Client{}).Count(&d.Clients).Error; err != nil {
		return nil, err
	}
	d.RecentOrders = []models.Order{}
	err = db.Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC, id DESC").Limit(5).Find(&d.RecentOrders).Error
	if err != nil {
		return nil, err
	}
	d.UpcomingSchedules = []models.Schedule{}
	err = db.Where("starts_at >= ? AND starts_at <= ?", now, now.Add(NotificationWindow)).
		Order("starts_at, id").Find(&d.UpcomingSchedules).Error
	if err != nil {
		return nil, err
	}
	return d, nil
}
