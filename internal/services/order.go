package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/metrics"
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxOrderNumberAttempts bounds retries after an order number collision.
const maxOrderNumberAttempts = 5

// OrderInput is accepted on create and update. It has no derived fields.
type OrderInput struct {
	ClientID     uint             `json:"client_id" validate:"required"`
	ServiceID    uint             `json:"service_id" validate:"required"`
	Description  string           `json:"description" validate:"max=5000"`
	DeedDate     string           `json:"deed_date" validate:"omitempty,datetime=2006-01-02"`
	ServicePrice int64            `json:"service_price" validate:"gte=0"`
	TaxDeposit   int64            `json:"tax_deposit" validate:"gte=0"`
	Status       string           `json:"status,omitempty"`
	PPAT         *PPATDetailInput `json:"ppat,omitempty"`
}

// PPATDetailInput holds the land-deed fields; numbers default to 0.
type PPATDetailInput struct {
	SellerName        string  `json:"seller_name" validate:"max=255"`
	BuyerName         string  `json:"buyer_name" validate:"max=255"`
	CertificateNumber string  `json:"certificate_number" validate:"max=100"`
	LandArea          float64 `json:"land_area" validate:"gte=0"`
	BuildingArea      float64 `json:"building_area" validate:"gte=0"`
	AssessedValue     int64   `json:"assessed_value" validate:"gte=0"`
	TransactionValue  int64   `json:"transaction_value" validate:"gte=0"`
	SellerTax         int64   `json:"seller_tax" validate:"gte=0"`
	BuyerTax          int64   `json:"buyer_tax" validate:"gte=0"`
}

// OrderFilter narrows List. Zero values mean no filter.
type OrderFilter struct {
	Q             string
	Status        string
	PaymentStatus string
	ClientID      uint
	Page          int
	PerPage       int
}

type OrderService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOrderService(db *gorm.DB, m *metrics.Metrics) *OrderService {
	return &OrderService{db: db, metrics: m, now: time.Now}
}

// OrderNumberPrefix is the per-month prefix, e.g. ORD-202403-.
func OrderNumberPrefix(t time.Time) string {
	return "ORD-" + t.Format("200601") + "-"
}

// NextOrderNumber returns ORD-YYYYMM-NNNN where NNNN follows the highest
// sequence already issued in the month of now.
func NextOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := OrderNumberPrefix(now)
	var count int64
	if err := tx.Model(&models.Order{}).Where("order_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return "", err
	}
	var last []string
	err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").Limit(1).
		Pluck("order_number", &last).Error
	if err != nil {
		return "", err
	}
	seq := count
	if len(last) == 1 {
		if n, err := strconv.ParseInt(strings.TrimPrefix(last[0], prefix), 10, 64); err == nil && n > seq {
			seq = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

// Create validates the input and creates the order, and its PPAT detail when the
// service is of the ppat type, in one transaction. A collision on the order number
// retries the whole transaction with a fresh number.
func (s *OrderService) Create(ctx context.Context, in OrderInput) (*models.Order, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	deedDate, err := parseDate("deed_date", in.DeedDate)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	for attempt := 1; ; attempt++ {
		order, err = s.create(ctx, in, deedDate)
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < maxOrderNumberAttempts {
			s.metrics.OrderNumberRetry()
			continue
		}
		break
	}
	if err != nil {
		return nil, wrapTx(err)
	}
	s.metrics.OrderCreated()
	return s.Get(ctx, order.ID)
}

func (s *OrderService) create(ctx context.Context, in OrderInput, deedDate *time.Time) (*models.Order, error) {
	order := &models.Order{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		svc, err := resolveOrderRefs(tx, in.ClientID, in.ServiceID, 0)
		if err != nil {
			return err
		}
		number, err := NextOrderNumber(tx, s.now())
		if err != nil {
			return err
		}
		*order = models.Order{
			OrderNumber:  number,
			ClientID:     in.ClientID,
			ServiceID:    in.ServiceID,
			Description:  strings.TrimSpace(in.Description),
			DeedDate:     deedDate,
			Status:       models.OrderNew,
			ServicePrice: in.ServicePrice,
			TaxDeposit:   in.TaxDeposit,
			CreatedByID:  actorID(ctx),
		}
		if err := refreshDerived(tx, order); err != nil {
			return err
		}
		if err := audit.Create(ctx, tx, order); err != nil {
			return err
		}
		return syncDetail(tx, order.ID, svc, in.PPAT)
	})
	return order, err
}

// Update applies the input, keeps the PPAT detail consistent with the service type
// and recomputes the derived fields, in one transaction.
func (s *OrderService) Update(ctx context.Context, id uint, in OrderInput) (*models.Order, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	deedDate, err := parseDate("deed_date", in.DeedDate)
	if err != nil {
		return nil, err
	}
	var status models.OrderStatus
	if in.Status != "" {
		st, ok := models.ParseOrderStatus(in.Status)
		if !ok {
			return nil, invalid("status", "invalid_choice")
		}
		status = st
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockOrder(tx, id, &order); err != nil {
			return err
		}
		before := order

		svc, err := resolveOrderRefs(tx, in.ClientID, in.ServiceID, before.ClientID)
		if err != nil {
			return err
		}
		order.ClientID = in.ClientID
		order.ServiceID = in.ServiceID
		order.Description = strings.TrimSpace(in.Description)
		order.DeedDate = deedDate
		order.ServicePrice = in.ServicePrice
		order.TaxDeposit = in.TaxDeposit
		if status != "" {
			order.Status = status
		}
		if err := refreshDerived(tx, &order); err != nil {
			return err
		}
		if err := audit.Update(ctx, tx, &before, &order); err != nil {
			return err
		}
		return syncDetail(tx, order.ID, svc, in.PPAT)
	})
	if err != nil {
		return nil, wrapTx(err)
	}
	return s.Get(ctx, id)
}

// Get loads an order with everything the detail view shows.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Service.ServiceType").
		Preload("Detail").
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at, id") }).
		Preload("CreatedBy", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// List returns orders newest first.
func (s *OrderService) List(ctx context.Context, f OrderFilter) (*Page[models.Order], error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if f.Q != "" {
		p := like(f.Q)
		q = q.Where("(LOWER(order_number) LIKE ?"+likeEscape+" OR LOWER(description) LIKE ?"+likeEscape+")", p, p)
	}
	if f.Status != "" {
		if st, ok := models.ParseOrderStatus(f.Status); ok {
			q = q.Where("status = ?", st)
		} else {
			return nil, invalid("status", "invalid_choice")
		}
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	return paginate[models.Order](q, f.Page, f.PerPage, "created_at DESC, id DESC", "Client", "Service")
}

// lockOrder loads the order row and locks it for the rest of the transaction.
func lockOrder(tx *gorm.DB, id uint, o *models.Order) error {
	return notFound(forUpdate(tx).First(o, id).Error)
}

// resolveOrderRefs checks that the client and service exist and returns the
// service with its type loaded. currentClientID is accepted even when that client
// was deleted since, so old orders stay editable.
func resolveOrderRefs(tx *gorm.DB, clientID, serviceID, currentClientID uint) (*models.Service, error) {
	if clientID != currentClientID {
		var count int64
		if err := tx.Model(&models.Client{}).Where("id = ?", clientID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, invalid("client_id", "not_found")
		}
	}
	var svc models.Service
	if err := tx.Preload("ServiceType").First(&svc, serviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("service_id", "not_found")
		}
		return nil, err
	}
	return &svc, nil
}

// syncDetail makes the detail row exist iff the service is of the ppat type.
// Given input is upserted; without input an existing row is kept as is.
func syncDetail(tx *gorm.DB, orderID uint, svc *models.Service, in *PPATDetailInput) error {
	if !svc.IsPPAT() {
		return tx.Where("order_id = ?", orderID).Delete(&models.OrderTypeDetail{}).Error
	}
	detail := models.OrderTypeDetail{OrderID: orderID}
	if in == nil {
		return tx.Where(models.OrderTypeDetail{OrderID: orderID}).FirstOrCreate(&detail).Error
	}
	detail.SellerName = strings.TrimSpace(in.SellerName)
	detail.BuyerName = strings.TrimSpace(in.BuyerName)
	detail.CertificateNumber = strings.TrimSpace(in.CertificateNumber)
	detail.LandArea = in.LandArea
	detail.BuildingArea = in.BuildingArea
	detail.AssessedValue = in.AssessedValue
	detail.TransactionValue = in.TransactionValue
	detail.SellerTax = in.SellerTax
	detail.BuyerTax = in.BuyerTax
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"seller_name", "buyer_name", "certificate_number", "land_area", "building_area",
			"assessed_value", "transaction_value", "seller_tax", "buyer_tax", "updated_at",
		}),
	}).Create(&detail).Error
}
