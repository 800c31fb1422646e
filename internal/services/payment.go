package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/metrics"
	"github.com/diewo77/go-ppat/internal/models"
	"github.com/diewo77/go-ppat/validation"
	"gorm.io/gorm"
)

type PaymentInput struct {
	Amount int64  `json:"amount"`
	PaidAt string `json:"paid_at" validate:"required,datetime=2006-01-02"`
	Method string `json:"method" validate:"required,max=50"`
	Note   string `json:"note" validate:"max=500"`
}

// PaymentService records payments. Every add or delete locks the order row and
// recomputes its payment status from the payment rows in the same transaction.
type PaymentService struct {
	db      *gorm.DB
	store   FileStore
	metrics *metrics.Metrics
	limits  Limits
}

func NewPaymentService(db *gorm.DB, store FileStore, m *metrics.Metrics, limits Limits) *PaymentService {
	return &PaymentService{db: db, store: store, metrics: m, limits: limits}
}

// Add records a payment. The optional proof must be an image within the size cap;
// it is validated and stored before any row is written.
func (s *PaymentService) Add(ctx context.Context, orderID uint, in PaymentInput, proof *Upload) (*models.Payment, error) {
	v := validation.Struct(in)
	validation.Min("amount", in.Amount, s.limits.MinPaymentAmount, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}
	paidAt, err := parseDate("paid_at", in.PaidAt)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Select("id").First(&models.Order{}, orderID).Error; err != nil {
		return nil, notFound(err)
	}

	payment := &models.Payment{
		OrderID:      orderID,
		Amount:       in.Amount,
		PaidAt:       *paidAt,
		Method:       strings.TrimSpace(in.Method),
		Note:         strings.TrimSpace(in.Note),
		RecordedByID: actorID(ctx),
	}
	if proof != nil {
		stored, err := s.store.SaveImage(CategoryPaymentProofs, proof.Name, proof.Reader, s.limits.MaxProofBytes, s.limits.MaxImageWidth)
		if err != nil {
			return nil, uploadError("proof", err)
		}
		payment.ProofPath = stored.Path
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return s.recompute(ctx, tx, &order)
	})
	if err != nil {
		// the row never committed, the proof has no owner
		s.removeFile(CategoryPaymentProofs, payment.ProofPath)
		return nil, wrapTx(err)
	}
	s.metrics.PaymentRecorded()
	return payment, nil
}

// Delete removes a payment of the order and recomputes the order status.
// The proof file is removed after commit; a failure there leaves an orphan
// that is logged and counted.
func (s *PaymentService) Delete(ctx context.Context, orderID, paymentID uint) error {
	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockOrder(tx, orderID, &order); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", orderID).First(&payment, paymentID).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&payment).Error; err != nil {
			return err
		}
		return s.recompute(ctx, tx, &order)
	})
	if err != nil {
		return wrapTx(err)
	}
	s.metrics.PaymentDeleted()
	s.removeFile(CategoryPaymentProofs, payment.ProofPath)
	return nil
}

// recompute refreshes the derived fields of a locked order and saves them with an audit entry.
func (s *PaymentService) recompute(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	before := *order
	if err := refreshDerived(tx, order); err != nil {
		return err
	}
	return audit.Update(ctx, tx, &before, order)
}

func (s *PaymentService) removeFile(category, path string) {
	removeStored(s.store, s.metrics, category, path)
}

// removeStored deletes a file whose row is already gone. Failures are only logged and counted.
func removeStored(store FileStore, m *metrics.Metrics, category, path string) {
	if path == "" {
		return
	}
	if err := store.Remove(path); err != nil {
		slog.Warn("stored file left orphaned", "category", category, "path", path, "err", err)
		m.OrphanedFile(category)
	}
}
