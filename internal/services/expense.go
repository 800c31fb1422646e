package services

import (
	"context"
	"strings"
	"time"

	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

type ExpenseInput struct {
	SpentAt     string `json:"spent_at" validate:"required,datetime=2006-01-02"`
	Category    string `json:"category" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Amount      int64  `json:"amount" validate:"gt=0"`
	OrderID     *uint  `json:"order_id,omitempty"`
}

// ExpenseFilter narrows List; dates are inclusive.
type ExpenseFilter struct {
	From     string
	To       string
	Category string
	OrderID  uint
	Page     int
	PerPage  int
}

type ExpenseService struct {
	db *gorm.DB
}

func NewExpenseService(db *gorm.DB) *ExpenseService {
	return &ExpenseService{db: db}
}

func (s *ExpenseService) apply(tx *gorm.DB, in ExpenseInput, e *models.Expense) error {
	spentAt, err := parseDate("spent_at", in.SpentAt)
	if err != nil {
		return err
	}
	if in.OrderID != nil {
		if err := exists(tx, &models.Order{}, *in.OrderID, "order_id"); err != nil {
			return err
		}
	}
	e.SpentAt = *spentAt
	e.Category = strings.TrimSpace(in.Category)
	e.Description = strings.TrimSpace(in.Description)
	e.Amount = in.Amount
	e.OrderID = in.OrderID
	return nil
}

func (s *ExpenseService) Create(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	expense := &models.Expense{RecordedByID: actorID(ctx)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.apply(tx, in, expense); err != nil {
			return err
		}
		return audit.Create(ctx, tx, expense)
	})
	if err != nil {
		return nil, wrapTx(err)
	}
	return expense, nil
}

func (s *ExpenseService) Update(ctx context.Context, id uint, in ExpenseInput) (*models.Expense, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	var expense models.Expense
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&expense, id).Error; err != nil {
			return notFound(err)
		}
		before := expense
		if err := s.apply(tx, in, &expense); err != nil {
			return err
		}
		return audit.Update(ctx, tx, &before, &expense)
	})
	if err != nil {
		return nil, wrapTx(err)
	}
	return &expense, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expense models.Expense
		if err := tx.First(&expense, id).Error; err != nil {
			return notFound(err)
		}
		return audit.Delete(ctx, tx, &expense)
	})
	return wrapTx(notFound(err))
}

func (s *ExpenseService) Get(ctx context.Context, id uint) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.WithContext(ctx).First(&expense, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &expense, nil
}

func (s *ExpenseService) List(ctx context.Context, f ExpenseFilter) (*Page[models.Expense], error) {
	q := s.db.WithContext(ctx).Model(&models.Expense{})
	from, to, err := dateRange(f.From, f.To)
	if err != nil {
		return nil, err
	}
	if from != nil {
		q = q.Where("spent_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("spent_at < ?", *to)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.OrderID != 0 {
		q = q.Where("order_id = ?", f.OrderID)
	}
	return paginate[models.Expense](q, f.Page, f.PerPage, "spent_at DESC, id DESC")
}

// dateRange parses inclusive day bounds; the upper bound is returned as the next midnight.
func dateRange(from, to string) (*time.Time, *time.Time, error) {
	f, err := parseDate("from", from)
	if err != nil {
		return nil, nil, err
	}
	t, err := parseDate("to", to)
	if err != nil {
		return nil, nil, err
	}
	if t != nil {
		next := t.AddDate(0, 0, 1)
		t = &next
	}
	return f, t, nil
}
