package services

import (
	"context"
	"strings"
	"time"

	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// NotificationWindow is how far ahead Upcoming looks.
const NotificationWindow = 3 * 24 * time.Hour

type ScheduleInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=5000"`
	Location    string     `json:"location" validate:"max=255"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at,omitempty" validate:"omitempty,gtefield=StartsAt"`
	OrderID     *uint      `json:"order_id,omitempty"`
	ClientID    *uint      `json:"client_id,omitempty"`
}

type ScheduleService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db, now: time.Now}
}

func (s *ScheduleService) apply(tx *gorm.DB, in ScheduleInput, sc *models.Schedule) error {
	if in.OrderID != nil {
		if err := exists(tx, &models.Order{}, *in.OrderID, "order_id"); err != nil {
			return err
		}
	}
	if in.ClientID != nil {
		if err := exists(tx, &models.Client{}, *in.ClientID, "client_id"); err != nil {
			return err
		}
	}
	sc.Title = strings.TrimSpace(in.Title)
	sc.Description = strings.TrimSpace(in.Description)
	sc.Location = strings.TrimSpace(in.Location)
	sc.StartsAt = in.StartsAt
	sc.EndsAt = in.EndsAt
	sc.OrderID = in.OrderID
	sc.ClientID = in.ClientID
	return nil
}

func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (*models.Schedule, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	sc := &models.Schedule{CreatedByID: actorID(ctx)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.apply(tx, in, sc); err != nil {
			return err
		}
		return tx.Create(sc).Error
	})
	if err != nil {
		return nil, wrapTx(err)
	}
	return sc, nil
}

func (s *ScheduleService) Update(ctx context.Context, id uint, in ScheduleInput) (*models.Schedule, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	var sc models.Schedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sc, id).Error; err != nil {
			return notFound(err)
		}
		if err := s.apply(tx, in, &sc); err != nil {
			return err
		}
		return tx.Save(&sc).Error
	})
	if err != nil {
		return nil, wrapTx(err)
	}
	return &sc, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Schedule{}, id)
	if res.Error != nil {
		return wrapTx(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ScheduleService) Get(ctx context.Context, id uint) (*models.Schedule, error) {
	var sc models.Schedule
	if err := s.db.WithContext(ctx).First(&sc, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &sc, nil
}

// List returns schedules by start time, latest first.
func (s *ScheduleService) List(ctx context.Context, page, perPage int) (*Page[models.Schedule], error) {
	return paginate[models.Schedule](s.db.WithContext(ctx).Model(&models.Schedule{}), page, perPage, "starts_at DESC, id DESC")
}

// Upcoming returns the entries starting between now and the notification window, soonest first.
func (s *ScheduleService) Upcoming(ctx context.Context) ([]models.Schedule, error) {
	now := s.now()
	var items []models.Schedule
	err := s.db.WithContext(ctx).
		Where("starts_at >= ? AND starts_at <= ?", now, now.Add(NotificationWindow)).
		Order("starts_at, id").
		Find(&items).Error
	return items, err
}

// exists reports a missing reference as a violation on field.
func exists(tx *gorm.DB, model any, id uint, field string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return invalid(field, "not_found")
	}
	return nil
}
