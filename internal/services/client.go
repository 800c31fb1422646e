package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

type ClientInput struct {
	Type       string `json:"type" validate:"required,oneof=individual company"`
	Name       string `json:"name" validate:"required,max=255"`
	NationalID string `json:"national_id" validate:"required,max=32"`
	TaxID      string `json:"tax_id" validate:"max=32"`
	Phone      string `json:"phone" validate:"max=50"`
	Email      string `json:"email" validate:"omitempty,email,max=255"`
	Address    string `json:"address" validate:"max=500"`
	Notes      string `json:"notes" validate:"max=5000"`
}

type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

func (in ClientInput) apply(c *models.Client) {
	c.Type = models.ClientType(in.Type)
	c.Name = strings.TrimSpace(in.Name)
	c.NationalID = strings.TrimSpace(in.NationalID)
	c.TaxID = strings.TrimSpace(in.TaxID)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
	c.Address = strings.TrimSpace(in.Address)
	c.Notes = strings.TrimSpace(in.Notes)
}

func (s *ClientService) Create(ctx context.Context, in ClientInput) (*models.Client, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	client := &models.Client{}
	in.apply(client)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := nationalIDFree(tx, client.NationalID, 0); err != nil {
			return err
		}
		return audit.Create(ctx, tx, client)
	})
	if err != nil {
		return nil, clientError(err)
	}
	return client, nil
}

func (s *ClientService) Update(ctx context.Context, id uint, in ClientInput) (*models.Client, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	var client models.Client
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&client, id).Error; err != nil {
			return notFound(err)
		}
		before := client
		in.apply(&client)
		if err := nationalIDFree(tx, client.NationalID, id); err != nil {
			return err
		}
		return audit.Update(ctx, tx, &before, &client)
	})
	if err != nil {
		return nil, clientError(err)
	}
	return &client, nil
}

// Delete soft-deletes the client; its orders keep referring to it.
func (s *ClientService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.First(&client, id).Error; err != nil {
			return notFound(err)
		}
		return audit.Delete(ctx, tx, &client)
	})
	return wrapTx(notFound(err))
}

func (s *ClientService) Get(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

// List returns clients by name, optionally filtered by name or national id.
func (s *ClientService) List(ctx context.Context, q string, page, perPage int) (*Page[models.Client], error) {
	db := s.db.WithContext(ctx).Model(&models.Client{})
	if q != "" {
		p := like(q)
		db = db.Where("(LOWER(name) LIKE ?"+likeEscape+" OR LOWER(national_id) LIKE ?"+likeEscape+")", p, p)
	}
	return paginate[models.Client](db, page, perPage, "name, id")
}

// nationalIDFree also counts soft-deleted clients since the unique index does.
func nationalIDFree(tx *gorm.DB, nationalID string, except uint) error {
	var count int64
	err := tx.Unscoped().Model(&models.Client{}).
		Where("national_id = ? AND id <> ?", nationalID, except).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return invalid("national_id", "taken")
	}
	return nil
}

func clientError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return invalid("national_id", "taken")
	}
	return wrapTx(err)
}
