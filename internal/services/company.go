package services

import (
	"context"
	"strings"

	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/metrics"
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// DefaultCompanyName names the profile created on first access.
const DefaultCompanyName = "Kantor PPAT"

type CompanyInput struct {
	Name            string `json:"name" validate:"required,max=255"`
	OfficialName    string `json:"official_name" validate:"max=255"`
	LicenseNumber   string `json:"license_number" validate:"max=100"`
	TaxID           string `json:"tax_id" validate:"max=32"`
	Address         string `json:"address" validate:"max=500"`
	Phone           string `json:"phone" validate:"max=50"`
	Email           string `json:"email" validate:"omitempty,email,max=255"`
	BankName        string `json:"bank_name" validate:"max=100"`
	BankAccount     string `json:"bank_account" validate:"max=50"`
	BankAccountName string `json:"bank_account_name" validate:"max=255"`
	InvoiceFooter   string `json:"invoice_footer" validate:"max=1000"`
}

// CompanyService is the accessor of the company profile; exactly one row exists
// once Get has been called.
type CompanyService struct {
	db      *gorm.DB
	store   FileStore
	metrics *metrics.Metrics
	limits  Limits
}

func NewCompanyService(db *gorm.DB, store FileStore, m *metrics.Metrics, limits Limits) *CompanyService {
	return &CompanyService{db: db, store: store, metrics: m, limits: limits}
}

// Get returns the profile, creating the default row on first access.
func (s *CompanyService) Get(ctx context.Context) (*models.Company, error) {
	return current(s.db.WithContext(ctx))
}

func current(tx *gorm.DB) (*models.Company, error) {
	var c models.Company
	err := tx.Order("id").Attrs(models.Company{Name: DefaultCompanyName}).FirstOrCreate(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CompanyService) Update(ctx context.Context, in CompanyInput) (*models.Company, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	var company *models.Company
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := current(tx)
		if err != nil {
			return err
		}
		before := *c
		c.Name = strings.TrimSpace(in.Name)
		c.OfficialName = strings.TrimSpace(in.OfficialName)
		c.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
		c.TaxID = strings.TrimSpace(in.TaxID)
		c.Address = strings.TrimSpace(in.Address)
		c.Phone = strings.TrimSpace(in.Phone)
		c.Email = strings.TrimSpace(in.Email)
		c.BankName = strings.TrimSpace(in.BankName)
		c.BankAccount = strings.TrimSpace(in.BankAccount)
		c.BankAccountName = strings.TrimSpace(in.BankAccountName)
		c.InvoiceFooter = strings.TrimSpace(in.InvoiceFooter)
		company = c
		return audit.Update(ctx, tx, &before, c)
	})
	if err != nil {
		return nil, wrapTx(err)
	}
	return company, nil
}

// SetLogo stores a new logo image and replaces the previous one.
func (s *CompanyService) SetLogo(ctx context.Context, up Upload) (*models.Company, error) {
	if up.Name == "" || up.Reader == nil {
		return nil, invalid("logo", "required")
	}
	stored, err := s.store.SaveImage(CategoryLogos, up.Name, up.Reader, s.limits.MaxProofBytes, s.limits.MaxImageWidth)
	if err != nil {
		return nil, uploadError("logo", err)
	}
	company, previous, err := s.swapLogo(ctx, stored.Path)
	if err != nil {
		removeStored(s.store, s.metrics, CategoryLogos, stored.Path)
		return nil, err
	}
	removeStored(s.store, s.metrics, CategoryLogos, previous)
	return company, nil
}

// DeleteLogo clears the logo; it is not an error when there is none.
func (s *CompanyService) DeleteLogo(ctx context.Context) (*models.Company, error) {
	company, previous, err := s.swapLogo(ctx, "")
	if err != nil {
		return nil, err
	}
	removeStored(s.store, s.metrics, CategoryLogos, previous)
	return company, nil
}

func (s *CompanyService) swapLogo(ctx context.Context, path string) (*models.Company, string, error) {
	var (
		company  *models.Company
		previous string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := current(tx)
		if err != nil {
			return err
		}
		before := *c
		previous = c.LogoPath
		c.LogoPath = path
		company = c
		return audit.Update(ctx, tx, &before, c)
	})
	if err != nil {
		return nil, "", wrapTx(err)
	}
	return company, previous, nil
}
