package db

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalog struct {
	ServiceTypes []struct {
		Slug        string `yaml:"slug"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Services    []struct {
			Name         string `yaml:"name"`
			DefaultPrice int64  `yaml:"default_price"`
		} `yaml:"services"`
	} `yaml:"service_types"`
}

// SeedOptions carries the bootstrap super admin. Empty email skips it.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	CompanyName   string
}

// Seed inserts reference data. It is idempotent.
func Seed(db *gorm.DB, opts SeedOptions) error {
	if err := seedCatalog(db); err != nil {
		return err
	}
	companyName := opts.CompanyName
	if companyName == "" {
		companyName = "Kantor Notaris & PPAT"
	}
	var company models.Company
	if err := db.Order("id").Attrs(models.Company{Name: companyName}).FirstOrCreate(&company).Error; err != nil {
		return fmt.Errorf("seed company: %w", err)
	}
	if opts.AdminEmail != "" {
		if err := seedAdmin(db, opts); err != nil {
			return err
		}
	}
	return nil
}

func seedCatalog(db *gorm.DB) error {
	var c catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	for _, st := range c.ServiceTypes {
		typ := models.ServiceType{}
		err := db.Where(models.ServiceType{Slug: st.Slug}).
			Attrs(models.ServiceType{Name: st.Name, Description: st.Description}).
			FirstOrCreate(&typ).Error
		if err != nil {
			return fmt.Errorf("seed service type %s: %w", st.Slug, err)
		}
		for _, s := range st.Services {
			svc := models.Service{}
			err := db.Where(models.Service{ServiceTypeID: typ.ID, Name: s.Name}).
				Attrs(models.Service{DefaultPrice: s.DefaultPrice, IsActive: true}).
				FirstOrCreate(&svc).Error
			if err != nil {
				return fmt.Errorf("seed service %s: %w", s.Name, err)
			}
		}
	}
	return nil
}

func seedAdmin(db *gorm.DB, opts SeedOptions) error {
	var existing models.User
	err := db.Unscoped().Where("email = ?", opts.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if opts.AdminPassword == "" {
		return errors.New("seed admin: ADMIN_PASSWORD is required with ADMIN_EMAIL")
	}
	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		Email:    opts.AdminEmail,
		Name:     opts.AdminName,
		Password: hash,
		Role:     models.RoleSuperAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.Info("bootstrap super admin created", "email", admin.Email)
	return nil
}
