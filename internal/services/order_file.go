package services

import (
	"context"

	"github.com/diewo77/go-ppat/internal/metrics"
	"github.com/diewo77/go-ppat/internal/models"
	"github.com/diewo77/go-ppat/internal/storage"
	"gorm.io/gorm"
)

// AllowedAttachmentExtensions lists what can be attached to an order.
var AllowedAttachmentExtensions = []string{"pdf", "jpg", "jpeg", "png", "doc", "docx", "xls", "xlsx"}

type OrderFileService struct {
	db      *gorm.DB
	store   FileStore
	metrics *metrics.Metrics
	limits  Limits
}

func NewOrderFileService(db *gorm.DB, store FileStore, m *metrics.Metrics, limits Limits) *OrderFileService {
	return &OrderFileService{db: db, store: store, metrics: m, limits: limits}
}

// Add stores an attachment and records it on the order. Type and size are
// checked before anything is written.
func (s *OrderFileService) Add(ctx context.Context, orderID uint, category string, up Upload) (*models.OrderFile, error) {
	if up.Name == "" || up.Reader == nil {
		return nil, invalid("file", "required")
	}
	if len(category) > 50 {
		return nil, invalid("category", "too_large")
	}
	if err := storage.CheckExtension(up.Name, AllowedAttachmentExtensions); err != nil {
		return nil, uploadError("file", err)
	}
	if err := s.db.WithContext(ctx).Select("id").First(&models.Order{}, orderID).Error; err != nil {
		return nil, notFound(err)
	}
	stored, err := s.store.Save(CategoryOrderFiles, up.Name, up.Reader, s.limits.MaxUploadBytes)
	if err != nil {
		return nil, uploadError("file", err)
	}
	file := &models.OrderFile{
		OrderID:      orderID,
		Name:         stored.Name,
		Path:         stored.Path,
		Extension:    stored.Extension,
		Category:     category,
		Size:         stored.Size,
		UploadedByID: actorID(ctx),
	}
	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		removeStored(s.store, s.metrics, CategoryOrderFiles, stored.Path)
		return nil, wrapTx(err)
	}
	return file, nil
}

// Delete removes the attachment row, then its stored file.
func (s *OrderFileService) Delete(ctx context.Context, orderID, fileID uint) error {
	var file models.OrderFile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).First(&file, fileID).Error; err != nil {
			return notFound(err)
		}
		return tx.Delete(&file).Error
	})
	if err != nil {
		return wrapTx(err)
	}
	removeStored(s.store, s.metrics, CategoryOrderFiles, file.Path)
	return nil
}

// Find returns one attachment of an order.
func (s *OrderFileService) Find(ctx context.Context, orderID, fileID uint) (*models.OrderFile, error) {
	var file models.OrderFile
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&file, fileID).Error; err != nil {
		return nil, notFound(err)
	}
	return &file, nil
}
