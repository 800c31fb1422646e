// Package services holds the domain operations. Every mutation runs in one
// transaction; audited entities go through the audit package.
package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// Limits bounds user input that is not a plain field.
type Limits struct {
	MinPaymentAmount int64
	MaxUploadBytes   int64
	MaxProofBytes    int64
	MaxImageWidth    int
}

// DefaultLimits mirrors the configuration defaults.
var DefaultLimits = Limits{
	MinPaymentAmount: 1000,
	MaxUploadBytes:   10 << 20,
	MaxProofBytes:    2 << 20,
	MaxImageWidth:    1600,
}

// FileStore is the part of the storage layer the services use.
type FileStore interface {
	Save(category, originalName string, r io.Reader, maxBytes int64) (storage.Stored, error)
	SaveImage(category, originalName string, r io.Reader, maxBytes int64, maxWidth int) (storage.Stored, error)
	Remove(rel string) error
}

// Upload is a file received from a client.
type Upload struct {
	Name   string
	Reader io.Reader
}

// Storage categories
const (
	CategoryOrderFiles    = "order-files"
	CategoryPaymentProofs = "payment-proofs"
	CategoryLogos         = "logos"
)

// Page is one page of a list, newest first unless stated otherwise.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func paginate[T any](q *gorm.DB, page, perPage int, order string, preloads ...string) (*Page[T], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	find := q.Order(order)
	for _, p := range preloads {
		find = find.Preload(p)
	}
	items := []T{}
	if err := find.Limit(perPage).Offset((page - 1) * perPage).Find(&items).Error; err != nil {
		return nil, err
	}
	return &Page[T]{Items: items, Page: page, PerPage: perPage, Total: total}, nil
}

// actorID is the authenticated user of the request, nil for the system.
func actorID(ctx context.Context) *uint {
	if uid, ok := auth.UserIDFromContext(ctx); ok && uid != 0 {
		return &uid
	}
	return nil
}

// forUpdate locks the selected rows until the transaction ends.
// SQLite ignores the clause; its writes are serialized anyway.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// likeEscape must follow every LIKE using a pattern from like; SQLite has no default escape character.
const likeEscape = ` ESCAPE '\'`

// like builds a case-insensitive contains pattern.
func like(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(q))) + "%"
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, invalid(field, "invalid")
	}
	return &t, nil
}
