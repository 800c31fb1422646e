package services

import (
	"context"

	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// NewActivityFeed returns the audit feed with labels for every audited subject.
func NewActivityFeed(db *gorm.DB) *audit.Feed {
	f := audit.NewFeed(db)
	f.RegisterLabeler("client", labels[models.Client]("name"))
	f.RegisterLabeler("order", labels[models.Order]("order_number"))
	f.RegisterLabeler("expense", labels[models.Expense]("category"))
	f.RegisterLabeler("user", labels[models.User]("email"))
	f.RegisterLabeler("company", labels[models.Company]("name"))
	return f
}

// labels reads one column of T as the label, including soft-deleted rows.
func labels[T any](column string) audit.Labeler {
	return func(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]string, error) {
		var rows []struct {
			ID    uint
			Label string
		}
		err := db.WithContext(ctx).Unscoped().Model(new(T)).
			Select("id, "+column+" AS label").
			Where("id IN ?", ids).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		out := make(map[uint]string, len(rows))
		for _, r := range rows {
			out[r.ID] = r.Label
		}
		return out, nil
	}
}
