package audit

import (
	"context"

	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// Labeler resolves display labels for a batch of subject ids of one type.
type Labeler func(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]string, error)

// Entry is an activity log row ready for display.
type Entry struct {
	models.ActivityLog
	CauserName   string `json:"causer_name"`
	SubjectLabel string `json:"subject_label,omitempty"`
}

// FeedPage is one page of the activity feed, newest first.
type FeedPage struct {
	Entries []Entry `json:"entries"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Total   int64   `json:"total"`
}

// Feed is the read side of the activity log.
type Feed struct {
	db       *gorm.DB
	labelers map[string]Labeler
}

func NewFeed(db *gorm.DB) *Feed {
	return &Feed{db: db, labelers: map[string]Labeler{}}
}

// RegisterLabeler sets how subjects of subjectType are labelled.
func (f *Feed) RegisterLabeler(subjectType string, l Labeler) {
	f.labelers[subjectType] = l
}

// FeedFilter narrows the feed. Zero values mean no filter.
type FeedFilter struct {
	SubjectType string
	SubjectID   uint
	CauserID    uint
}

// List returns a page of entries, newest first, with causer and subject labels resolved.
func (f *Feed) List(ctx context.Context, filter FeedFilter, page, perPage int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	q := f.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filter.SubjectType != "" {
		q = q.Where("subject_type = ?", filter.SubjectType)
	}
	if filter.SubjectID != 0 {
		q = q.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.CauserID != 0 {
		q = q.Where("causer_id = ?", filter.CauserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var logs []models.ActivityLog
	err := q.Preload("Causer", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC").Order("id DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	idsByType := map[string][]uint{}
	for _, l := range logs {
		idsByType[l.SubjectType] = append(idsByType[l.SubjectType], l.SubjectID)
	}
	labels := map[string]map[uint]string{}
	for typ, ids := range idsByType {
		labeler, ok := f.labelers[typ]
		if !ok {
			continue
		}
		m, err := labeler(ctx, f.db.WithContext(ctx), ids)
		if err != nil {
			return nil, err
		}
		labels[typ] = m
	}

	out := &FeedPage{Entries: make([]Entry, 0, len(logs)), Page: page, PerPage: perPage, Total: total}
	for _, l := range logs {
		e := Entry{ActivityLog: l, CauserName: "system"}
		if l.Causer != nil {
			e.CauserName = l.Causer.Name
			if e.CauserName == "" {
				e.CauserName = l.Causer.Email
			}
		}
		e.SubjectLabel = labels[l.SubjectType][l.SubjectID]
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}
