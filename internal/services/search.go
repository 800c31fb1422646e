package services

import (
	"context"
	"strings"

	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// SearchLimit caps the hits per category.
const SearchLimit = 5

type SearchResults struct {
	Clients []models.Client `json:"clients"`
	Orders  []models.Order  `json:"orders"`
	Users   []models.User   `json:"users"`
}

type SearchService struct {
	db *gorm.DB
}

func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// Search matches clients by name or national id, orders by number or
// description, and users by name. A blank query matches nothing.
func (s *SearchService) Search(ctx context.Context, q string) (*SearchResults, error) {
	res := &SearchResults{Clients: []models.Client{}, Orders: []models.Order{}, Users: []models.User{}}
	if strings.TrimSpace(q) == "" {
		return res, nil
	}
	p := like(q)
	db := s.db.WithContext(ctx)

	err := db.Where("(LOWER(name) LIKE ?"+likeEscape+" OR LOWER(national_id) LIKE ?"+likeEscape+")", p, p).
		Order("name, id").Limit(SearchLimit).Find(&res.Clients).Error
	if err != nil {
		return nil, err
	}
	err = db.Preload("Client", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("(LOWER(order_number) LIKE ?"+likeEscape+" OR LOWER(description) LIKE ?"+likeEscape+")", p, p).
		Order("created_at DESC, id DESC").Limit(SearchLimit).Find(&res.Orders).Error
	if err != nil {
		return nil, err
	}
	err = db.Where("LOWER(name) LIKE ?"+likeEscape, p).
		Order("name, id").Limit(SearchLimit).Find(&res.Users).Error
	if err != nil {
		return nil, err
	}
	return res, nil
}
