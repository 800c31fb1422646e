package policy

import (
	"context"
	"errors"

	"github.com/diewo77/go-ppat/gate"
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// DBRoleResolver maps a user id to the static profile of the user's role.
// It implements the gate.ProfileResolver interface for uint user IDs.
type DBRoleResolver struct {
	DB *gorm.DB
}

func NewDBRoleResolver(db *gorm.DB) *DBRoleResolver {
	return &DBRoleResolver{DB: db}
}

// Resolve returns nil for unknown, deleted or inactive users.
func (r *DBRoleResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Select("id", "role", "is_active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return ProfileFor(user.Role), nil
}
