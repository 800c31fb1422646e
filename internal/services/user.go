package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/internal/audit"
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/gorm"
)

// UserInput creates or updates a user. On update an empty password keeps the current one.
type UserInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     string `json:"role" validate:"required"`
	IsActive *bool  `json:"is_active,omitempty"`
}

type UserService struct {
	db *gorm.DB
	// invalidate drops cached authorization data of a user whose role or state changed.
	invalidate func(userID uint)
}

func NewUserService(db *gorm.DB, invalidate func(userID uint)) *UserService {
	if invalidate == nil {
		invalidate = func(uint) {}
	}
	return &UserService{db: db, invalidate: invalidate}
}

// check normalizes the email and validates the input.
func (in *UserInput) check() error {
	in.Email = normalizeEmail(in.Email)
	if err := check(*in); err != nil {
		return err
	}
	if !models.Role(in.Role).Valid() {
		return invalid("role", "invalid_choice")
	}
	return nil
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, invalid("password", "required")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    in.Email,
		Password: hash,
		Role:     models.Role(in.Role),
		IsActive: true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := emailFree(tx, user.Email, 0); err != nil {
			return err
		}
		if err := audit.Create(ctx, tx, user); err != nil {
			return err
		}
		// the column default would override a false on insert
		if in.IsActive != nil && !*in.IsActive {
			before := *user
			user.IsActive = false
			return audit.Update(ctx, tx, &before, user)
		}
		return nil
	})
	if err != nil {
		return nil, userError(err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, in UserInput) (*models.User, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err)
		}
		before := user
		user.Name = strings.TrimSpace(in.Name)
		user.Email = in.Email
		user.Role = models.Role(in.Role)
		if in.IsActive != nil {
			user.IsActive = *in.IsActive
		}
		if in.Password != "" {
			hash, err := auth.HashPassword(in.Password)
			if err != nil {
				return err
			}
			user.Password = hash
		}
		if err := emailFree(tx, user.Email, id); err != nil {
			return err
		}
		return audit.Update(ctx, tx, &before, &user)
	})
	if err != nil {
		return nil, userError(err)
	}
	s.invalidate(id)
	return &user, nil
}

// Delete soft-deletes the user. Authorization, including the self-delete guard,
// is the caller's concern.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err)
		}
		return audit.Delete(ctx, tx, &user)
	})
	if err != nil {
		return wrapTx(notFound(err))
	}
	s.invalidate(id)
	return nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, q string, page, perPage int) (*Page[models.User], error) {
	db := s.db.WithContext(ctx).Model(&models.User{})
	if q != "" {
		p := like(q)
		db = db.Where("(LOWER(name) LIKE ?"+likeEscape+" OR LOWER(email) LIKE ?"+likeEscape+")", p, p)
	}
	return paginate[models.User](db, page, perPage, "name, id")
}

// Authenticate returns the active user matching the credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !auth.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Active reports whether the user exists and may sign in.
func (s *UserService) Active(ctx context.Context, id uint) bool {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ? AND is_active = ?", id, true).Count(&count).Error
	return err == nil && count == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailFree(tx *gorm.DB, email string, except uint) error {
	var count int64
	err := tx.Unscoped().Model(&models.User{}).Where("email = ? AND id <> ?", email, except).Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return invalid("email", "taken")
	}
	return nil
}

func userError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return invalid("email", "taken")
	}
	return wrapTx(err)
}
