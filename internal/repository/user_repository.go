package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"category-dashboard/internal/model"
)

// UserRepository handles lookups and registration of users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns the full stored row, password hash included.
// A nil user with a nil error means no user has that email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find user by email: %w", err)
	}
}

// FindByID returns the public profile of a user, or nil if absent.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("id", "name", "email").
		Where("id = ?", id).
		Take(&profile).Error
	switch {
	case err == nil:
		return &profile, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find user by id: %w", err)
	}
}

// Create inserts a user. The password must already be hashed.
// A duplicate email fails with an error for which IsUniqueViolation is true.
func (r *UserRepository) Create(ctx context.Context, input model.NewUser) (*model.UserProfile, error) {
	user := model.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &model.UserProfile{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}
