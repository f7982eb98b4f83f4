package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"co2plus/internal/model"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	MarkVerified(ctx context.Context, id uint) error
	UpdateLoginState(ctx context.Context, id uint, attempts int, lockUntil *time.Time) error
	UpdateStatus(ctx context.Context, id uint, status string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Delete physically removes a row. Only used for the compensating cleanup of
// a registration whose OTP email could not be delivered.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, id).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// MarkVerified flips the verification flag and clears the OTP fields in one
// update.
func (r *userRepository) MarkVerified(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"verified":       true,
			"otp_code":       nil,
			"otp_expires_at": nil,
		}).Error
}

// UpdateLoginState persists the attempt counter and lock deadline. This is a
// plain read-modify-write from the caller's side; concurrent logins race on
// it last-write-wins, which is the documented behavior.
func (r *userRepository) UpdateLoginState(ctx context.Context, id uint, attempts int, lockUntil *time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"login_attempts": attempts,
			"lock_until":     lockUntil,
		}).Error
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("status", status).Error
}
