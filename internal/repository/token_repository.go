package repository

import (
	"context"

	"gorm.io/gorm"

	"co2plus/internal/model"
)

// TokenRepository appends issued tokens to the audit log. There is no update
// or delete: revocation is natural JWT expiry.
type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository builds a GORM-backed repository.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.Token) error {
	return r.db.WithContext(ctx).Create(token).Error
}
