package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"co2plus/internal/model"
)

// RoleRepository defines role reference-data lookups.
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	FindByName(ctx context.Context, name string) (*model.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository builds a GORM-backed repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

// FindByName matches the role name case-insensitively.
func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).
		Where("UPPER(role_name) = ?", strings.ToUpper(name)).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}
