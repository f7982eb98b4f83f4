package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "co2plus/internal/errors"
	"co2plus/internal/model"
	"co2plus/internal/notifier"
	"co2plus/internal/repository"
	"co2plus/internal/validate"
)

// Pagination describes a page of a listing.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

func paginate(total int64, page, limit int) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Total: total, Page: page, Limit: limit, Pages: pages}
}

// UserService exposes the user listing and the approval workflow.
type UserService interface {
	List(ctx context.Context, page, limit int) ([]model.SafeUser, Pagination, error)
	GetByEmail(ctx context.Context, email string) (*model.SafeUser, error)
	Approve(ctx context.Context, userID uint, meta notifier.Meta) (*model.SafeUser, error)
	Reject(ctx context.Context, userID uint, reason string, meta notifier.Meta) (*model.SafeUser, error)
	UpdateStatus(ctx context.Context, userID uint, status string) (*model.SafeUser, error)
}

type userService struct {
	users  repository.UserRepository
	events notifier.Client
}

// NewUserService builds a UserService.
func NewUserService(users repository.UserRepository, events notifier.Client) UserService {
	return &userService{users: users, events: events}
}

func (s *userService) List(ctx context.Context, page, limit int) ([]model.SafeUser, Pagination, error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list users: %w", err)
	}

	safe := make([]model.SafeUser, 0, len(users))
	for i := range users {
		safe = append(safe, *users[i].Sanitize())
	}
	return safe, paginate(total, page, limit), nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*model.SafeUser, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.Sanitize(), nil
}

// Approve moves the account to active and emits the approval event. Approving
// an already-active account is rejected without touching the row.
func (s *userService) Approve(ctx context.Context, userID uint, meta notifier.Meta) (*model.SafeUser, error) {
	return s.transition(ctx, userID, model.StatusActive, model.EventAccountApproved, meta, nil)
}

// Reject moves the account to rejected, carrying the reason in the event
// metadata.
func (s *userService) Reject(ctx context.Context, userID uint, reason string, meta notifier.Meta) (*model.SafeUser, error) {
	if reason == "" {
		reason = "Administrative decision"
	}
	return s.transition(ctx, userID, model.StatusRejected, model.EventAccountRejected, meta,
		map[string]any{"reason": reason})
}

// transition performs the guarded status change and fires the best-effort
// event. The status update is committed before emission and is never rolled
// back by a notification failure.
func (s *userService) transition(ctx context.Context, userID uint, target, eventType string, meta notifier.Meta, metadata map[string]any) (*model.SafeUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user.Status == target {
		return nil, apperrors.ErrAlreadyInStatus
	}

	if err := s.users.UpdateStatus(ctx, userID, target); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	user.Status = target

	roleName := user.RoleName()
	if roleName == "" {
		roleName = model.RoleUser
	}
	s.events.Emit(notifier.Event{
		EventType: eventType,
		User: &notifier.UserPayload{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			RoleName: roleName,
		},
		IPAddress:  meta.IP,
		DeviceInfo: meta.Device,
		Metadata:   metadata,
	})

	return user.Sanitize(), nil
}

// UpdateStatus sets an arbitrary status from the known set.
func (s *userService) UpdateStatus(ctx context.Context, userID uint, status string) (*model.SafeUser, error) {
	if !validate.Status(status) {
		return nil, apperrors.ErrInvalidStatus
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	user.Status = status
	return user.Sanitize(), nil
}
