package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"co2plus/internal/cache"
	apperrors "co2plus/internal/errors"
	"co2plus/internal/model"
	"co2plus/internal/repository"
)

const (
	statsCacheTTL      = 30 * time.Second
	highSeverityAtTry  = 3
	defaultUnreadLimit = 50
)

// EventUser is the inbound user snapshot of an event. Alternate field names
// from older emitters (name, user_role) are tolerated and normalized before
// dispatch.
type EventUser struct {
	ID       *uint  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	UserRole string `json:"user_role"`
}

// EventInput is a typed event received on the internal event endpoint.
type EventInput struct {
	EventType     string         `json:"event_type"`
	User          *EventUser     `json:"user"`
	IPAddress     string         `json:"ip_address"`
	DeviceInfo    string         `json:"device_info"`
	AttemptNumber int            `json:"attempt_number"`
	Metadata      map[string]any `json:"metadata"`
}

// normalized is the canonical event shape handlers dispatch on.
type normalized struct {
	userID   *uint
	username string
	email    string
	role     string
	ip       string
	device   string
}

func (in *EventInput) normalize() normalized {
	n := normalized{
		role:   "user",
		ip:     "unknown",
		device: "unknown",
	}
	if in.User != nil {
		n.userID = in.User.ID
		n.email = in.User.Email
		n.username = in.User.Username
		if n.username == "" {
			n.username = in.User.Name
		}
		if n.username == "" {
			n.username = in.User.Email
		}
		if in.User.Role != "" {
			n.role = in.User.Role
		} else if in.User.UserRole != "" {
			n.role = in.User.UserRole
		}
	}
	if in.IPAddress != "" {
		n.ip = in.IPAddress
	}
	if in.DeviceInfo != "" {
		n.device = in.DeviceInfo
	}
	return n
}

// NotificationService processes inbound events and serves the notification
// read side.
type NotificationService interface {
	ProcessEvent(ctx context.Context, in EventInput) (*model.Notification, error)
	List(ctx context.Context, page, limit int, filters repository.NotificationFilters) ([]model.Notification, Pagination, error)
	Unread(ctx context.Context, limit int) ([]model.Notification, error)
	ByUser(ctx context.Context, userID uint, page, limit int) ([]model.Notification, Pagination, error)
	ByID(ctx context.Context, id uint) (*model.Notification, error)
	Stats(ctx context.Context, hoursBack int) (*repository.NotificationStats, error)
	MarkRead(ctx context.Context, id uint) (*model.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) error
	AdminUserView(ctx context.Context) ([]repository.AdminUserEvent, error)
}

type notificationService struct {
	repo  repository.NotificationRepository
	cache *cache.Client
}

// NewNotificationService builds a NotificationService with repository and
// cache.
func NewNotificationService(repo repository.NotificationRepository, cache *cache.Client) NotificationService {
	return &notificationService{repo: repo, cache: cache}
}

// ProcessEvent dispatches exhaustively over the event enum and persists one
// notification record per recognized event.
func (s *notificationService) ProcessEvent(ctx context.Context, in EventInput) (*model.Notification, error) {
	if in.EventType == "" {
		return nil, fmt.Errorf("%w: event_type is required", apperrors.ErrInvalidEvent)
	}

	n := in.normalize()

	var record *model.Notification
	switch in.EventType {
	case model.EventUserSignup:
		if n.email == "" {
			return nil, fmt.Errorf("%w: signup event requires user email", apperrors.ErrInvalidEvent)
		}
		record = s.userEvent(in.EventType, n, map[string]any{
			"action": "New user registration",
			"source": "signup",
		})

	case model.EventUserLogin:
		if n.email == "" {
			return nil, fmt.Errorf("%w: login event requires user email", apperrors.ErrInvalidEvent)
		}
		record = s.userEvent(in.EventType, n, map[string]any{
			"action": "User login",
			"source": "login",
		})

	case model.EventLoginFailed:
		if n.email == "" {
			return nil, fmt.Errorf("%w: failed login event requires email", apperrors.ErrInvalidEvent)
		}
		attempt := in.AttemptNumber
		if attempt < 1 {
			attempt = 1
		}
		severity := "low"
		if attempt >= highSeverityAtTry {
			severity = "high"
		}
		record = &model.Notification{
			EventType:  in.EventType,
			Username:   n.email,
			Email:      n.email,
			UserRole:   "unknown",
			IPAddress:  n.ip,
			DeviceInfo: n.device,
			Status:     model.NotificationNew,
			Metadata: map[string]any{
				"action":         "Failed login attempt",
				"attempt_number": attempt,
				"severity":       severity,
				"source":         "security",
			},
		}

	case model.EventAccountLocked:
		if n.email == "" {
			return nil, fmt.Errorf("%w: account locked event requires email", apperrors.ErrInvalidEvent)
		}
		record = &model.Notification{
			EventType:  in.EventType,
			Username:   n.email,
			Email:      n.email,
			UserRole:   "unknown",
			IPAddress:  n.ip,
			DeviceInfo: n.device,
			Status:     model.NotificationNew,
			Metadata: map[string]any{
				"action":   "Account locked",
				"severity": "critical",
				"source":   "security",
			},
		}

	case model.EventEmailVerified:
		if n.email == "" {
			return nil, fmt.Errorf("%w: email verified event requires user email", apperrors.ErrInvalidEvent)
		}
		record = s.userEvent(in.EventType, n, map[string]any{
			"action": "Email verified",
			"source": "email",
		})

	case model.EventAccountApproved:
		if n.email == "" {
			return nil, fmt.Errorf("%w: approval event requires user email", apperrors.ErrInvalidEvent)
		}
		record = s.userEvent(in.EventType, n, map[string]any{
			"action": "Account approved",
			"source": "admin",
		})

	case model.EventAccountRejected:
		if n.email == "" {
			return nil, fmt.Errorf("%w: rejection event requires user email", apperrors.ErrInvalidEvent)
		}
		meta := map[string]any{
			"action": "Account rejected",
			"source": "admin",
		}
		if reason, ok := in.Metadata["reason"]; ok {
			meta["reason"] = reason
		}
		record = s.userEvent(in.EventType, n, meta)

	default:
		return nil, fmt.Errorf("%w: unsupported event type %q", apperrors.ErrInvalidEvent, in.EventType)
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	// New rows change the aggregates, drop the cached stats.
	_ = s.cache.Delete(ctx, statsCacheKey(24))

	return record, nil
}

// userEvent builds the common record shape for events that carry a full user
// snapshot.
func (s *notificationService) userEvent(eventType string, n normalized, metadata map[string]any) *model.Notification {
	return &model.Notification{
		EventType:  eventType,
		UserID:     n.userID,
		Username:   n.username,
		Email:      n.email,
		UserRole:   n.role,
		IPAddress:  n.ip,
		DeviceInfo: n.device,
		Status:     model.NotificationNew,
		Metadata:   metadata,
	}
}

func (s *notificationService) List(ctx context.Context, page, limit int, filters repository.NotificationFilters) ([]model.Notification, Pagination, error) {
	items, total, err := s.repo.List(ctx, page, limit, filters)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list notifications: %w", err)
	}
	return items, paginate(total, page, limit), nil
}

func (s *notificationService) Unread(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultUnreadLimit
	}
	return s.repo.ListUnread(ctx, limit)
}

func (s *notificationService) ByUser(ctx context.Context, userID uint, page, limit int) ([]model.Notification, Pagination, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list notifications by user: %w", err)
	}
	return items, paginate(total, page, limit), nil
}

func (s *notificationService) ByID(ctx context.Context, id uint) (*model.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return n, nil
}

func statsCacheKey(hoursBack int) string {
	return fmt.Sprintf("notifications:stats:%dh", hoursBack)
}

// Stats serves the aggregate counters cache-aside with a short TTL.
func (s *notificationService) Stats(ctx context.Context, hoursBack int) (*repository.NotificationStats, error) {
	if hoursBack <= 0 {
		hoursBack = 24
	}

	key := statsCacheKey(hoursBack)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached repository.NotificationStats
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.repo.Stats(ctx, hoursBack)
	if err != nil {
		return nil, fmt.Errorf("notification stats: %w", err)
	}

	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, key, payload, statsCacheTTL)
	}
	return stats, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uint) (*model.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("mark read: %w", err)
	}
	_ = s.cache.Delete(ctx, statsCacheKey(24))
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	_ = s.cache.Delete(ctx, statsCacheKey(24))
	return count, nil
}

func (s *notificationService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotificationNotFound
		}
		return fmt.Errorf("delete notification: %w", err)
	}
	_ = s.cache.Delete(ctx, statsCacheKey(24))
	return nil
}

func (s *notificationService) AdminUserView(ctx context.Context) ([]repository.AdminUserEvent, error) {
	return s.repo.AdminUserView(ctx)
}
