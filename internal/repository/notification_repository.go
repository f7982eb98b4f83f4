package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"co2plus/internal/model"
)

// NotificationFilters narrows notification listings. Zero values mean "no
// filter".
type NotificationFilters struct {
	EventType string
	Status    string
	UserID    uint
}

// NotificationStats aggregates activity over a trailing window.
type NotificationStats struct {
	Total          int64 `json:"total"`
	Unread         int64 `json:"unread"`
	Signups        int64 `json:"signups"`
	Logins         int64 `json:"logins"`
	FailedAttempts int64 `json:"failed_attempts"`
	LastHour       int64 `json:"last_hour"`
}

// AdminUserEvent is the admin dashboard row joining a notification to the
// current status of the user it concerns.
type AdminUserEvent struct {
	NotificationID     uint      `json:"notification_id"`
	EventType          string    `json:"event_type"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	UserRole           string    `json:"user_role"`
	IPAddress          string    `json:"ip_address"`
	DeviceInfo         string    `json:"device_info"`
	NotificationStatus string    `json:"notification_status"`
	CreatedAt          time.Time `json:"created_at"`
	UserID             *uint     `json:"user_id"`
	UserStatus         *string   `json:"user_status"`
}

// NotificationRepository defines notification persistence operations.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	FindByID(ctx context.Context, id uint) (*model.Notification, error)
	List(ctx context.Context, page, limit int, filters NotificationFilters) ([]model.Notification, int64, error)
	ListUnread(ctx context.Context, limit int) ([]model.Notification, error)
	ListByUser(ctx context.Context, userID uint, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id uint) (*model.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context, hoursBack int) (*NotificationStats, error)
	AdminUserView(ctx context.Context) ([]AdminUserEvent, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository builds a GORM-backed repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) FindByID(ctx context.Context, id uint) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) filtered(ctx context.Context, filters NotificationFilters) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Notification{})
	if filters.EventType != "" {
		q = q.Where("event_type = ?", filters.EventType)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.UserID != 0 {
		q = q.Where("user_id = ?", filters.UserID)
	}
	return q
}

func (r *notificationRepository) List(ctx context.Context, page, limit int, filters NotificationFilters) ([]model.Notification, int64, error) {
	var total int64
	if err := r.filtered(ctx, filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Notification
	err := r.filtered(ctx, filters).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *notificationRepository) ListUnread(ctx context.Context, limit int) ([]model.Notification, error) {
	var items []model.Notification
	err := r.db.WithContext(ctx).
		Where("status = ?", model.NotificationNew).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]model.Notification, int64, error) {
	return r.List(ctx, page, limit, NotificationFilters{UserID: userID})
}

// MarkRead transitions new -> read and stamps read_at. Returns the updated
// record or gorm.ErrRecordNotFound.
func (r *notificationRepository) MarkRead(ctx context.Context, id uint) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	n.Status = model.NotificationRead
	n.ReadAt = &now
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  model.NotificationRead,
			"read_at": now,
		}).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("status = ?", model.NotificationNew).
		Updates(map[string]interface{}{
			"status":  model.NotificationRead,
			"read_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Notification{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Stats aggregates in one pass using Postgres filtered counts.
func (r *notificationRepository) Stats(ctx context.Context, hoursBack int) (*NotificationStats, error) {
	var stats NotificationStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = ?) AS unread,
			COUNT(*) FILTER (WHERE event_type = ?) AS signups,
			COUNT(*) FILTER (WHERE event_type = ?) AS logins,
			COUNT(*) FILTER (WHERE event_type = ?) AS failed_attempts,
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '1 hour') AS last_hour
		FROM notifications
		WHERE created_at > NOW() - make_interval(hours => ?)`,
		model.NotificationNew,
		model.EventUserSignup,
		model.EventUserLogin,
		model.EventLoginFailed,
		hoursBack,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// AdminUserView joins notifications to the live user status for the admin
// users page.
func (r *notificationRepository) AdminUserView(ctx context.Context) ([]AdminUserEvent, error) {
	var rows []AdminUserEvent
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			n.id         AS notification_id,
			n.event_type,
			n.username,
			n.email,
			n.user_role,
			n.ip_address,
			n.device_info,
			n.status     AS notification_status,
			n.created_at,
			u.id         AS user_id,
			u.status     AS user_status
		FROM notifications n
		LEFT JOIN users u ON u.id = n.user_id
		ORDER BY n.created_at DESC`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
