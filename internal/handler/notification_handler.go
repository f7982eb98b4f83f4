package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"co2plus/internal/repository"
	"co2plus/internal/service"
)

const (
	defaultNotificationPage = 20
	maxNotificationPage     = 100
)

// NotificationHandler handles event ingestion and the notification query
// surface.
type NotificationHandler struct {
	notifications service.NotificationService
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(notifications service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Event godoc
// @Summary Ingest a typed platform event (internal)
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body service.EventInput true "Event payload"
// @Success 200 {object} map[string]string
// @Failure 500 {object} errors.ErrorResponse
// @Router /notifications/event [post]
func (h *NotificationHandler) Event(c echo.Context) error {
	var in service.EventInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if _, err := h.notifications.ProcessEvent(c.Request().Context(), in); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Event processed successfully",
	})
}

// List godoc
// @Summary List notifications, newest first
// @Tags notifications
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param event_type query string false "Filter by event type"
// @Param status query string false "Filter by read status"
// @Param user_id query int false "Filter by user id"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	page, limit := pageParams(c, defaultNotificationPage, maxNotificationPage)

	filters := repository.NotificationFilters{
		EventType: c.QueryParam("event_type"),
		Status:    c.QueryParam("status"),
	}
	if uid, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 32); err == nil {
		filters.UserID = uint(uid)
	}

	items, pagination, err := h.notifications.List(c.Request().Context(), page, limit, filters)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":     "success",
		"data":       items,
		"pagination": pagination,
	})
}

// Unread godoc
// @Summary List unread notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications/unread [get]
func (h *NotificationHandler) Unread(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	items, err := h.notifications.Unread(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":       "success",
		"unread_count": len(items),
		"data":         items,
	})
}

// Stats godoc
// @Summary Aggregate notification counters over a trailing window
// @Tags notifications
// @Produce json
// @Param hours query int false "Window in hours (default 24)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications/stats [get]
func (h *NotificationHandler) Stats(c echo.Context) error {
	hours, _ := strconv.Atoi(c.QueryParam("hours"))

	stats, err := h.notifications.Stats(c.Request().Context(), hours)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   stats,
	})
}

// ByUser godoc
// @Summary List notifications for one user
// @Tags notifications
// @Produce json
// @Param userId path int true "User id"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications/user/{userId} [get]
func (h *NotificationHandler) ByUser(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c, defaultNotificationPage, maxNotificationPage)

	items, pagination, err := h.notifications.ByUser(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":     "success",
		"data":       items,
		"pagination": pagination,
	})
}

// ByID godoc
// @Summary Fetch a single notification
// @Tags notifications
// @Produce json
// @Param id path int true "Notification id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id} [get]
func (h *NotificationHandler) ByID(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	n, err := h.notifications.ByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   n,
	})
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Tags notifications
// @Produce json
// @Param id path int true "Notification id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	n, err := h.notifications.MarkRead(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   n,
	})
}

// MarkAllRead godoc
// @Summary Mark every unread notification as read
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications/read/all [patch]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	count, err := h.notifications.MarkAllRead(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":       "success",
		"updated_rows": count,
	})
}

// Delete godoc
// @Summary Delete a notification (admin only)
// @Tags notifications
// @Produce json
// @Param id path int true "Notification id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	if err := h.notifications.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Notification deleted",
	})
}

// AdminUserView godoc
// @Summary Notifications joined to live user status (admin only)
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications/admin/user-events [get]
func (h *NotificationHandler) AdminUserView(c echo.Context) error {
	rows, err := h.notifications.AdminUserView(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   rows,
	})
}

func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}
	return uint(id), nil
}
