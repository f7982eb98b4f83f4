package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"co2plus/internal/service"
)

const (
	defaultPageSize = 100
	maxPageSize     = 200
)

// UserHandler handles user listing and the approval workflow endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RejectRequest carries the optional rejection reason.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// StatusRequest carries a direct status update.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func pageParams(c echo.Context, defaultLimit, maxLimit int) (int, int) {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func userIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return uint(id), nil
}

// List godoc
// @Summary List users, newest first
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 200)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, limit := pageParams(c, defaultPageSize, maxPageSize)

	users, pagination, err := h.userService.List(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":     "success",
		"data":       users,
		"pagination": pagination,
	})
}

// Approve godoc
// @Summary Approve a pending user
// @Tags users
// @Produce json
// @Param userId path int true "User id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /users/{userId}/approve [patch]
func (h *UserHandler) Approve(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Approve(c.Request().Context(), userID, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "User approved successfully",
		"data":    user,
	})
}

// Reject godoc
// @Summary Reject a pending user
// @Tags users
// @Accept json
// @Produce json
// @Param userId path int true "User id"
// @Param request body RejectRequest false "Rejection reason"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /users/{userId}/reject [patch]
func (h *UserHandler) Reject(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}

	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.userService.Reject(c.Request().Context(), userID, req.Reason, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "User rejected successfully",
		"data":    user,
	})
}

// GetByEmail godoc
// @Summary Fetch a user projection by email
// @Tags users
// @Produce json
// @Param email path string true "Email address"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/email/{email} [get]
func (h *UserHandler) GetByEmail(c echo.Context) error {
	user, err := h.userService.GetByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   user,
	})
}

// UpdateStatus godoc
// @Summary Set a user's account status
// @Tags users
// @Accept json
// @Produce json
// @Param userId path int true "User id"
// @Param request body StatusRequest true "Target status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{userId}/status [patch]
func (h *UserHandler) UpdateStatus(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.UpdateStatus(c.Request().Context(), userID, req.Status)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "User status updated successfully",
		"data":    user,
	})
}
