package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "co2plus/internal/errors"
	"co2plus/internal/model"
	"co2plus/internal/notifier"
	"co2plus/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// VerifyOTPRequest represents an OTP verification request.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents a successful authentication response.
type AuthResponse struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *model.SafeUser `json:"user"`
}

func requestMeta(c echo.Context) notifier.Meta {
	return notifier.Meta{
		IP:     c.RealIP(),
		Device: c.Request().UserAgent(),
	}
}

func writeError(c echo.Context, err error) error {
	he := apperrors.MapErrorToHTTP(err)
	return c.JSON(he.StatusCode, he.ToErrorResponse())
}

// Register godoc
// @Summary Register a new account and send the verification OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	email, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Meta:     requestMeta(c),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "OTP sent. Verify your email.",
		"email":   email,
	})
}

// VerifyOTP godoc
// @Summary Verify the emailed OTP and issue the first token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Email and OTP"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.authService.VerifyOTP(c.Request().Context(), req.Email, req.OTP, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Message: "Email verified successfully!",
		Token:   token,
		User:    user,
	})
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		// Same generic wording as a credential mismatch.
		return writeError(c, apperrors.ErrInvalidCredentials)
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Message: "Login successful!",
		Token:   token,
		User:    user,
	})
}
