package auth

import (
	"errors"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apperrors "co2plus/internal/errors"
)

// principalKey is the context key holding the normalized Principal.
const principalKey = "principal"

// Middleware validates the bearer token and attaches the canonical Principal
// to the request context. The Authorization header is accepted either raw or
// with a "Bearer " prefix.
func Middleware(tokens *TokenService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookupFuncs: []middleware.ValuesExtractor{extractAuthToken},
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return tokens.ValidateToken(token)
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get("user").(*Claims); ok {
				c.Set(principalKey, claims.Principal())
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			he := apperrors.MapErrorToHTTP(classifyTokenError(err))
			return c.JSON(he.StatusCode, he.ToErrorResponse())
		},
	})
}

func classifyTokenError(err error) error {
	if errors.Is(err, echojwt.ErrJWTMissing) {
		return apperrors.ErrMissingToken
	}
	var extractionErr *echojwt.TokenExtractionError
	if errors.As(err, &extractionErr) {
		return apperrors.ErrMissingToken
	}
	return apperrors.ErrInvalidToken
}

func extractAuthToken(c echo.Context) ([]string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil, echojwt.ErrJWTMissing
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		header = header[7:]
	}
	return []string{header}, nil
}

// RequireRoles composes role authorization over Middleware. Role names are
// matched case-insensitively against the principal's role.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToUpper(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := FromContext(c)
			if !ok {
				he := apperrors.MapErrorToHTTP(apperrors.ErrMissingToken)
				return c.JSON(he.StatusCode, he.ToErrorResponse())
			}
			if !allowed[principal.Role] {
				he := apperrors.MapErrorToHTTP(apperrors.ErrForbidden)
				return c.JSON(he.StatusCode, he.ToErrorResponse())
			}
			return next(c)
		}
	}
}

// FromContext returns the principal attached by Middleware.
func FromContext(c echo.Context) (Principal, bool) {
	principal, ok := c.Get(principalKey).(Principal)
	return principal, ok
}

// SetPrincipal stores a principal in the context. Exposed for handler tests.
func SetPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
}
