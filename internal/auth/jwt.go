package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "co2plus/internal/errors"
)

// TokenExpiry is the duration for which issued tokens are valid.
const TokenExpiry = 24 * time.Hour

// Claims represents JWT claims. RoleName mirrors the legacy claim shape still
// present in tokens issued by the previous deployment; Principal folds both
// into one canonical value.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Role     string `json:"role,omitempty"`
	RoleName string `json:"role_name,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the normalized identity attached to authenticated requests.
// It is built exactly once at the trust boundary.
type Principal struct {
	ID    uint
	Role  string
	Email string
}

// Principal normalizes the claims into a canonical principal. The role claim
// is tolerant of either `role` or the legacy `role_name` and is upper-cased.
func (c *Claims) Principal() Principal {
	role := c.Role
	if role == "" {
		role = c.RoleName
	}
	return Principal{
		ID:    c.UserID,
		Role:  strings.ToUpper(role),
		Email: c.Email,
	}
}

// TokenService handles JWT token generation and validation.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a new token service with the given secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
	}
}

// GenerateToken signs a new token for the user. The expiry is returned so the
// caller can persist the token row with the same deadline.
func (s *TokenService) GenerateToken(userID uint, role, email string) (string, time.Time, error) {
	expiresAt := time.Now().Add(TokenExpiry)
	claims := &Claims{
		UserID: userID,
		Role:   role,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims. Malformed,
// expired and wrongly signed tokens all collapse to ErrInvalidToken.
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}
