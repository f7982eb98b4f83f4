package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"co2plus/internal/auth"
	apperrors "co2plus/internal/errors"
	"co2plus/internal/mailer"
	"co2plus/internal/model"
	"co2plus/internal/notifier"
	"co2plus/internal/repository"
	"co2plus/internal/validate"
)

const (
	bcryptCost       = 12
	maxLoginAttempts = 5
	lockDuration     = 30 * time.Minute
)

// RegisterInput carries everything needed to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
	Meta     notifier.Meta
}

// AuthService implements the registration, verification and login state
// machine.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, error)
	VerifyOTP(ctx context.Context, email, otp string, meta notifier.Meta) (string, *model.SafeUser, error)
	Login(ctx context.Context, email, password string, meta notifier.Meta) (string, *model.SafeUser, error)
}

type authService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	tokens repository.TokenRepository
	jwt    *auth.TokenService
	mail   mailer.Mailer
	events notifier.Client
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	tokens repository.TokenRepository,
	jwt *auth.TokenService,
	mail mailer.Mailer,
	events notifier.Client,
) AuthService {
	return &authService{
		users:  users,
		roles:  roles,
		tokens: tokens,
		jwt:    jwt,
		mail:   mail,
		events: events,
	}
}

// Register validates the input, creates an unverified pending account and
// sends the OTP. If the OTP email cannot be delivered the created row is
// removed again so no orphan account remains.
func (s *authService) Register(ctx context.Context, in RegisterInput) (string, error) {
	if err := validate.Username(in.Username); err != nil {
		return "", err
	}
	if err := validate.Email(in.Email); err != nil {
		return "", err
	}
	if err := validate.Password(in.Password); err != nil {
		return "", err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", apperrors.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("check user existence: %w", err)
	}

	role, err := s.resolveRole(ctx, in.Role)
	if err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	otpExpiry := time.Now().Add(auth.OTPTTL)

	user := &model.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: string(hashed),
		RoleID:       role.ID,
		Role:         role,
		Verified:     false,
		OTPCode:      &otp,
		OTPExpiresAt: &otpExpiry,
		Status:       model.StatusPending,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	if err := s.mail.SendOTP(ctx, email, otp); err != nil {
		// Compensating cleanup, not a retry: the registration must leave no
		// orphan row when the OTP never reached the user.
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			log.Printf("auth: cleanup of user %d after mail failure failed: %v", user.ID, delErr)
		}
		return "", apperrors.ErrOTPDelivery
	}

	s.events.Emit(notifier.Event{
		EventType: model.EventUserSignup,
		User: &notifier.UserPayload{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			RoleName: role.Name,
		},
		IPAddress:  in.Meta.IP,
		DeviceInfo: in.Meta.Device,
	})

	return email, nil
}

// VerifyOTP confirms the emailed code, marks the account verified and issues
// the first token.
func (s *authService) VerifyOTP(ctx context.Context, email, otp string, meta notifier.Meta) (string, *model.SafeUser, error) {
	if err := validate.Email(email); err != nil {
		return "", nil, err
	}
	if err := validate.OTP(otp); err != nil {
		return "", nil, err
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrUserNotFound
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if user.Verified {
		return "", nil, apperrors.ErrAlreadyVerified
	}
	if user.OTPCode == nil {
		return "", nil, apperrors.ErrNoOTP
	}
	if *user.OTPCode != otp {
		return "", nil, apperrors.ErrInvalidOTP
	}
	if user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
		return "", nil, apperrors.ErrExpiredOTP
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return "", nil, fmt.Errorf("mark verified: %w", err)
	}
	user.Verified = true
	user.OTPCode = nil
	user.OTPExpiresAt = nil

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}

	s.events.Emit(notifier.Event{
		EventType: model.EventEmailVerified,
		User: &notifier.UserPayload{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			RoleName: user.RoleName(),
		},
		IPAddress:  meta.IP,
		DeviceInfo: meta.Device,
	})

	return token, user.Sanitize(), nil
}

// Login authenticates the account, maintaining the failed-attempt counter and
// the 30 minute lockout at five consecutive failures. The counter only resets
// on a successful login, never by time alone.
func (s *authService) Login(ctx context.Context, email, password string, meta notifier.Meta) (string, *model.SafeUser, error) {
	if email == "" || password == "" {
		return "", nil, apperrors.NewValidationError("email and password are required")
	}
	if err := validate.Email(email); err != nil {
		// Same generic signal as a credential mismatch, to avoid enumeration.
		return "", nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if user.LockUntil != nil && user.LockUntil.After(time.Now()) {
		return "", nil, apperrors.ErrAccountLocked
	}

	if !user.Verified {
		return "", nil, apperrors.ErrEmailUnverified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, s.recordFailedAttempt(ctx, user, meta)
	}

	if err := s.users.UpdateLoginState(ctx, user.ID, 0, nil); err != nil {
		return "", nil, fmt.Errorf("reset login attempts: %w", err)
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}

	s.events.Emit(notifier.Event{
		EventType: model.EventUserLogin,
		User: &notifier.UserPayload{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			RoleName: user.RoleName(),
		},
		IPAddress:  meta.IP,
		DeviceInfo: meta.Device,
	})

	return token, user.Sanitize(), nil
}

// recordFailedAttempt bumps the counter, sets the lock deadline when the
// threshold is reached and emits the security events. Always returns the
// generic invalid-credentials error.
func (s *authService) recordFailedAttempt(ctx context.Context, user *model.User, meta notifier.Meta) error {
	attempts := user.LoginAttempts + 1
	var lockUntil *time.Time
	if attempts >= maxLoginAttempts {
		t := time.Now().Add(lockDuration)
		lockUntil = &t
	}

	if err := s.users.UpdateLoginState(ctx, user.ID, attempts, lockUntil); err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}

	s.events.Emit(notifier.Event{
		EventType:     model.EventLoginFailed,
		User:          &notifier.UserPayload{Email: user.Email},
		IPAddress:     meta.IP,
		DeviceInfo:    meta.Device,
		AttemptNumber: attempts,
	})
	if lockUntil != nil {
		s.events.Emit(notifier.Event{
			EventType:  model.EventAccountLocked,
			User:       &notifier.UserPayload{Email: user.Email},
			IPAddress:  meta.IP,
			DeviceInfo: meta.Device,
		})
	}

	return apperrors.ErrInvalidCredentials
}

// issueToken signs a token for the user and appends it to the token audit log.
func (s *authService) issueToken(ctx context.Context, user *model.User) (string, error) {
	roleName := user.RoleName()
	if roleName == "" {
		roleName = model.RoleUser
	}

	token, expiresAt, err := s.jwt.GenerateToken(user.ID, roleName, user.Email)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	record := &model.Token{
		UserID:    user.ID,
		Token:     token,
		TokenType: model.TokenTypeAccess,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", fmt.Errorf("persist token: %w", err)
	}

	return token, nil
}

// resolveRole matches the requested role case-insensitively, falling back to
// USER. A missing USER role is a deployment configuration error.
func (s *authService) resolveRole(ctx context.Context, requested string) (*model.Role, error) {
	if requested != "" {
		role, err := s.roles.FindByName(ctx, requested)
		if err == nil {
			return role, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resolve role: %w", err)
		}
	}

	role, err := s.roles.FindByName(ctx, model.RoleUser)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRoleNotConfigured
		}
		return nil, fmt.Errorf("resolve fallback role: %w", err)
	}
	return role, nil
}
