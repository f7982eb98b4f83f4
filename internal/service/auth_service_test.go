package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"co2plus/internal/auth"
	apperrors "co2plus/internal/errors"
	"co2plus/internal/model"
	"co2plus/internal/notifier"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLoginState(ctx context.Context, id uint, attempts int, lockUntil *time.Time) error {
	args := m.Called(ctx, id, attempts, lockUntil)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockRoleRepository is a mock implementation of RoleRepository.
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *model.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

// MockTokenRepository is a mock implementation of TokenRepository.
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *model.Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockMailer is a mock OTP mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOTP(ctx context.Context, to, otp string) error {
	args := m.Called(ctx, to, otp)
	return args.Error(0)
}

// recordingNotifier captures emitted events synchronously.
type recordingNotifier struct {
	events []notifier.Event
}

func (r *recordingNotifier) Emit(event notifier.Event) {
	r.events = append(r.events, event)
}

func (r *recordingNotifier) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

func userRole() *model.Role {
	return &model.Role{ID: 1, Name: model.RoleUser}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository, *MockRoleRepository, *MockMailer)
		expectedError error
		wantValidErr  bool
		wantEvents    []string
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Username: "alice", Email: "Alice@X.com", Password: "Aa1!aaaa"},
			setupMock: func(users *MockUserRepository, roles *MockRoleRepository, mail *MockMailer) {
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(nil, gorm.ErrRecordNotFound)
				roles.On("FindByName", mock.Anything, model.RoleUser).Return(userRole(), nil)
				users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mail.On("SendOTP", mock.Anything, "alice@x.com", mock.AnythingOfType("string")).Return(nil)
			},
			wantEvents: []string{model.EventUserSignup},
		},
		{
			name:         "weak password rejected before any persistence",
			input:        RegisterInput{Username: "alice", Email: "alice@x.com", Password: "password"},
			setupMock:    func(*MockUserRepository, *MockRoleRepository, *MockMailer) {},
			wantValidErr: true,
		},
		{
			name:         "short username rejected",
			input:        RegisterInput{Username: "a", Email: "alice@x.com", Password: "Aa1!aaaa"},
			setupMock:    func(*MockUserRepository, *MockRoleRepository, *MockMailer) {},
			wantValidErr: true,
		},
		{
			name:  "duplicate email",
			input: RegisterInput{Username: "alice", Email: "alice@x.com", Password: "Aa1!aaaa"},
			setupMock: func(users *MockUserRepository, roles *MockRoleRepository, mail *MockMailer) {
				users.On("FindByEmail", mock.Anything, "alice@x.com").
					Return(&model.User{ID: 7, Email: "alice@x.com"}, nil)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
		{
			name:  "missing USER role is a configuration error",
			input: RegisterInput{Username: "alice", Email: "alice@x.com", Password: "Aa1!aaaa"},
			setupMock: func(users *MockUserRepository, roles *MockRoleRepository, mail *MockMailer) {
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(nil, gorm.ErrRecordNotFound)
				roles.On("FindByName", mock.Anything, model.RoleUser).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrRoleNotConfigured,
		},
		{
			name:  "unknown requested role falls back to USER",
			input: RegisterInput{Username: "alice", Email: "alice@x.com", Password: "Aa1!aaaa", Role: "WIZARD"},
			setupMock: func(users *MockUserRepository, roles *MockRoleRepository, mail *MockMailer) {
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(nil, gorm.ErrRecordNotFound)
				roles.On("FindByName", mock.Anything, "WIZARD").Return(nil, gorm.ErrRecordNotFound)
				roles.On("FindByName", mock.Anything, model.RoleUser).Return(userRole(), nil)
				users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mail.On("SendOTP", mock.Anything, "alice@x.com", mock.AnythingOfType("string")).Return(nil)
			},
			wantEvents: []string{model.EventUserSignup},
		},
		{
			name:  "mail failure compensates by deleting the user",
			input: RegisterInput{Username: "alice", Email: "alice@x.com", Password: "Aa1!aaaa"},
			setupMock: func(users *MockUserRepository, roles *MockRoleRepository, mail *MockMailer) {
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(nil, gorm.ErrRecordNotFound)
				roles.On("FindByName", mock.Anything, model.RoleUser).Return(userRole(), nil)
				users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mail.On("SendOTP", mock.Anything, "alice@x.com", mock.AnythingOfType("string")).
					Return(errors.New("smtp down"))
				users.On("Delete", mock.Anything, mock.AnythingOfType("uint")).Return(nil)
			},
			expectedError: apperrors.ErrOTPDelivery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			roles := new(MockRoleRepository)
			tokens := new(MockTokenRepository)
			mail := new(MockMailer)
			events := &recordingNotifier{}
			tt.setupMock(users, roles, mail)

			svc := NewAuthService(users, roles, tokens, auth.NewTokenService("test-secret"), mail, events)
			email, err := svc.Register(context.Background(), tt.input)

			switch {
			case tt.wantValidErr:
				var ve *apperrors.ValidationError
				assert.ErrorAs(t, err, &ve)
				users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			default:
				assert.NoError(t, err)
				assert.Equal(t, "alice@x.com", email)
			}

			assert.Equal(t, tt.wantEvents, nilIfEmpty(events.types()))
			users.AssertExpectations(t)
			roles.AssertExpectations(t)
			mail.AssertExpectations(t)
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func verifiableUser(otp string, expiry time.Time) *model.User {
	code := otp
	return &model.User{
		ID:           3,
		UID:          "USR-000003",
		Username:     "alice",
		Email:        "alice@x.com",
		Role:         userRole(),
		RoleID:       1,
		Verified:     false,
		OTPCode:      &code,
		OTPExpiresAt: &expiry,
		Status:       model.StatusPending,
	}
}

func TestAuthService_VerifyOTP(t *testing.T) {
	future := time.Now().Add(5 * time.Minute)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name          string
		otp           string
		setupMock     func(*MockUserRepository, *MockTokenRepository)
		expectedError error
	}{
		{
			name: "successful verification issues a token",
			otp:  "123456",
			setupMock: func(users *MockUserRepository, tokens *MockTokenRepository) {
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(verifiableUser("123456", future), nil)
				users.On("MarkVerified", mock.Anything, uint(3)).Return(nil)
				tokens.On("Create", mock.Anything, mock.AnythingOfType("*model.Token")).Return(nil)
			},
		},
		{
			name: "wrong code",
			otp:  "654321",
			setupMock: func(users *MockUserRepository, tokens *MockTokenRepository) {
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(verifiableUser("123456", future), nil)
			},
			expectedError: apperrors.ErrInvalidOTP,
		},
		{
			name: "correct code after the window",
			otp:  "123456",
			setupMock: func(users *MockUserRepository, tokens *MockTokenRepository) {
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(verifiableUser("123456", past), nil)
			},
			expectedError: apperrors.ErrExpiredOTP,
		},
		{
			name: "already verified",
			otp:  "123456",
			setupMock: func(users *MockUserRepository, tokens *MockTokenRepository) {
				u := verifiableUser("123456", future)
				u.Verified = true
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(u, nil)
			},
			expectedError: apperrors.ErrAlreadyVerified,
		},
		{
			name: "no OTP pending",
			otp:  "123456",
			setupMock: func(users *MockUserRepository, tokens *MockTokenRepository) {
				u := verifiableUser("123456", future)
				u.OTPCode = nil
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(u, nil)
			},
			expectedError: apperrors.ErrNoOTP,
		},
		{
			name: "unknown email",
			otp:  "123456",
			setupMock: func(users *MockUserRepository, tokens *MockTokenRepository) {
				users.On("FindByEmail", mock.Anything, "alice@x.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tokens := new(MockTokenRepository)
			events := &recordingNotifier{}
			tt.setupMock(users, tokens)

			svc := NewAuthService(users, new(MockRoleRepository), tokens,
				auth.NewTokenService("test-secret"), new(MockMailer), events)
			token, user, err := svc.VerifyOTP(context.Background(), "alice@x.com", tt.otp, notifier.Meta{})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, user)
				assert.Empty(t, events.events)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.True(t, user.Verified)
				assert.Equal(t, "USR-000003", user.UID)
				assert.Equal(t, []string{model.EventEmailVerified}, events.types())
			}

			users.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}

func loginUser(password string, attempts int, lockUntil *time.Time, verified bool) *model.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &model.User{
		ID:            9,
		UID:           "USR-000009",
		Username:      "bob",
		Email:         "bob@x.com",
		PasswordHash:  string(hashed),
		Role:          userRole(),
		RoleID:        1,
		Verified:      verified,
		LoginAttempts: attempts,
		LockUntil:     lockUntil,
		Status:        model.StatusActive,
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Run("successful login resets attempts and lock", func(t *testing.T) {
		users := new(MockUserRepository)
		tokens := new(MockTokenRepository)
		events := &recordingNotifier{}

		users.On("FindByEmail", mock.Anything, "bob@x.com").Return(loginUser("Aa1!aaaa", 3, nil, true), nil)
		users.On("UpdateLoginState", mock.Anything, uint(9), 0, (*time.Time)(nil)).Return(nil)
		tokens.On("Create", mock.Anything, mock.AnythingOfType("*model.Token")).Return(nil)

		svc := NewAuthService(users, new(MockRoleRepository), tokens,
			auth.NewTokenService("test-secret"), new(MockMailer), events)
		token, user, err := svc.Login(context.Background(), "bob@x.com", "Aa1!aaaa", notifier.Meta{IP: "10.0.0.1"})

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "bob@x.com", user.Email)
		assert.Equal(t, []string{model.EventUserLogin}, events.types())
		users.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("wrong password increments the counter", func(t *testing.T) {
		users := new(MockUserRepository)
		events := &recordingNotifier{}

		users.On("FindByEmail", mock.Anything, "bob@x.com").Return(loginUser("Aa1!aaaa", 1, nil, true), nil)
		users.On("UpdateLoginState", mock.Anything, uint(9), 2, (*time.Time)(nil)).Return(nil)

		svc := NewAuthService(users, new(MockRoleRepository), new(MockTokenRepository),
			auth.NewTokenService("test-secret"), new(MockMailer), events)
		_, _, err := svc.Login(context.Background(), "bob@x.com", "wrong", notifier.Meta{})

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		assert.Equal(t, []string{model.EventLoginFailed}, events.types())
		assert.Equal(t, 2, events.events[0].AttemptNumber)
		users.AssertExpectations(t)
	})

	t.Run("fifth failure sets the lock and emits the lock event", func(t *testing.T) {
		users := new(MockUserRepository)
		events := &recordingNotifier{}

		users.On("FindByEmail", mock.Anything, "bob@x.com").Return(loginUser("Aa1!aaaa", 4, nil, true), nil)
		users.On("UpdateLoginState", mock.Anything, uint(9), 5, mock.MatchedBy(func(lockUntil *time.Time) bool {
			return lockUntil != nil && time.Until(*lockUntil) > 29*time.Minute
		})).Return(nil)

		svc := NewAuthService(users, new(MockRoleRepository), new(MockTokenRepository),
			auth.NewTokenService("test-secret"), new(MockMailer), events)
		_, _, err := svc.Login(context.Background(), "bob@x.com", "wrong", notifier.Meta{})

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		assert.Equal(t, []string{model.EventLoginFailed, model.EventAccountLocked}, events.types())
		users.AssertExpectations(t)
	})

	t.Run("locked account rejects even the correct password", func(t *testing.T) {
		users := new(MockUserRepository)

		lockUntil := time.Now().Add(10 * time.Minute)
		users.On("FindByEmail", mock.Anything, "bob@x.com").Return(loginUser("Aa1!aaaa", 5, &lockUntil, true), nil)

		svc := NewAuthService(users, new(MockRoleRepository), new(MockTokenRepository),
			auth.NewTokenService("test-secret"), new(MockMailer), &recordingNotifier{})
		_, _, err := svc.Login(context.Background(), "bob@x.com", "Aa1!aaaa", notifier.Meta{})

		assert.ErrorIs(t, err, apperrors.ErrAccountLocked)
		users.AssertNotCalled(t, "UpdateLoginState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unverified account cannot log in", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "bob@x.com").Return(loginUser("Aa1!aaaa", 0, nil, false), nil)

		svc := NewAuthService(users, new(MockRoleRepository), new(MockTokenRepository),
			auth.NewTokenService("test-secret"), new(MockMailer), &recordingNotifier{})
		_, _, err := svc.Login(context.Background(), "bob@x.com", "Aa1!aaaa", notifier.Meta{})

		assert.ErrorIs(t, err, apperrors.ErrEmailUnverified)
	})

	t.Run("unknown email yields the generic credential error", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, gorm.ErrRecordNotFound)

		svc := NewAuthService(users, new(MockRoleRepository), new(MockTokenRepository),
			auth.NewTokenService("test-secret"), new(MockMailer), &recordingNotifier{})
		_, _, err := svc.Login(context.Background(), "nobody@x.com", "whatever", notifier.Meta{})

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("missing fields are a validation error", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), new(MockRoleRepository), new(MockTokenRepository),
			auth.NewTokenService("test-secret"), new(MockMailer), &recordingNotifier{})
		_, _, err := svc.Login(context.Background(), "", "", notifier.Meta{})

		var ve *apperrors.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}
