package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"homeservices/internal/auth"
	"homeservices/internal/config"
	"homeservices/internal/domain"
	"homeservices/internal/logging"
	"homeservices/internal/models"

	"github.com/rs/zerolog"
)

const loginThrottlePrefix = "login:"

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"min=2,max=50"`
	Email    string `json:"email" validate:"mail"`
	Phone    string `json:"phone" validate:"phone"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileInput struct {
	Name  *string `json:"name" validate:"omitnil,min=2,max=50"`
	Phone *string `json:"phone" validate:"omitnil,phone"`
}

type PasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserService struct {
	users         domain.UserRepository
	tokens        TokenIssuer
	cache         domain.Cache
	loginAttempts int
	loginWindow   time.Duration
	now           func() time.Time
	logger        *zerolog.Logger
}

// NewUserService wires identity. cache may be nil, which disables login throttling.
func NewUserService(users domain.UserRepository, tokens TokenIssuer, cache domain.Cache, cfg config.APIAuthConfig, logger *zerolog.Logger) *UserService {
	return &UserService{
		users:         users,
		tokens:        tokens,
		cache:         cache,
		loginAttempts: cfg.LoginAttempts,
		loginWindow:   cfg.LoginWindow,
		now:           time.Now,
		logger:        logging.Component(logger, "user_service"),
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return nil, domain.NewValidationError("Please provide all required fields", "name", "email", "phone", "password")
	}
	if len(in.Password) < models.MinPasswordLength {
		return nil, domain.NewValidationError("Password must be at least 6 characters long", "password")
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	if taken, err := s.identityTaken(ctx, in.Email, in.Phone); err != nil {
		return nil, err
	} else if taken {
		return nil, duplicateUserError()
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, duplicateUserError()
		}
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")
	return s.issue(user)
}

func (s *UserService) identityTaken(ctx context.Context, email, phone string) (bool, error) {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if _, err := s.users.GetUserByPhone(ctx, phone); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	return false, nil
}

func duplicateUserError() error {
	return domain.NewValidationError("User with this email or phone already exists", "email", "phone")
}

// Login authenticates a customer or admin. Failed attempts per email are throttled.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	return s.login(ctx, in, false)
}

// AdminLogin authenticates staff only.
func (s *UserService) AdminLogin(ctx context.Context, in LoginInput) (*AuthResult, error) {
	return s.login(ctx, in, true)
}

func (s *UserService) login(ctx context.Context, in LoginInput, staffOnly bool) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.NewValidationError("Please provide email and password", "email", "password")
	}
	if err := s.throttle(ctx, email); err != nil {
		return nil, err
	}

	invalid := domain.WithReason(domain.ErrUnauthorized, "Invalid credentials")
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn().Str("email", email).Bool("admin", staffOnly).Msg("failed login")
		return nil, invalid
	}
	if staffOnly && !user.Role.IsStaff() {
		return nil, domain.WithReason(domain.ErrForbidden, "Not authorized")
	}
	if !user.IsActive {
		return nil, domain.WithReason(domain.ErrUnauthorized, "Account is deactivated. Please contact support")
	}

	at := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, at); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLogin = &at
	}
	s.resetThrottle(ctx, email)

	s.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	return s.issue(user)
}

func (s *UserService) throttle(ctx context.Context, email string) error {
	if s.cache == nil || s.loginAttempts <= 0 {
		return nil
	}
	allowed, err := s.cache.CheckRateLimit(ctx, loginThrottlePrefix+email, s.loginAttempts, s.loginWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login throttle unavailable")
		return nil
	}
	if !allowed {
		return domain.WithReason(domain.ErrRateLimited, "Too many login attempts. Please try again later")
	}
	return nil
}

func (s *UserService) resetThrottle(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, "rl:"+loginThrottlePrefix+email); err != nil {
		s.logger.Debug().Err(err).Msg("failed to reset login throttle")
	}
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, actor *auth.Principal) (*models.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.users.GetUserByID(ctx, actor.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *auth.Principal, in ProfileInput) (*models.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		in.Phone = &phone
	}
	if err := validateInput("Validation error", in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	name, phone := user.Name, user.Phone
	if in.Name != nil {
		name = *in.Name
	}
	if in.Phone != nil && *in.Phone != user.Phone {
		other, err := s.users.GetUserByPhone(ctx, *in.Phone)
		switch {
		case err == nil && other.ID != user.ID:
			return nil, domain.NewValidationError("Phone number is already registered with another account", "phone")
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		phone = *in.Phone
	}

	if err := s.users.UpdateUserProfile(ctx, user.ID, name, phone); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewValidationError("Phone number is already registered with another account", "phone")
		}
		return nil, err
	}
	user.Name, user.Phone = name, phone
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, actor *auth.Principal, in PasswordInput) error {
	if actor == nil {
		return domain.ErrUnauthorized
	}
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return domain.NewValidationError("Please provide current and new password", "currentPassword", "newPassword")
	}
	if len(in.NewPassword) < models.MinPasswordLength {
		return domain.NewValidationError("New password must be at least 6 characters long", "newPassword")
	}

	user, err := s.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	ok, err := auth.CheckPassword(user.PasswordHash, in.CurrentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewValidationError("Current password is incorrect", "currentPassword")
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("password changed")
	return nil
}

// EnsureAdmin creates the bootstrap admin when configured and absent. It reports
// whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		return false, nil
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		if !existing.Role.IsStaff() {
			s.logger.Warn().Str("email", email).Msg("bootstrap admin email belongs to a customer account")
		}
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if len(cfg.Password) < models.MinPasswordLength {
		return false, domain.NewValidationError("Password must be at least 6 characters long", "admin.password")
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return false, err
	}
	name, phone := cfg.Name, cfg.Phone
	if name == "" {
		name = "Administrator"
	}
	if phone == "" {
		phone = "0000000000"
	}
	admin := &models.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return false, err
	}
	s.logger.Info().Int64("user_id", admin.ID).Str("email", email).Msg("bootstrap admin created")
	return true, nil
}
