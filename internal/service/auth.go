package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/Shivanand-hulikatti/event-admission/internal/config"
	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/Shivanand-hulikatti/event-admission/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// AuthService handles signup, login and profile lookups.
type AuthService struct {
	users     UserStore
	tokens    *auth.TokenManager
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, tokens *auth.TokenManager, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		validator: newValidator(),
		logger:    logger.With().Str("component", "auth").Logger(),
	}
}

// Signup creates a member account. The role is never taken from the caller.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, &ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         model.RoleMember,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user signed up")
	return user, nil
}

// Login verifies credentials and issues a signed access token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.BurnPasswordCheck(req.Password)
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		s.logger.Debug().Int64("user_id", user.ID).Msg("password mismatch")
		return nil, err
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.LoginResponse{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Me returns the profile of the given user.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, &ValidationError{Field: "user_id", Message: "is required"}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// EnsureAdministrator creates the bootstrap administrator if configured
// and absent. It never changes an existing account.
func (s *AuthService) EnsureAdministrator(ctx context.Context, cfg config.AdminBootstrapConfig) error {
	if !cfg.Enabled() {
		return nil
	}
	_, err := s.users.GetByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup administrator: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	user, err := s.users.Create(ctx, model.User{
		Email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		PasswordHash: hash,
		Name:         cfg.Name,
		Role:         model.RoleAdministrator,
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("bootstrapped administrator")
	return nil
}
