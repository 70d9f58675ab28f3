package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskvault/taskvault/internal/api/metrics"
	"github.com/taskvault/taskvault/internal/core/domain"
	"github.com/taskvault/taskvault/internal/core/ports"
	"github.com/taskvault/taskvault/internal/core/validation"
	"github.com/taskvault/taskvault/internal/pkg/password"
)

// dummyHash is compared against when the username is unknown so that a
// failed login costs the same bcrypt work either way.
var dummyHash, _ = password.Hash("taskvault-dummy-password")

// AuthService implements registration and login.
type AuthService struct {
	repo      ports.AuthRepository
	tokens    ports.TokenIssuer
	validator *validation.Validator
	logger    zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, tokens ports.TokenIssuer, validator *validation.Validator, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, validator: validator, logger: logger}
}

// Register validates the credentials, hashes the password and stores a new user.
func (s *AuthService) Register(ctx context.Context, username, plain string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := s.validator.ValidateRegistration(username, plain); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		} else {
			s.logger.Error().Err(err).Str("username", username).Msg("failed to create user")
		}
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.logger.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Login checks the credentials and returns a signed token for the user.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, plain string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || plain == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, err
		}
		password.Verify(plain, dummyHash)
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	if !password.Verify(plain, user.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user, nil
}
