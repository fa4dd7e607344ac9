package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/crucial707/brewlog/internal/apperr"
	"github.com/crucial707/brewlog/internal/metrics"
	"github.com/crucial707/brewlog/internal/models"
	"github.com/crucial707/brewlog/internal/repo"
)

const (
	// DefaultMaxUsers is the registration cap when none is configured.
	DefaultMaxUsers   = 10
	minUsernameLength = 2
	tokenBytes        = 32
)

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	User           models.PublicUser
	SpotsRemaining int
}

// AuthService registers users and resolves bearer tokens.
type AuthService struct {
	store    repo.Store
	maxUsers int

	// mu serializes registration so the cap check and insert cannot interleave.
	mu sync.Mutex

	// NewToken generates tokens; replaced in tests.
	NewToken func() (string, error)
}

func NewAuthService(store repo.Store, maxUsers int) *AuthService {
	if maxUsers <= 0 {
		maxUsers = DefaultMaxUsers
	}
	return &AuthService{store: store, maxUsers: maxUsers, NewToken: GenerateToken}
}

// MaxUsers returns the registration cap.
func (s *AuthService) MaxUsers() int { return s.maxUsers }

// Register creates a user and returns its permanent token.
func (s *AuthService) Register(ctx context.Context, username string) (*RegisterResult, error) {
	username = strings.TrimSpace(username)
	if len([]rune(username)) < minUsernameLength {
		metrics.IncRegistrations("invalid")
		return nil, apperr.Validation(fmt.Sprintf("Username must be at least %d characters", minUsernameLength))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.store.UserCount(ctx)
	if err != nil {
		metrics.IncRegistrations("error")
		return nil, fmt.Errorf("count users: %w", err)
	}
	if count >= s.maxUsers {
		metrics.IncRegistrations("full")
		return nil, apperr.Capacity("Registration is closed: all spots are taken")
	}

	exists, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		metrics.IncRegistrations("error")
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		metrics.IncRegistrations("taken")
		return nil, apperr.Conflict("Username already taken")
	}

	token, err := s.NewToken()
	if err != nil {
		metrics.IncRegistrations("error")
		return nil, fmt.Errorf("generate token: %w", err)
	}

	id, err := s.store.CreateUser(ctx, username, token)
	if errors.Is(err, repo.ErrDuplicate) {
		metrics.IncRegistrations("taken")
		return nil, apperr.Conflict("Username already taken")
	}
	if err != nil {
		metrics.IncRegistrations("error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.IncRegistrations("created")
	return &RegisterResult{
		User:           models.PublicUser{ID: id, Username: username, Token: token},
		SpotsRemaining: max(0, s.maxUsers-count-1),
	}, nil
}

// Validate resolves token to its user.
func (s *AuthService) Validate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.MissingToken("Token is required")
	}
	return s.resolve(ctx, token)
}

// Authenticate is Validate for per-user operations: a missing token is reported
// as unauthorized rather than as a bad request.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	return s.resolve(ctx, token)
}

func (s *AuthService) resolve(ctx context.Context, token string) (*models.User, error) {
	user, err := s.store.GetUserByToken(ctx, token)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.Unauthorized("Invalid token")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	return user, nil
}

// SpotsRemaining reports how many more users can register.
func (s *AuthService) SpotsRemaining(ctx context.Context) (int, error) {
	count, err := s.store.UserCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return max(0, s.maxUsers-count), nil
}

// GenerateToken returns 32 bytes from crypto/rand, hex encoded.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
