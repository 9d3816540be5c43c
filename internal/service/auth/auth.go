package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const MinPasswordLen = 6

var (
	ErrValidation           = errors.New("validation failed")
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrMissingToken         = errors.New("refresh token missing")
	ErrRefreshTokenMismatch = errors.New("refresh token is invalid or revoked")
	ErrNotFound             = errors.New("user not found")
)

type Service struct {
	Repo    *repo.GormRepo
	Tokens  *tokens.Manager
	Events  mykafka.Publisher
	Metrics *metrics.Metrics

	// SingleSession revokes a user's other sessions on every login.
	SingleSession bool
}

type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	Lastname   string
	Phone      string
	Postalcode string
	Direction  string
}

// SessionMeta is stored with the session for the user's device list.
type SessionMeta struct {
	UserAgent string
	IP        string
}

type LoginResult struct {
	User    *models.User
	Access  tokens.Issued
	Refresh tokens.Issued
}

type UserEvent struct {
	Type   string    `json:"type"`
	UserID uint      `json:"user_id"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) publish(ctx context.Context, typ string, u *models.User) {
	mykafka.Publish(ctx, s.Events, logging.FromContext(ctx), mykafka.TopicUserEvents,
		strconv.FormatUint(uint64(u.ID), 10),
		UserEvent{Type: typ, UserID: u.ID, Email: u.Email, At: s.Tokens.Clock().UTC()})
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth_register")

	in.Email = NormalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" {
		s.Metrics.AuthEvent("register", false)
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if len(in.Password) < MinPasswordLen {
		s.Metrics.AuthEvent("register", false)
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: pwHash,
		Name:         strings.TrimSpace(in.Name),
		Lastname:     strings.TrimSpace(in.Lastname),
		Phone:        strings.TrimSpace(in.Phone),
		Postalcode:   strings.TrimSpace(in.Postalcode),
		Direction:    strings.TrimSpace(in.Direction),
		Balance:      decimal.Zero,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		s.Metrics.AuthEvent("register", false)
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_failed", "reason", "user_exists")
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.Metrics.AuthEvent("register", true)
	s.publish(ctx, "user_registered", user)
	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string, meta SessionMeta) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth_login")

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		s.Metrics.AuthEvent("login", false)
		return nil, ErrInvalidCredentials
	}

	user, err := s.Repo.UserExist(ctx, email, password)
	if err != nil {
		s.Metrics.AuthEvent("login", false)
		if errors.Is(err, repo.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	access, err := s.Tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	session := &models.Session{
		JTI:       refresh.JTI,
		UserID:    user.ID,
		TokenHash: hash.Sha256Hex(refresh.Token),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresAt: refresh.ExpiresAt.UTC(),
	}
	if err := s.Repo.AddSession(ctx, session, s.SingleSession); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.Metrics.AuthEvent("login", true)
	s.publish(ctx, "user_logged_in", user)
	l.Info("login_success", "user_id", user.ID)
	return &LoginResult{User: user, Access: access, Refresh: refresh}, nil
}

// Refresh issues a new access token for a live session. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (tokens.Issued, error) {
	if refreshToken == "" {
		return tokens.Issued{}, ErrMissingToken
	}

	claims, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		s.Metrics.AuthEvent("refresh", false)
		return tokens.Issued{}, fmt.Errorf("%w: %w", ErrRefreshTokenMismatch, err)
	}

	session, err := s.Repo.FindSessionByJTI(ctx, claims.ID)
	if err != nil {
		s.Metrics.AuthEvent("refresh", false)
		if errors.Is(err, repo.ErrSessionNotFound) {
			return tokens.Issued{}, ErrRefreshTokenMismatch
		}
		return tokens.Issued{}, fmt.Errorf("lookup session: %w", err)
	}
	if session.Revoked ||
		session.UserID != claims.UserID ||
		!session.ExpiresAt.After(s.Tokens.Clock()) ||
		session.TokenHash != hash.Sha256Hex(refreshToken) {
		s.Metrics.AuthEvent("refresh", false)
		return tokens.Issued{}, ErrRefreshTokenMismatch
	}

	user, err := s.Repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		s.Metrics.AuthEvent("refresh", false)
		if errors.Is(err, repo.ErrUserNotFound) {
			return tokens.Issued{}, ErrRefreshTokenMismatch
		}
		return tokens.Issued{}, fmt.Errorf("lookup user: %w", err)
	}

	access, err := s.Tokens.IssueAccess(user)
	if err != nil {
		return tokens.Issued{}, fmt.Errorf("issue access token: %w", err)
	}
	s.Metrics.AuthEvent("refresh", true)
	return access, nil
}

// Logout revokes the session behind refreshToken. Unknown or already revoked tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingToken
	}
	n, err := s.Repo.RevokeSessionByHash(ctx, hash.Sha256Hex(refreshToken))
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	logging.FromContext(ctx).Info("logout", "revoked", n)
	s.Metrics.AuthEvent("logout", true)
	return nil
}

func (s *Service) Verify(accessToken string) (*tokens.AccessClaims, error) {
	return s.Tokens.ParseAccess(accessToken)
}

func (s *Service) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) Balance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	balance, err := s.Repo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	return balance, nil
}

// Credit tops up a user's balance and returns the new value.
func (s *Service) Credit(ctx context.Context, userID uint, amount decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case !amount.Equal(amount.Round(2)):
		return decimal.Zero, fmt.Errorf("%w: amount has more than 2 decimal places", ErrValidation)
	case !amount.IsPositive():
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	balance, err := s.Repo.CreditBalance(ctx, userID, amount)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrUserNotFound):
			return decimal.Zero, ErrNotFound
		case errors.Is(err, repo.ErrBalanceLimit):
			return decimal.Zero, fmt.Errorf("%w: balance would exceed %s", ErrValidation, models.MaxAmount.StringFixed(2))
		}
		return decimal.Zero, err
	}
	logging.FromContext(ctx).Info("balance_credited", "user_id", userID, "amount", amount.StringFixed(2))
	return balance, nil
}
