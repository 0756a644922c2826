// Package service provides the identity and session business logic,
// delegating persistence to a UserRepository.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/imorozov/wordquiz/internal/auth"
	"github.com/imorozov/wordquiz/internal/mailer"
	"github.com/imorozov/wordquiz/internal/models"
	"github.com/imorozov/wordquiz/internal/repository"
)

var (
	// ErrInvalidEmail reports a syntactically invalid e-mail address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrBadCredentials covers unknown users, wrong passwords and bad
	// session tokens with one reason, so callers cannot enumerate accounts.
	ErrBadCredentials = errors.New("invalid email or password")
	// ErrSessionExpired reports a session token past its maximum lifetime.
	ErrSessionExpired = errors.New("session expired")
	// ErrEmailInUse reports a signup against an already verified address.
	ErrEmailInUse = errors.New("email already registered")
)

const (
	// sessionLifetimeShort applies to logins without rememberMe.
	sessionLifetimeShort = 12 * time.Hour
	// sessionLifetimeLong applies to rememberMe logins.
	sessionLifetimeLong = 30 * 24 * time.Hour
	// verificationValidity bounds the verification token lifetime.
	verificationValidity = 24 * time.Hour
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserRepository defines the persistence operations required by the
// session service.
type UserRepository interface {
	// GetUser fetches the user keyed by email, repository.ErrNotFound if absent.
	GetUser(ctx context.Context, email string) (*models.User, error)
	// UpsertUser merge-writes user fields; nil fields keep stored values.
	UpsertUser(ctx context.Context, email string, upd models.UserUpdate) error
	// IsAdmin checks membership in the privileged set.
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// LoginResult is the outcome of a successful authentication.
type LoginResult struct {
	// Email is the normalized identity the session belongs to.
	Email string
	// SessionID is the renewable session token handed to the client.
	// Empty when logging in with an existing session token.
	SessionID string
	// Admin reports store-side admin policy, resolved at login time.
	Admin bool
}

// SessionService implements password, session-token and verification-token
// authentication plus signup.
type SessionService struct {
	repo      UserRepository
	mail      mailer.Mailer
	jwtSecret []byte
	log       *zap.Logger
	now       func() time.Time
}

// NewSessionService constructs a SessionService. jwtSecret signs and
// validates verification tokens; mail delivers them.
func NewSessionService(repo UserRepository, mail mailer.Mailer, jwtSecret []byte, log *zap.Logger) *SessionService {
	return &SessionService{
		repo:      repo,
		mail:      mail,
		jwtSecret: jwtSecret,
		log:       log,
		now:       time.Now,
	}
}

// normalizeEmail lowercases and trims the address and validates its syntax.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRx.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// LoginWithPassword authenticates by password, mints a fresh session token,
// stores its hash together with the session deadline, and resolves admin
// policy. Unknown user and wrong password both come back as
// ErrBadCredentials.
func (s *SessionService) LoginWithPassword(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login lookup: %w", err)
	}
	if user.PasswordHash == nil {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrBadCredentials
	}

	token := uuid.NewString()
	tokenHash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash session token: %w", err)
	}

	lifetime := sessionLifetimeShort
	if rememberMe {
		lifetime = sessionLifetimeLong
	}
	maxTime := s.now().Add(lifetime)

	if err := s.repo.UpsertUser(ctx, email, models.UserUpdate{
		SessionHash:    tokenHash,
		MaxSessionTime: &maxTime,
	}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	admin, err := s.repo.IsAdmin(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("admin lookup: %w", err)
	}

	return &LoginResult{Email: email, SessionID: token, Admin: admin}, nil
}

// LoginWithSession re-authenticates with a previously issued session token.
// The token is not reissued.
func (s *SessionService) LoginWithSession(ctx context.Context, email, token string) (*LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if user.SessionHash == nil || user.MaxSessionTime.IsZero() {
		return nil, ErrBadCredentials
	}
	if s.now().After(user.MaxSessionTime) {
		return nil, ErrSessionExpired
	}
	if bcrypt.CompareHashAndPassword(user.SessionHash, []byte(token)) != nil {
		return nil, ErrBadCredentials
	}

	admin, err := s.repo.IsAdmin(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("admin lookup: %w", err)
	}

	return &LoginResult{Email: email, Admin: admin}, nil
}

// Signup creates an unverified account (or refreshes an existing unverified
// one) and dispatches a signed verification token to the address.
// Mail delivery runs out-of-band; its failure is logged, never surfaced.
func (s *SessionService) Signup(ctx context.Context, email, password, siteOrigin string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	existing, err := s.repo.GetUser(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("signup lookup: %w", err)
	}
	if existing != nil && existing.Verified {
		return ErrEmailInUse
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	verified := false
	if err := s.repo.UpsertUser(ctx, email, models.UserUpdate{
		PasswordHash: passwordHash,
		Verified:     &verified,
	}); err != nil {
		return fmt.Errorf("store user: %w", err)
	}

	token, err := auth.GenerateVerificationToken(email, s.jwtSecret, verificationValidity)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}

	go func() {
		if err := s.mail.SendVerification(context.Background(), email, siteOrigin, token); err != nil {
			s.log.Error("verification mail failed", zap.String("email", email), zap.Error(err))
		}
	}()

	return nil
}

// Verify validates a signed verification token and flips the verified flag
// of the identity it was issued for. Returns the verified e-mail address.
func (s *SessionService) Verify(ctx context.Context, signedToken string) (string, error) {
	email, err := auth.EmailFromToken(signedToken, s.jwtSecret)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.GetUser(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", auth.ErrInvalidToken
		}
		return "", fmt.Errorf("verify lookup: %w", err)
	}

	verified := true
	if err := s.repo.UpsertUser(ctx, email, models.UserUpdate{Verified: &verified}); err != nil {
		return "", fmt.Errorf("store verification: %w", err)
	}
	return email, nil
}
