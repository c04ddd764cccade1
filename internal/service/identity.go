package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/project-tracker/internal/apperr"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/model"
	"github.com/iliyamo/project-tracker/internal/password"
	"github.com/iliyamo/project-tracker/internal/queue"
	"github.com/iliyamo/project-tracker/internal/repository"
	"github.com/iliyamo/project-tracker/internal/token"
)

// CredentialStore persists identities keyed by unique email.
type CredentialStore interface {
	Create(ctx context.Context, u *model.Identity) error
	GetByEmail(ctx context.Context, email string) (*model.Identity, error)
	GetByID(ctx context.Context, id uint64) (*model.Identity, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, id uint64) error
}

// RegisterInput is the register request after binding.
type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
}

// ValidationResult is the answer of the validate endpoint.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	UserID uint64 `json:"userId,omitempty"`
}

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores input past 72 bytes
	maxNameLen     = 100
)

// IdentityService registers and authenticates users and issues tokens.
type IdentityService struct {
	users  CredentialStore
	codec  *token.Codec
	hasher password.Hasher
	events EventPublisher
	log    logger.Logger
	now    Clock
}

func NewIdentityService(users CredentialStore, codec *token.Codec, hasher password.Hasher, events EventPublisher, log logger.Logger) *IdentityService {
	if events == nil {
		events = NopPublisher{}
	}
	return &IdentityService{users: users, codec: codec, hasher: hasher, events: events, log: log, now: systemClock}
}

// WithClock overrides the time source.
func (s *IdentityService) WithClock(now Clock) *IdentityService {
	s.now = now
	return s
}

// Register creates an identity and issues its first token.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return AuthResult{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLen {
		return AuthResult{}, apperr.Validation("name is required")
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return AuthResult{}, apperr.Validation("password must be 6 to 72 characters")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, apperr.Wrap(err, apperr.CodeInternal, "lookup failed")
	}
	if exists {
		return AuthResult{}, apperr.DuplicateIdentity
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, apperr.Wrap(err, apperr.CodeInternal, "hash failed")
	}
	u := &model.Identity{Email: email, Name: name, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		// the unique key catches a concurrent register of the same email
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, apperr.DuplicateIdentity
		}
		return AuthResult{}, apperr.Wrap(err, apperr.CodeInternal, "create user failed")
	}
	s.log.Info("identity registered", logger.Uint64("user_id", u.ID))
	return s.issue(u)
}

// Login authenticates by email and password. An unknown email and a wrong
// password produce the same error.
func (s *IdentityService) Login(ctx context.Context, email, plain string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plain == "" {
		return AuthResult{}, apperr.Validation("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Burn(plain)
		s.log.Debug("login rejected", logger.String("reason", "unknown email"))
		return AuthResult{}, apperr.InvalidCredentials
	}
	if err != nil {
		return AuthResult{}, apperr.Wrap(err, apperr.CodeInternal, "query failed")
	}
	if !s.hasher.Matches(u.PasswordHash, plain) {
		s.log.Debug("login rejected", logger.String("reason", "password mismatch"), logger.Uint64("user_id", u.ID))
		return AuthResult{}, apperr.InvalidCredentials
	}
	return s.issue(u)
}

// Validate reports whether the token verifies and its subject still exists.
// It never returns an error; any failure is simply an invalid result.
func (s *IdentityService) Validate(ctx context.Context, raw string) ValidationResult {
	claims, err := s.codec.Verify(raw, s.now())
	if err != nil {
		s.log.Debug("validate rejected", logger.Bool("expired", token.IsExpired(err)), logger.Err(err))
		return ValidationResult{}
	}
	exists, err := s.users.ExistsByEmail(ctx, claims.Email())
	if err != nil {
		s.log.Warn("validate lookup failed", logger.Err(err))
		return ValidationResult{}
	}
	if !exists {
		s.log.Debug("validate rejected", logger.String("reason", "subject no longer exists"))
		return ValidationResult{}
	}
	return ValidationResult{Valid: true, UserID: claims.UserID}
}

// Me returns the caller's identity.
func (s *IdentityService) Me(ctx context.Context, caller model.Caller) (*model.Identity, error) {
	u, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, storeErr(err, "user", "load user")
	}
	return u, nil
}

// DeleteAccount removes the caller's identity. Tokens already issued keep
// verifying until they expire, but Validate rejects them from now on.
func (s *IdentityService) DeleteAccount(ctx context.Context, caller model.Caller) error {
	u, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return storeErr(err, "user", "load user")
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return storeErr(err, "user", "delete user")
	}
	ev := queue.IdentityDeletedEvent{IdentityID: u.ID, Email: u.Email, DeletedAt: s.now()}
	if err := s.events.Publish(ctx, queue.IdentityDeleted, ev); err != nil {
		s.log.Warn("publish identity.deleted failed", logger.Uint64("user_id", u.ID), logger.Err(err))
	}
	s.log.Info("identity deleted", logger.Uint64("user_id", u.ID))
	return nil
}

func (s *IdentityService) issue(u *model.Identity) (AuthResult, error) {
	tok, err := s.codec.Issue(u.Email, u.ID, s.now())
	if err != nil {
		return AuthResult{}, apperr.Wrap(err, apperr.CodeInternal, "issue token failed")
	}
	return AuthResult{
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
	}, nil
}

func validateEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("a valid email is required")
	}
	return email, nil
}
