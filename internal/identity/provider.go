package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tomlord1122/todolist/internal/config"
	"github.com/Tomlord1122/todolist/internal/domain"
	"github.com/Tomlord1122/todolist/internal/repository"
	"github.com/Tomlord1122/todolist/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("no active session")
	ErrInternal           = errors.New("internal error")
)

// Info is the account summary served at /manage/info.
type Info struct {
	Email            string `json:"email"`
	IsEmailConfirmed bool   `json:"isEmailConfirmed"`
}

type Option func(*Provider)

// WithHashParams overrides the argon2id cost, mostly for tests.
func WithHashParams(params *argon2id.Params) Option {
	return func(p *Provider) { p.hashParams = params }
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// Provider registers users, issues session cookies and resolves them back
// to user ids.
type Provider struct {
	users      repository.UserRepository
	sessions   SessionStore
	cookie     config.SessionConfig
	validate   *validation.Validator
	hashParams *argon2id.Params
	logger     zerolog.Logger
	now        func() time.Time
}

func NewProvider(users repository.UserRepository, sessions SessionStore, cfg config.SessionConfig, logger zerolog.Logger, opts ...Option) *Provider {
	p := &Provider{
		users:      users,
		sessions:   sessions,
		cookie:     cfg,
		validate:   validation.New(),
		hashParams: argon2id.DefaultParams,
		logger:     logger.With().Str("component", "identity").Logger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Policy failures come back as
// *validation.Error keyed by error code.
func (p *Provider) Register(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)

	verr := &validation.Error{}
	if !p.validate.Var(email, "required,email") {
		verr.Add(CodeInvalidEmail, "Email '"+email+"' is invalid.")
	}
	for code, msg := range checkPassword(password) {
		verr.Add(code, msg)
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	hash, err := argon2id.CreateHash(password, p.hashParams)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to hash password")
		return ErrInternal
	}

	now := p.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return validation.Field(CodeDuplicateUserName, "Username '"+email+"' is already taken.")
		}
		p.logger.Error().Err(err).Str("email", email).Msg("failed to create user")
		return ErrInternal
	}

	p.logger.Info().Str("user_id", user.ID).Msg("registered user")
	return nil
}

// Login checks the credentials and opens a session, returning its token.
// Unknown email and wrong password are indistinguishable to the caller.
func (p *Provider) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)

	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.logger.Debug().Str("email", email).Msg("login for unknown email")
			return "", ErrInvalidCredentials
		}
		p.logger.Error().Err(err).Str("email", email).Msg("failed to select user by email")
		return "", ErrInternal
	}

	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil {
		p.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to compare password")
		return "", ErrInternal
	}
	if !match {
		p.logger.Debug().Str("user_id", user.ID).Msg("passwords do not match")
		return "", ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to generate session token")
		return "", ErrInternal
	}
	expiresAt := p.now().UTC().Add(p.cookie.TTL)
	if err := p.sessions.Save(ctx, hashToken(token), user.ID, expiresAt); err != nil {
		p.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to save session")
		return "", ErrInternal
	}

	p.logger.Info().Str("user_id", user.ID).Time("expires_at", expiresAt).Msg("opened session")
	return token, nil
}

// Logout drops the session behind token. Unknown tokens are not an error.
func (p *Provider) Logout(ctx context.Context, token string) error {
	if err := p.sessions.Delete(ctx, hashToken(token)); err != nil {
		p.logger.Error().Err(err).Msg("failed to delete session")
		return ErrInternal
	}
	return nil
}

// Resolve returns the user id behind the request's session cookie.
func (p *Provider) Resolve(r *http.Request) (string, error) {
	token, ok := p.TokenFromRequest(r)
	if !ok {
		return "", ErrNoSession
	}
	userID, err := p.sessions.Lookup(r.Context(), hashToken(token), p.now().UTC())
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return "", ErrNoSession
		}
		p.logger.Error().Err(err).Msg("failed to look up session")
		return "", ErrInternal
	}
	return userID, nil
}

func (p *Provider) Info(ctx context.Context, userID string) (*Info, error) {
	user, err := p.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The account went away under a live session.
			return nil, ErrNoSession
		}
		p.logger.Error().Err(err).Str("user_id", userID).Msg("failed to select user by id")
		return nil, ErrInternal
	}
	return &Info{Email: user.Email, IsEmailConfirmed: false}, nil
}
