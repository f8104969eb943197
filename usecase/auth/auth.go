package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

// RegisterInput is a citizen self-registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

type UseCase struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokens     *TokenIssuer
	refreshTTL time.Duration
	hashCost   int
	logger     *zap.Logger
	now        func() time.Time
}

// Option customizes the use case.
type Option func(*UseCase)

// WithHashCost sets the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(uc *UseCase) { uc.hashCost = cost }
}

func New(users repository.UserRepository, sessions repository.SessionRepository, tokens *TokenIssuer, refreshTTL time.Duration, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	uc := &UseCase{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Register creates an active citizen account.
func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalidf("name is required")
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password, uc.hashCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		PasswordHash: hash,
		Role:         domain.RoleCitizen,
		IsActive:     true,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("citizen registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login checks credentials and opens a refresh session.
func (uc *UseCase) Login(ctx context.Context, email, password string, metadata map[string]string) (*domain.TokenPair, error) {
	user, err := uc.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "account is inactive")
	}

	session, err := uc.CreateSession(ctx, user, metadata)
	if err != nil {
		return nil, err
	}
	return uc.pair(user, session.ID)
}

// Refresh validates a refresh session, extends it and issues a new access token.
func (uc *UseCase) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	session, err := uc.GetSession(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "account is inactive")
	}
	if err := uc.sessions.Extend(ctx, session.ID, int(uc.refreshTTL.Seconds())); err != nil {
		return nil, err
	}
	return uc.pair(user, session.ID)
}

// Logout revokes the refresh session.
func (uc *UseCase) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return domain.ErrInvalidPayload
	}
	return uc.sessions.Delete(ctx, refreshToken)
}

func (uc *UseCase) CreateSession(ctx context.Context, user *domain.User, metadata map[string]string) (*domain.Session, error) {
	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.refreshTTL),
		Metadata:  metadata,
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// EnsureAdmin creates the bootstrap administrator when the email is unknown.
func (uc *UseCase) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, false, err
	}
	existing, err := uc.users.GetByEmail(ctx, normalized)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}

	hash, err := HashPassword(password, uc.hashCost)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrador"
	}
	admin := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        normalized,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := uc.users.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	uc.logger.Info("bootstrap admin created", zap.Int64("user_id", admin.ID))
	return admin, true, nil
}

func (uc *UseCase) pair(user *domain.User, refreshToken string) (*domain.TokenPair, error) {
	access, expiresAt, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// NormalizeEmail lower-cases and validates an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", domain.Invalidf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Invalidf("invalid email %q", email)
	}
	return email, nil
}
