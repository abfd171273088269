package user

import (
	"context"
	"errors"
	"strings"

	"overlaykit/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserLocked         = errors.New("account is locked")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, *auth.TokenPair, error)
	Login(ctx context.Context, req LoginRequest) (*User, *auth.TokenPair, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	SetLocked(ctx context.Context, userID int, locked bool) (*User, error)
	Update(ctx context.Context, userID int, req UpdateRequest) (*User, error)
	Delete(ctx context.Context, userID int) error
	LookupPrincipal(ctx context.Context, userID int) (*auth.Principal, error)
	GrantAdmin(ctx context.Context, email string) (*User, error)
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, *auth.TokenPair, error) {
	email := normalizeEmail(req.Email)
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.repo.Create(ctx, strings.TrimSpace(req.Name), email, passwordHash, RoleMember)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := auth.GenerateTokens(user.ID, user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Login refuses locked accounts. Tokens issued before the lock stay valid
// until they expire.
func (s *service) Login(ctx context.Context, req LoginRequest) (*User, *auth.TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, nil, ErrInvalidCredentials
	}
	if user.IsLocked {
		return nil, nil, ErrUserLocked
	}

	tokens, err := auth.GenerateTokens(user.ID, user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}
	if user.IsLocked {
		return "", nil, ErrUserLocked
	}

	newAccessToken, err := auth.GenerateAccessToken(user.ID, user.Email, user.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, user, nil
}

func (s *service) SetLocked(ctx context.Context, userID int, locked bool) (*User, error) {
	return s.repo.SetLocked(ctx, userID, locked)
}

func (s *service) Update(ctx context.Context, userID int, req UpdateRequest) (*User, error) {
	current, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name, email, role := current.Name, current.Email, current.Role
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email = normalizeEmail(*req.Email)
	}
	if req.Role != nil {
		role = *req.Role
	}

	return s.repo.Update(ctx, userID, name, email, role)
}

func (s *service) Delete(ctx context.Context, userID int) error {
	return s.repo.Delete(ctx, userID)
}

func (s *service) LookupPrincipal(ctx context.Context, userID int) (*auth.Principal, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{Email: u.Email, Role: u.Role, Locked: u.IsLocked}, nil
}

// GrantAdmin gives an existing account the admin role. Registration never
// does this, so only an operator can provision admins.
func (s *service) GrantAdmin(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, u.ID, u.Name, u.Email, RoleAdmin)
}
