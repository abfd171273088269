package ledgertest

import (
	"context"
	"sync"
	"time"

	"overlaykit/internal/user"
)

type Users struct {
	mu     sync.Mutex
	nextID int
	users  map[int]user.User

	// FailDelete makes Delete return this error.
	FailDelete error
}

var _ user.Repository = (*Users)(nil)

func NewUsers() *Users {
	return &Users{nextID: 1, users: map[int]user.User{}}
}

// Seed adds a member with the given e-mail and returns its id.
func (s *Users) Seed(name, email string) int {
	u, _ := s.Create(context.Background(), name, email, "", user.RoleMember)
	return u.ID
}

// SeedAdmin adds an account holding the admin role and returns its id.
func (s *Users) SeedAdmin(name, email string) int {
	u, _ := s.Create(context.Background(), name, email, "", user.RoleAdmin)
	return u.ID
}

func (s *Users) Exists(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok
}

func (s *Users) Create(ctx context.Context, name, email, passwordHash, role string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, user.ErrEmailExists
		}
	}
	now := time.Now()
	u := user.User{
		ID:           s.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.nextID++
	s.users[u.ID] = u
	return &u, nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (s *Users) FindByID(ctx context.Context, id int) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (s *Users) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *Users) SetLocked(ctx context.Context, id int, locked bool) (*user.User, error) {
	return s.mutate(id, func(u *user.User) { u.IsLocked = locked })
}

func (s *Users) Update(ctx context.Context, id int, name, email, role string) (*user.User, error) {
	return s.mutate(id, func(u *user.User) {
		u.Name = name
		u.Email = email
		u.Role = role
	})
}

func (s *Users) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDelete != nil {
		return s.FailDelete
	}
	if _, ok := s.users[id]; !ok {
		return user.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Users) mutate(id int, fn func(u *user.User)) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return &u, nil
}
