package user

import "context"

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetLocked(ctx context.Context, id int, locked bool) (*User, error)
	Update(ctx context.Context, id int, name, email, role string) (*User, error)
	Delete(ctx context.Context, id int) error
}
