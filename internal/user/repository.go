package user

import (
	"context"
	"database/sql"
	"errors"

	"overlaykit/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, name, email, password_hash, role, is_locked, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, name, email, passwordHash, role)
	if db.IsUniqueViolation(err) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

// SetLocked has no version check: concurrent toggles resolve last write wins.
func (r *repository) SetLocked(ctx context.Context, id int, locked bool) (*User, error) {
	return r.findOne(ctx, `
		UPDATE users
		SET is_locked = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, locked)
}

func (r *repository) Update(ctx context.Context, id int, name, email, role string) (*User, error) {
	query := `
		UPDATE users
		SET name = $2, email = $3, role = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, id, name, email, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if db.IsUniqueViolation(err) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
