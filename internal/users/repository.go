package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-lite/internal/platform/db"
	"github.com/odyssey-erp/odyssey-lite/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

const profileColumns = `id::text, email, COALESCE(full_name, ''), COALESCE(phone, ''), is_active, created_at, updated_at`

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+profileColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return users, nil
}

// GetProfile loads the profile of a single user.
func (r *Repository) GetProfile(ctx context.Context, id string) (*User, error) {
	return scanUser(r.conn.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1`, id))
}

// UpdateProfile stores the editable fields and returns the updated row.
func (r *Repository) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*User, error) {
	row := r.conn.QueryRow(ctx, `UPDATE users SET full_name = $2, phone = NULLIF($3, ''), updated_at = NOW()
WHERE id = $1
RETURNING `+profileColumns, id, in.FullName, in.Phone)
	return scanUser(row)
}

// PasswordHash returns the stored bcrypt hash of a user.
func (r *Repository) PasswordHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := r.conn.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", fmt.Errorf("users: password hash: %w", err)
	}
	return hash, nil
}

// UpdatePasswordHash replaces the stored bcrypt hash of a user.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	tag, err := r.conn.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("users: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.Phone, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("users: scan user: %w", err)
	}
	return &user, nil
}

var _ RepositoryPort = (*Repository)(nil)
