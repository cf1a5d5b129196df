package repositories

import (
	"context"
	"fmt"

	"github.com/Totarae/shortlinks/internal/model"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, phone, password_hash, role, first_name, last_name,
       address, state, zip_code, verified, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &role,
		&u.Profile.FirstName, &u.Profile.LastName, &u.Profile.Address, &u.Profile.State,
		&u.Profile.ZipCode, &u.Profile.Verified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if u.Role, err = model.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя.
func (r *PGRepository) CreateUser(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (` + userColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.DB.Exec(ctx, query, u.ID, u.Email, u.Phone, u.PasswordHash, u.Role.String(),
		u.Profile.FirstName, u.Profile.LastName, u.Profile.Address, u.Profile.State,
		u.Profile.ZipCode, u.Profile.Verified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, emailConstraint) {
			return model.ErrUserExists
		}
		return fmt.Errorf("database insert error: %w", err)
	}
	return nil
}

// GetUserByID возвращает пользователя по id.
func (r *PGRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user by id")
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (r *PGRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, notFound(err, "user by email")
	}
	return u, nil
}

// UpdateUser обновляет телефон, роль и профиль.
func (r *PGRepository) UpdateUser(ctx context.Context, u *model.User) error {
	query := `UPDATE users SET phone = $2, role = $3, first_name = $4, last_name = $5,
              address = $6, state = $7, zip_code = $8, verified = $9, updated_at = $10
              WHERE id = $1`
	tag, err := r.DB.Exec(ctx, query, u.ID, u.Phone, u.Role.String(),
		u.Profile.FirstName, u.Profile.LastName, u.Profile.Address, u.Profile.State,
		u.Profile.ZipCode, u.Profile.Verified, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user %s: %w", u.ID, model.ErrNotFound)
	}
	return nil
}

// ListUsers возвращает пользователей, новые первыми.
func (r *PGRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser удаляет пользователя.
func (r *PGRepository) DeleteUser(ctx context.Context, id string) (bool, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
