package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mananchopra067-oss/blood-sugar-monitoring-system/shared/models"
)

// UserWriteRepository handles all state-mutating operations for users and
// their role subtype rows. Every method holds one pooled connection for its
// duration and runs its statements in a single transaction.
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// withTx runs fn inside a transaction on a dedicated connection. The
// transaction is rolled back unless fn returns nil and the commit succeeds.
func (r *UserWriteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translateWriteError(err, "commit transaction")
	}
	return nil
}

// Create inserts the user and its subtype row atomically. On success
// user.ID and user.CreatedAt are filled in from the database.
func (r *UserWriteRepository) Create(ctx context.Context, user *models.User, data models.RoleData) error {
	if data == nil || data.Role() != user.Role {
		return fmt.Errorf("%w: %s user with %T subtype", models.ErrUnknownRole, user.Role, data)
	}

	var (
		id        int64
		createdAt time.Time
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO users (name, email, password_hash, phone, role, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			RETURNING user_id, created_at
		`
		err := tx.QueryRowContext(ctx, query,
			user.Name, user.Email, user.PasswordHash, nullString(user.Phone),
			string(user.Role), user.Status,
		).Scan(&id, &createdAt)
		if err != nil {
			return translateWriteError(err, "create user")
		}

		if err := insertRoleData(ctx, tx, id, data); err != nil {
			return fmt.Errorf("failed to create %s record: %w", user.Role, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	user.ID = id
	user.CreatedAt = createdAt
	return nil
}

// UpdateProfile writes name, email, phone and profile image. An email held
// by any other user yields ErrEmailInUse; the user's own email is allowed.
func (r *UserWriteRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var taken bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND user_id <> $2)`,
			user.Email, user.ID,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return models.ErrEmailInUse
		}

		query := `
			UPDATE users
			SET name = $2, email = $3, phone = $4, profile_image = $5
			WHERE user_id = $1
		`
		result, err := tx.ExecContext(ctx, query,
			user.ID, user.Name, user.Email, nullString(user.Phone), nullString(user.ProfileImage),
		)
		if err != nil {
			return translateWriteError(err, "update user")
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rows == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// Delete removes the subtype row and then the user row in one transaction
// and returns the role the user held. A missing user mutates nothing.
func (r *UserWriteRepository) Delete(ctx context.Context, id int64) (models.Role, error) {
	var role models.Role
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT role FROM users WHERE user_id = $1 FOR UPDATE`, id,
		).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get user role: %w", err)
		}

		role, err = models.ParseRole(raw)
		if err != nil {
			return err
		}

		if err := deleteRoleData(ctx, tx, role, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return role, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
