package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/model"
)

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	if err := r.GetDB().GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", translateErr(err))
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	if err := r.GetDB().GetContext(ctx, &user, query, email); err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", translateErr(err))
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, updated_at = $3
		WHERE id = $4
	`
	user.UpdatedAt = time.Now()
	result, err := r.GetDB().ExecContext(ctx, query, user.Name, user.Email, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translateErr(err))
	}
	return requireRow(result, "user")
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.UserRole) error {
	query := `
		UPDATE users
		SET role = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.GetDB().ExecContext(ctx, query, role, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", translateErr(err))
	}
	return requireRow(result, "user")
}

func insertUserTx(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := tx.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateErr(err))
	}
	return nil
}
