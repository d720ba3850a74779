package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/hms-api/internal/repository"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// requireRow converts a zero-rows-affected result into ErrNotFound.
func requireRow(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", resource, repository.ErrNotFound)
	}
	return nil
}

const uniqueViolation = "23505"

// Partial unique indexes guarding the appointment ledger: one booked
// appointment per (doctor, date, time), one live appointment per
// (patient, date).
const (
	bookedIndexName  = "appointments_booked_slot_idx"
	sameDayIndexName = "appointments_patient_day_idx"
)

// translateErr maps driver errors to the repository sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case bookedIndexName:
			return repository.ErrSlotTaken
		case sameDayIndexName:
			return repository.ErrSameDayTaken
		}
		return repository.ErrDuplicate
	}
	return err
}
