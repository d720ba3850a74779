package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/model"
)

const patientSelect = `
	SELECT p.id, p.name, p.created_at, p.updated_at, u.email
	FROM patients p
	JOIN users u ON u.id = p.id
`

func (r *patientRepository) Create(ctx context.Context, user *model.User, patient *model.Patient) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUserTx(ctx, tx, user); err != nil {
			return err
		}

		query := `
			INSERT INTO patients (id, name, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
		`
		patient.ID = user.ID
		patient.CreatedAt = user.CreatedAt
		patient.UpdatedAt = user.UpdatedAt
		if _, err := tx.ExecContext(ctx, query,
			patient.ID, patient.Name, patient.CreatedAt, patient.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create patient: %w", translateErr(err))
		}
		return nil
	})
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := patientSelect + ` WHERE p.id = $1`
	var patient model.Patient
	if err := r.GetDB().GetContext(ctx, &patient, query, id); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", translateErr(err))
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()
		patient.UpdatedAt = now

		result, err := tx.ExecContext(ctx, `
			UPDATE patients
			SET name = $1, updated_at = $2
			WHERE id = $3
		`, patient.Name, now, patient.ID)
		if err != nil {
			return fmt.Errorf("failed to update patient: %w", translateErr(err))
		}
		if err := requireRow(result, "patient"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET name = $1, email = $2, updated_at = $3
			WHERE id = $4
		`, patient.Name, patient.Email, now, patient.ID); err != nil {
			return fmt.Errorf("failed to update patient user: %w", translateErr(err))
		}
		return nil
	})
}

// Delete removes dependents first, then the patient and backing user row.
func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		steps := []string{
			`DELETE FROM history_entries WHERE patient_id = $1`,
			`DELETE FROM appointments WHERE patient_id = $1`,
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("failed to delete patient dependents: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		if err := requireRow(result, "patient"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete patient user: %w", err)
		}
		return nil
	})
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := patientSelect + ` WHERE 1=1`
	args := []interface{}{}

	if filters != nil && filters.SearchTerm != "" {
		query += fmt.Sprintf(" AND p.name ILIKE $%d", len(args)+1)
		args = append(args, "%"+filters.SearchTerm+"%")
	}

	query += " ORDER BY p.name ASC"

	var patients []*model.Patient
	if err := r.GetDB().SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
