package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/model"
)

const doctorSelect = `
	SELECT d.id, d.department_id, d.experience_years, d.created_at, d.updated_at,
		   u.name, u.email, dep.name AS department_name
	FROM doctors d
	JOIN users u ON u.id = d.id
	JOIN departments dep ON dep.id = d.department_id
`

func (r *doctorRepository) Create(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUserTx(ctx, tx, user); err != nil {
			return err
		}

		query := `
			INSERT INTO doctors (id, department_id, experience_years, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		doctor.ID = user.ID
		doctor.CreatedAt = user.CreatedAt
		doctor.UpdatedAt = user.UpdatedAt
		if _, err := tx.ExecContext(ctx, query,
			doctor.ID, doctor.DepartmentID, doctor.ExperienceYears,
			doctor.CreatedAt, doctor.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create doctor: %w", translateErr(err))
		}
		return nil
	})
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := doctorSelect + ` WHERE d.id = $1`
	var doctor model.Doctor
	if err := r.GetDB().GetContext(ctx, &doctor, query, id); err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", translateErr(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()
		doctor.UpdatedAt = now

		result, err := tx.ExecContext(ctx, `
			UPDATE doctors
			SET department_id = $1, experience_years = $2, updated_at = $3
			WHERE id = $4
		`, doctor.DepartmentID, doctor.ExperienceYears, now, doctor.ID)
		if err != nil {
			return fmt.Errorf("failed to update doctor: %w", translateErr(err))
		}
		if err := requireRow(result, "doctor"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET name = $1, email = $2, updated_at = $3
			WHERE id = $4
		`, doctor.Name, doctor.Email, now, doctor.ID); err != nil {
			return fmt.Errorf("failed to update doctor user: %w", translateErr(err))
		}
		return nil
	})
}

// Delete removes dependents first, then the doctor and backing user row.
// Order matters: history references appointments.
func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		steps := []string{
			`DELETE FROM history_entries WHERE doctor_id = $1`,
			`DELETE FROM appointments WHERE doctor_id = $1`,
			`DELETE FROM availability_slots WHERE doctor_id = $1`,
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("failed to delete doctor dependents: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete doctor: %w", err)
		}
		if err := requireRow(result, "doctor"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete doctor user: %w", err)
		}
		return nil
	})
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	query := doctorSelect + ` WHERE 1=1`
	args := []interface{}{}

	if filters != nil {
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(" AND u.name ILIKE $%d", len(args)+1)
			args = append(args, "%"+filters.SearchTerm+"%")
		}
		if filters.DepartmentID != uuid.Nil {
			query += fmt.Sprintf(" AND d.department_id = $%d", len(args)+1)
			args = append(args, filters.DepartmentID)
		}
	}

	query += " ORDER BY u.name ASC"

	var doctors []*model.Doctor
	if err := r.GetDB().SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
