package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

const appointmentColumns = `
	id, patient_id, doctor_id, appointment_date, appointment_time, status,
	created_at, updated_at
`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appointment model.Appointment
	if err := r.GetDB().GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", translateErr(err))
	}
	return &appointment, nil
}

// Book commits a booking atomically: the matching slot row is locked for the
// duration of the transaction, re-checked, flipped to unavailable, and the
// appointment inserted. The partial unique indexes are the final arbiters
// against concurrent bookings that raced past the service checks: the booked
// slot index for the slot rules, the patient-day index for the
// one-appointment-per-day rule.
func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var slotID uuid.UUID
		err := tx.GetContext(ctx, &slotID, `
			SELECT id FROM availability_slots
			WHERE doctor_id = $1 AND slot_date = $2 AND start_time = $3
			  AND is_available = TRUE
			FOR UPDATE
		`, appointment.DoctorID, appointment.Date, appointment.Time)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("slot gone while booking: %w", repository.ErrSlotTaken)
			}
			return fmt.Errorf("failed to lock slot: %w", err)
		}

		now := time.Now()
		appointment.ID = uuid.New()
		appointment.Status = model.AppointmentStatusBooked
		appointment.CreatedAt = now
		appointment.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO appointments (`+appointmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			appointment.ID, appointment.PatientID, appointment.DoctorID,
			appointment.Date, appointment.Time, appointment.Status,
			appointment.CreatedAt, appointment.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create appointment: %w", translateErr(err))
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE availability_slots
			SET is_available = FALSE, updated_at = $1
			WHERE id = $2
		`, now, slotID); err != nil {
			return fmt.Errorf("failed to mark slot unavailable: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, restoreSlot bool) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var appointment model.Appointment
		err := tx.GetContext(ctx, &appointment, `
			SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE
		`, id)
		if err != nil {
			return fmt.Errorf("failed to get appointment: %w", translateErr(err))
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3
		`, status, now, id); err != nil {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}

		if restoreSlot {
			if _, err := tx.ExecContext(ctx, `
				UPDATE availability_slots
				SET is_available = TRUE, updated_at = $1
				WHERE doctor_id = $2 AND slot_date = $3 AND start_time = $4
			`, now, appointment.DoctorID, appointment.Date, appointment.Time); err != nil {
				return fmt.Errorf("failed to restore slot: %w", err)
			}
		}
		return nil
	})
}

func (r *appointmentRepository) FindBooked(ctx context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3
		  AND status = 'booked'
	`
	var appointment model.Appointment
	if err := r.GetDB().GetContext(ctx, &appointment, query, doctorID, date, timeOfDay); err != nil {
		return nil, fmt.Errorf("failed to find booked appointment: %w", translateErr(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindForPatientOnDate(ctx context.Context, patientID uuid.UUID, date time.Time, statuses []model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = ? AND appointment_date = ? AND status IN (?)
	`
	query, args, err := sqlx.In(query, patientID, date, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	query = r.GetDB().Rebind(query)

	var appointments []*model.Appointment
	if err := r.GetDB().SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find appointments for patient: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}

	if filters != nil {
		if filters.DoctorID != uuid.Nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", len(args)+1)
			args = append(args, filters.DoctorID)
		}
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", len(args)+1)
			args = append(args, filters.PatientID)
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", len(args)+1)
			args = append(args, filters.Status)
		}
		if !filters.FromDate.IsZero() {
			query += fmt.Sprintf(" AND appointment_date >= $%d", len(args)+1)
			args = append(args, filters.FromDate)
		}
		if !filters.ToDate.IsZero() {
			query += fmt.Sprintf(" AND appointment_date <= $%d", len(args)+1)
			args = append(args, filters.ToDate)
		}
	}

	query += " ORDER BY appointment_date ASC, appointment_time ASC"

	var appointments []*model.Appointment
	if err := r.GetDB().SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) AssignedPatients(ctx context.Context, doctorID uuid.UUID) ([]*model.Patient, error) {
	query := `
		SELECT DISTINCT p.id, p.name, p.created_at, p.updated_at, u.email
		FROM patients p
		JOIN users u ON u.id = p.id
		JOIN appointments a ON a.patient_id = p.id
		WHERE a.doctor_id = $1
		ORDER BY p.name ASC
	`
	var patients []*model.Patient
	if err := r.GetDB().SelectContext(ctx, &patients, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list assigned patients: %w", err)
	}
	return patients, nil
}
