package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

const historyColumns = `
	id, patient_id, doctor_id, appointment_id, visit_type, test_type,
	diagnosis, treatment, prescription, doctor_name, department,
	created_at, updated_at
`

func (r *historyRepository) Create(ctx context.Context, entry *model.HistoryEntry) error {
	query := `
		INSERT INTO history_entries (` + historyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	now := time.Now()
	entry.ID = uuid.New()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if _, err := r.GetDB().ExecContext(ctx, query,
		entry.ID, entry.PatientID, entry.DoctorID, entry.AppointmentID,
		entry.VisitType, entry.TestType, entry.Diagnosis, entry.Treatment,
		entry.Prescription, entry.DoctorName, entry.Department,
		entry.CreatedAt, entry.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create history entry: %w", translateErr(err))
	}
	return nil
}

func (r *historyRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history_entries WHERE appointment_id = $1`
	var entry model.HistoryEntry
	if err := r.GetDB().GetContext(ctx, &entry, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", translateErr(err))
	}
	return &entry, nil
}

func (r *historyRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.HistoryEntry, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM history_entries
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var entries []*model.HistoryEntry
	if err := r.GetDB().SelectContext(ctx, &entries, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	return entries, nil
}
