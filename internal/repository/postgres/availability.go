package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

func (r *availabilityRepository) Upsert(ctx context.Context, slot *model.AvailabilitySlot) error {
	query := `
		INSERT INTO availability_slots (
			id, doctor_id, slot_date, start_time, end_time, is_available,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (doctor_id, slot_date) DO UPDATE
		SET start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			is_available = EXCLUDED.is_available,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	if _, err := r.GetDB().ExecContext(ctx, query,
		slot.ID, slot.DoctorID, slot.Date, slot.StartTime, slot.EndTime,
		slot.IsAvailable, slot.CreatedAt, slot.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to upsert availability slot: %w", translateErr(err))
	}
	return nil
}

func (r *availabilityRepository) GetSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime string) (*model.AvailabilitySlot, error) {
	query := `
		SELECT id, doctor_id, slot_date, start_time, end_time, is_available,
			   created_at, updated_at
		FROM availability_slots
		WHERE doctor_id = $1 AND slot_date = $2 AND start_time = $3
	`
	var slot model.AvailabilitySlot
	if err := r.GetDB().GetContext(ctx, &slot, query, doctorID, date, startTime); err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", translateErr(err))
	}
	return &slot, nil
}

func (r *availabilityRepository) GetByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.AvailabilitySlot, error) {
	query := `
		SELECT id, doctor_id, slot_date, start_time, end_time, is_available,
			   created_at, updated_at
		FROM availability_slots
		WHERE doctor_id = $1 AND slot_date = $2
	`
	var slot model.AvailabilitySlot
	if err := r.GetDB().GetContext(ctx, &slot, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to get slot by date: %w", translateErr(err))
	}
	return &slot, nil
}

func (r *availabilityRepository) ListRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.AvailabilitySlot, error) {
	query := `
		SELECT id, doctor_id, slot_date, start_time, end_time, is_available,
			   created_at, updated_at
		FROM availability_slots
		WHERE doctor_id = $1 AND slot_date >= $2 AND slot_date <= $3
		ORDER BY slot_date ASC
	`
	var slots []*model.AvailabilitySlot
	if err := r.GetDB().SelectContext(ctx, &slots, query, doctorID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}
