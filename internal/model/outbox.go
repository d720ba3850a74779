package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and published asynchronously by the worker.
type OutboxEvent struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	EventType   string          `db:"event_type" json:"event_type"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	Status      OutboxStatus    `db:"status" json:"status"`
	Error       *string         `db:"error" json:"error,omitempty"`
	RetryAt     *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}
