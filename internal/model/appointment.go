package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// IsTerminal reports whether no further status transition is permitted.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// Appointment is a ledger entry. Patient, doctor, date and time are
// immutable once created; only status changes, and only through the
// transition service.
type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Date      time.Time         `db:"appointment_date" json:"date"`
	Time      string            `db:"appointment_time" json:"time"`
	Status    AppointmentStatus `db:"status" json:"status"`
}

// TransitionAction names a requested status change. The cancel action is
// accepted under both spellings the doctor UI historically used.
type TransitionAction string

const (
	ActionComplete  TransitionAction = "complete"
	ActionCancel    TransitionAction = "cancel"
	ActionCancelled TransitionAction = "cancelled"
)

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" binding:"required,uuid"`
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Time     string `json:"time" binding:"required,clocktime"`

	// PatientID is only honored for admin callers booking on a patient's
	// behalf; patients always book for themselves.
	PatientID string `json:"patient_id" binding:"omitempty,uuid"`
}

type TransitionRequest struct {
	Action string `json:"action" binding:"required"`
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	FromDate  time.Time
	ToDate    time.Time
}
