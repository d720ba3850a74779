package repository

import "errors"

// Sentinel errors shared by all storage implementations. Services translate
// these into user-facing error kinds.
var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlotTaken is returned when the storage layer refuses a booking
	// because the slot is held by a live booked appointment. This includes
	// unique-constraint violations raised by a concurrent booking.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrSameDayTaken is returned when the storage layer refuses a booking
	// because the patient already holds a live appointment on that date,
	// including one committed by a concurrent booking.
	ErrSameDayTaken = errors.New("patient already booked that day")

	// ErrDuplicate is returned on unique-constraint violations other than
	// the booking indexes, e.g. a second history entry for an appointment
	// or a reused email address.
	ErrDuplicate = errors.New("duplicate row")
)
