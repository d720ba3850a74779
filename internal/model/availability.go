package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AvailabilitySlot is a single offered time window for one doctor on one
// date. One slot per (doctor, date); booking flips IsAvailable off.
type AvailabilitySlot struct {
	Base
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date        time.Time `db:"slot_date" json:"date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
}

type SetAvailabilityRequest struct {
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"required,clocktime"`
	EndTime   string `json:"end_time" binding:"required,clocktime"`
	Available bool   `json:"available"`
}

// SetWeekRequest mirrors the seven-day availability form: one optional
// entry per day of the coming week.
type SetWeekRequest struct {
	Days []SetAvailabilityRequest `json:"days" binding:"required,dive"`
}

// ValidateClockTime checks an HH:MM time-of-day string.
func ValidateClockTime(s string) error {
	if _, err := time.Parse(ClockTime, s); err != nil {
		return fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return nil
}

// TruncateToDate drops the clock portion of t, keeping the calendar date in UTC.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
