package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hms-api/internal/email"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/internal/service/event"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// Service is the booking engine. It validates a booking request against the
// availability store and the appointment ledger, then commits the
// appointment and the slot flip atomically through the repository.
type Service struct {
	slots        repository.AvailabilityRepository
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	events       event.Recorder
	mailer       email.Service
}

func NewService(
	slots repository.AvailabilityRepository,
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	events event.Recorder,
	mailer email.Service,
) *Service {
	return &Service{
		slots:        slots,
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		events:       events,
		mailer:       mailer,
	}
}

// Book places an appointment for the patient at (doctor, date, time).
//
// Precondition order is fixed, first failure wins: slot present and open,
// then no booked appointment already holding the slot, then no other
// appointment for the patient that day. The slot checks collapse into one
// user-facing SlotUnavailable so a patient racing for a taken slot sees the
// more specific message even when a same-day conflict also exists.
func (s *Service) Book(ctx context.Context, actor model.Actor, patientID, doctorID uuid.UUID, date time.Time, timeOfDay string) (*model.Appointment, error) {
	if !actor.OwnsPatient(patientID) && !actor.IsAdmin() {
		return nil, apperrors.NotAuthorized("cannot book for another patient")
	}

	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}

	if _, err := s.doctors.Get(ctx, doctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}

	date = model.TruncateToDate(date)

	// 1. Slot must exist and be open.
	slot, err := s.slots.GetSlot(ctx, doctorID, date, timeOfDay)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.SlotUnavailable(err)
		}
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if !slot.IsAvailable {
		return nil, apperrors.SlotUnavailable(nil)
	}

	// 2. No live booked appointment may hold the slot.
	if _, err := s.appointments.FindBooked(ctx, doctorID, date, timeOfDay); err == nil {
		return nil, apperrors.SlotUnavailable(nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check ledger: %w", err)
	}

	// 3. One appointment per patient per calendar date, counting booked and
	// completed. Cancelled ones free the day.
	sameDay, err := s.appointments.FindForPatientOnDate(ctx, patientID, date,
		[]model.AppointmentStatus{model.AppointmentStatusBooked, model.AppointmentStatusCompleted})
	if err != nil {
		return nil, fmt.Errorf("failed to check same-day bookings: %w", err)
	}
	if len(sameDay) > 0 {
		return nil, apperrors.DuplicateBookingSameDay()
	}

	appointment := &model.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      timeOfDay,
	}
	if err := s.appointments.Book(ctx, appointment); err != nil {
		// A concurrent booking that won the race surfaces here as a
		// constraint violation, not as a raw storage error. Both ledger
		// rules are re-enforced at commit: the slot index and the
		// one-per-patient-per-day index.
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperrors.SlotUnavailable(err)
		}
		if errors.Is(err, repository.ErrSameDayTaken) {
			return nil, apperrors.DuplicateBookingSameDay()
		}
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	s.events.AppointmentEvent(ctx, model.EventAppointmentBooked, appointment)
	if err := s.mailer.SendBookingConfirmation(ctx, patient.Email, appointment); err != nil {
		log.Warn().Err(err).Str("appointment_id", appointment.ID.String()).Msg("booking confirmation mail failed")
	}

	return appointment, nil
}
