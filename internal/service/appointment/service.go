package appointment

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

// Service manages appointment status transitions and ledger queries.
type Service struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	events       event.Recorder
	mailer       email.Service
	now          func() time.Time
}

func NewService(
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	events event.Recorder,
	mailer email.Service,
) *Service {
	return &Service{
		appointments: appointments,
		patients:     patients,
		events:       events,
		mailer:       mailer,
		now:          time.Now,
	}
}

// PatientAppointments is the dashboard split: upcoming holds booked
// appointments from today on, past holds everything else.
type PatientAppointments struct {
	Upcoming []*model.Appointment `json:"upcoming"`
	Past     []*model.Appointment `json:"past"`
}

// Transition applies a named action to the appointment.
//
// booked -> completed: owning doctor only. booked -> cancelled: owning
// doctor or owning patient. completed and cancelled are terminal; nothing
// leaves them. A cancelled booking re-opens its availability slot; a
// completed one does not, since the visit consumed it.
func (s *Service) Transition(ctx context.Context, actor model.Actor, id uuid.UUID, action string) (*model.Appointment, error) {
	target, err := targetStatus(action)
	if err != nil {
		return nil, err
	}

	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}

	switch target {
	case model.AppointmentStatusCompleted:
		if !actor.OwnsDoctor(appointment.DoctorID) {
			return nil, apperrors.NotAuthorized("not authorized to update this appointment")
		}
	case model.AppointmentStatusCancelled:
		if !actor.OwnsDoctor(appointment.DoctorID) && !actor.OwnsPatient(appointment.PatientID) {
			return nil, apperrors.NotAuthorized("not authorized to update this appointment")
		}
	}

	if appointment.Status.IsTerminal() {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("appointment is already %s", appointment.Status))
	}

	restoreSlot := target == model.AppointmentStatusCancelled
	if err := s.appointments.UpdateStatus(ctx, id, target, restoreSlot); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	appointment.Status = target

	eventType := model.EventAppointmentCompleted
	if target == model.AppointmentStatusCancelled {
		eventType = model.EventAppointmentCancelled
	}
	s.events.AppointmentEvent(ctx, eventType, appointment)

	if target == model.AppointmentStatusCancelled {
		if patient, err := s.patients.Get(ctx, appointment.PatientID); err == nil {
			if err := s.mailer.SendCancellation(ctx, patient.Email, appointment); err != nil {
				log.Warn().Err(err).Str("appointment_id", id.String()).Msg("cancellation mail failed")
			}
		}
	}

	return appointment, nil
}

func targetStatus(action string) (model.AppointmentStatus, error) {
	switch model.TransitionAction(action) {
	case model.ActionComplete:
		return model.AppointmentStatusCompleted, nil
	case model.ActionCancel, model.ActionCancelled:
		return model.AppointmentStatusCancelled, nil
	default:
		return "", apperrors.UnknownAction(action)
	}
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}
	if !actor.IsAdmin() && !actor.OwnsDoctor(appointment.DoctorID) && !actor.OwnsPatient(appointment.PatientID) {
		return nil, apperrors.NotAuthorized("not authorized to view this appointment")
	}
	return appointment, nil
}

// ListUpcomingForDoctor returns the doctor's booked appointments from today
// on, ordered by date and time.
func (s *Service) ListUpcomingForDoctor(ctx context.Context, actor model.Actor, doctorID uuid.UUID) ([]*model.Appointment, error) {
	if !actor.OwnsDoctor(doctorID) && !actor.IsAdmin() {
		return nil, apperrors.NotAuthorized("not authorized to view this schedule")
	}
	return s.appointments.List(ctx, &model.AppointmentFilters{
		DoctorID: doctorID,
		Status:   model.AppointmentStatusBooked,
		FromDate: model.TruncateToDate(s.now()),
	})
}

func (s *Service) ListCompletedForDoctor(ctx context.Context, actor model.Actor, doctorID uuid.UUID) ([]*model.Appointment, error) {
	if !actor.OwnsDoctor(doctorID) && !actor.IsAdmin() {
		return nil, apperrors.NotAuthorized("not authorized to view this schedule")
	}
	return s.appointments.List(ctx, &model.AppointmentFilters{
		DoctorID: doctorID,
		Status:   model.AppointmentStatusCompleted,
	})
}

// ListForPatient splits the patient's ledger into upcoming and past.
func (s *Service) ListForPatient(ctx context.Context, actor model.Actor, patientID uuid.UUID) (*PatientAppointments, error) {
	if !actor.OwnsPatient(patientID) && !actor.IsAdmin() {
		return nil, apperrors.NotAuthorized("not authorized to view these appointments")
	}

	all, err := s.appointments.List(ctx, &model.AppointmentFilters{PatientID: patientID})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	today := model.TruncateToDate(s.now())
	result := &PatientAppointments{
		Upcoming: []*model.Appointment{},
		Past:     []*model.Appointment{},
	}
	for _, a := range all {
		if a.Status == model.AppointmentStatusBooked && !a.Date.Before(today) {
			result.Upcoming = append(result.Upcoming, a)
		} else {
			result.Past = append(result.Past, a)
		}
	}
	return result, nil
}

// AssignedPatients lists the distinct patients that hold or held
// appointments with the doctor.
func (s *Service) AssignedPatients(ctx context.Context, actor model.Actor, doctorID uuid.UUID) ([]*model.Patient, error) {
	if !actor.OwnsDoctor(doctorID) && !actor.IsAdmin() {
		return nil, apperrors.NotAuthorized("not authorized to view these patients")
	}
	return s.appointments.AssignedPatients(ctx, doctorID)
}

// ListAll is the admin dashboard query.
func (s *Service) ListAll(ctx context.Context, actor model.Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NotAuthorized("admin only")
	}
	return s.appointments.List(ctx, filters)
}
