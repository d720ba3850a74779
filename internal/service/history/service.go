package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// Service records clinical history against completed appointments.
type Service struct {
	entries      repository.HistoryRepository
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
}

func NewService(
	entries repository.HistoryRepository,
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
) *Service {
	return &Service{
		entries:      entries,
		appointments: appointments,
		doctors:      doctors,
	}
}

// Record creates the single history entry for an appointment. The
// appointment must be completed and owned by the recording doctor; doctor
// name and department are snapshotted into the entry.
func (s *Service) Record(ctx context.Context, actor model.Actor, appointmentID uuid.UUID, req *model.RecordHistoryRequest) (*model.HistoryEntry, error) {
	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}

	if !actor.OwnsDoctor(appointment.DoctorID) {
		return nil, apperrors.NotAuthorized("not authorized to record history for this appointment")
	}

	if appointment.Status != model.AppointmentStatusCompleted {
		return nil, apperrors.InvalidState("history requires a completed appointment")
	}

	if _, err := s.entries.GetByAppointment(ctx, appointmentID); err == nil {
		return nil, apperrors.DuplicateHistory()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing history: %w", err)
	}

	doctor, err := s.doctors.Get(ctx, appointment.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}

	entry := &model.HistoryEntry{
		PatientID:     appointment.PatientID,
		DoctorID:      appointment.DoctorID,
		AppointmentID: appointmentID,
		VisitType:     req.VisitType,
		TestType:      req.TestType,
		Diagnosis:     req.Diagnosis,
		Treatment:     req.Treatment,
		Prescription:  req.Prescription,
		DoctorName:    doctor.Name,
		Department:    doctor.Department,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		// The UNIQUE constraint on appointment_id backs the pre-check
		// against a concurrent duplicate.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.DuplicateHistory()
		}
		return nil, fmt.Errorf("failed to create history entry: %w", err)
	}
	return entry, nil
}

// ListForPatient returns the patient's history, newest first. Patients see
// their own; doctors and admins see any.
func (s *Service) ListForPatient(ctx context.Context, actor model.Actor, patientID uuid.UUID) ([]*model.HistoryEntry, error) {
	switch actor.Role {
	case model.ActorRoleAdmin, model.ActorRoleDoctor:
	case model.ActorRolePatient:
		if actor.ID != patientID {
			return nil, apperrors.NotAuthorized("not authorized to view this history")
		}
	default:
		return nil, apperrors.NotAuthorized("not authorized to view this history")
	}

	entries, err := s.entries.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}
