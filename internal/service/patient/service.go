package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// Service covers patient profile reads and the admin-side management
// operations. Registration lives in the auth service.
type Service struct {
	patients repository.PatientRepository
	users    repository.UserRepository
}

func NewService(patients repository.PatientRepository, users repository.UserRepository) *Service {
	return &Service{patients: patients, users: users}
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Patient, error) {
	if actor.Role == model.ActorRolePatient && !actor.OwnsPatient(id) {
		return nil, apperrors.NotAuthorized("not authorized to view this patient")
	}
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if !actor.IsAdmin() && !actor.OwnsPatient(id) {
		return nil, apperrors.NotAuthorized("not authorized to edit this patient")
	}

	patient, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}

	if err := s.patients.Update(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.BadRequest("email already registered", err)
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}

// Delete removes the patient and every dependent row in one transaction.
func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperrors.NotAuthorized("admin only")
	}
	if err := s.patients.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient", err)
		}
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}

// Blacklist flips the backing user's role, locking the patient out at login.
func (s *Service) Blacklist(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperrors.NotAuthorized("admin only")
	}
	if _, err := s.patients.Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient", err)
		}
		return fmt.Errorf("failed to get patient: %w", err)
	}
	if err := s.users.UpdateRole(ctx, id, model.UserRoleBlacklisted); err != nil {
		return fmt.Errorf("failed to blacklist patient: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.PatientFilters) ([]*model.Patient, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NotAuthorized("admin only")
	}
	patients, err := s.patients.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
