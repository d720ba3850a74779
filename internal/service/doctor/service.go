package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/security"
)

// ListCacheTTL bounds the staleness of cached doctor and department
// listings. Writes flush the cache, so this only matters across instances.
const ListCacheTTL = 30 * time.Second

// Service covers the admin-side doctor management: provisioning with a
// department, edits, blacklisting and cascaded removal.
type Service struct {
	doctors     repository.DoctorRepository
	departments repository.DepartmentRepository
	users       repository.UserRepository
	hasher      security.PasswordHasher
}

func NewService(
	doctors repository.DoctorRepository,
	departments repository.DepartmentRepository,
	users repository.UserRepository,
	hasher security.PasswordHasher,
) *Service {
	return &Service{
		doctors:     doctors,
		departments: departments,
		users:       users,
		hasher:      hasher,
	}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NotAuthorized("admin only")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	dept, err := s.departments.FindOrCreate(ctx, req.Department)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve department: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.UserRoleDoctor,
	}
	user.ID = uuid.New()

	doctor := &model.Doctor{
		DepartmentID:    dept.ID,
		ExperienceYears: req.ExperienceYears,
	}
	if err := s.doctors.Create(ctx, user, doctor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.BadRequest("email already registered", err)
		}
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}

	doctor.Name = user.Name
	doctor.Email = user.Email
	doctor.Department = dept.Name
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return doctor, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	if !actor.IsAdmin() && !actor.OwnsDoctor(id) {
		return nil, apperrors.NotAuthorized("not authorized to edit this doctor")
	}

	doctor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Email != nil {
		doctor.Email = *req.Email
	}
	if req.ExperienceYears != nil {
		doctor.ExperienceYears = *req.ExperienceYears
	}
	if req.DepartmentID != nil {
		dept, err := s.departments.Get(ctx, *req.DepartmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("department", err)
			}
			return nil, fmt.Errorf("failed to get department: %w", err)
		}
		doctor.DepartmentID = dept.ID
		doctor.Department = dept.Name
	}

	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to update doctor: %w", err)
	}
	return doctor, nil
}

// Delete removes the doctor and every dependent row in one transaction.
func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperrors.NotAuthorized("admin only")
	}
	if err := s.doctors.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor", err)
		}
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return nil
}

// Blacklist flips the backing user's role, locking the doctor out at login.
func (s *Service) Blacklist(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperrors.NotAuthorized("admin only")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.users.UpdateRole(ctx, id, model.UserRoleBlacklisted); err != nil {
		return fmt.Errorf("failed to blacklist doctor: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	doctors, err := s.doctors.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*model.Department, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}
