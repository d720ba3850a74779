package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/pkg/auth"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/security"
)

// Service handles patient self-registration and login. Doctors and admins
// are provisioned by an admin, not here.
type Service struct {
	users    repository.UserRepository
	patients repository.PatientRepository
	hasher   security.PasswordHasher
	tokens   auth.JWTService
}

func NewService(
	users repository.UserRepository,
	patients repository.PatientRepository,
	hasher security.PasswordHasher,
	tokens auth.JWTService,
) *Service {
	return &Service{
		users:    users,
		patients: patients,
		hasher:   hasher,
		tokens:   tokens,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.Patient, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.BadRequest("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.UserRolePatient,
	}
	user.ID = uuid.New()

	patient := &model.Patient{Name: req.Name}
	if err := s.patients.Create(ctx, user, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.BadRequest("email already registered", err)
		}
		return nil, fmt.Errorf("failed to register patient: %w", err)
	}
	patient.Email = user.Email
	return patient, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotAuthorized("invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.NotAuthorized("invalid email or password")
	}

	if user.Role == model.UserRoleBlacklisted {
		return nil, apperrors.NotAuthorized("account is blacklisted, contact the administrator")
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &model.LoginResponse{
		Token:  token,
		Role:   user.Role,
		UserID: user.ID.String(),
	}, nil
}
