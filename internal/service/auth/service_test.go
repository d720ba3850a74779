package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	pkgauth "github.com/jwalitptl/hms-api/pkg/auth"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/security"
)

type memUsers struct {
	byEmail map[string]*model.User
}

func (m *memUsers) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Update(_ context.Context, user *model.User) error {
	m.byEmail[user.Email] = user
	return nil
}

func (m *memUsers) UpdateRole(_ context.Context, id uuid.UUID, role model.UserRole) error {
	for _, u := range m.byEmail {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return repository.ErrNotFound
}

type memPatients struct {
	users *memUsers
}

func (m *memPatients) Create(_ context.Context, user *model.User, patient *model.Patient) error {
	if _, ok := m.users.byEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	m.users.byEmail[user.Email] = user
	patient.ID = user.ID
	return nil
}

func (m *memPatients) Get(_ context.Context, _ uuid.UUID) (*model.Patient, error) {
	return nil, repository.ErrNotFound
}
func (m *memPatients) Update(_ context.Context, _ *model.Patient) error { return nil }
func (m *memPatients) Delete(_ context.Context, _ uuid.UUID) error      { return nil }
func (m *memPatients) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}

func newService() (*Service, *memUsers) {
	users := &memUsers{byEmail: map[string]*model.User{}}
	patients := &memPatients{users: users}
	hasher := security.NewBcryptHasher(4)
	tokens := pkgauth.NewJWTService("test-secret", 1)
	return NewService(users, patients, hasher, tokens), users
}

func register(t *testing.T, svc *Service, email string) *model.Patient {
	t.Helper()
	patient, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Asha",
		Email:    email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return patient
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService()
	patient := register(t, svc, "asha@example.com")

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, model.UserRolePatient, resp.Role)
	assert.Equal(t, patient.ID.String(), resp.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newService()
	register(t, svc, "asha@example.com")

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Other",
		Email:    "asha@example.com",
		Password: "another-pass",
	})
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newService()
	register(t, svc, "asha@example.com")

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@example.com",
		Password: "wrong",
	})
	assert.Equal(t, apperrors.ErrNotAuthorized, apperrors.CodeOf(err))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.Equal(t, apperrors.ErrNotAuthorized, apperrors.CodeOf(err))
}

func TestLoginBlacklistedRefused(t *testing.T) {
	svc, users := newService()
	patient := register(t, svc, "asha@example.com")

	require.NoError(t, users.UpdateRole(context.Background(), patient.ID, model.UserRoleBlacklisted))

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@example.com",
		Password: "correct-horse",
	})
	assert.Equal(t, apperrors.ErrNotAuthorized, apperrors.CodeOf(err))
}
