package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

type departmentRepository struct {
	BaseRepository
}

type doctorRepository struct {
	BaseRepository
}

type patientRepository struct {
	BaseRepository
}

type availabilityRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type historyRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewDepartmentRepository(db *sqlx.DB) repository.DepartmentRepository {
	return &departmentRepository{NewBaseRepository(db)}
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{NewBaseRepository(db)}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{NewBaseRepository(db)}
}

func NewAvailabilityRepository(db *sqlx.DB) repository.AvailabilityRepository {
	return &availabilityRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewHistoryRepository(db *sqlx.DB) repository.HistoryRepository {
	return &historyRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}
