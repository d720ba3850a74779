package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		UpdateRole(ctx context.Context, id uuid.UUID, role model.UserRole) error
	}

	DepartmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
		GetByName(ctx context.Context, name string) (*model.Department, error)
		// FindOrCreate returns the department with the given name, creating
		// it if absent.
		FindOrCreate(ctx context.Context, name string) (*model.Department, error)
		List(ctx context.Context) ([]*model.Department, error)
	}

	DoctorRepository interface {
		// Create inserts the backing user row and the doctor row in one
		// transaction; both share the same id.
		Create(ctx context.Context, user *model.User, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		// Delete removes the doctor's history entries, appointments and
		// availability slots, then the doctor and user rows, in one
		// transaction.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, user *model.User, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		// Delete removes the patient's history entries and appointments,
		// then the patient and user rows, in one transaction.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	AvailabilityRepository interface {
		// Upsert writes the slot keyed by (doctor, date), overwriting
		// times and the availability flag if a row already exists.
		Upsert(ctx context.Context, slot *model.AvailabilitySlot) error
		GetSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime string) (*model.AvailabilitySlot, error)
		GetByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.AvailabilitySlot, error)
		// ListRange returns slots for [from, to] inclusive, ordered by date.
		ListRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.AvailabilitySlot, error)
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// Book inserts the appointment and flips the matching slot's
		// availability flag in one transaction. The slot row is locked for
		// the duration; a unique-constraint violation on the booked-status
		// index surfaces as ErrSlotTaken.
		Book(ctx context.Context, appointment *model.Appointment) error
		// UpdateStatus writes a new status. When restoreSlot is set the
		// matching availability slot is re-opened in the same transaction.
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, restoreSlot bool) error
		// FindBooked returns the booked appointment occupying
		// (doctor, date, time), if any.
		FindBooked(ctx context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string) (*model.Appointment, error)
		// FindForPatientOnDate returns the patient's appointments on the
		// given date whose status is in statuses.
		FindForPatientOnDate(ctx context.Context, patientID uuid.UUID, date time.Time, statuses []model.AppointmentStatus) ([]*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// AssignedPatients returns the distinct patients that hold or held
		// appointments with the doctor.
		AssignedPatients(ctx context.Context, doctorID uuid.UUID) ([]*model.Patient, error)
	}

	HistoryRepository interface {
		Create(ctx context.Context, entry *model.HistoryEntry) error
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.HistoryEntry, error)
		// ListByPatient returns entries ordered by creation time, newest
		// first.
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.HistoryEntry, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string, retryAt *time.Time) error
	}
)
