package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

type memEntries struct {
	entries   []*model.HistoryEntry
	createErr error
}

func (m *memEntries) Create(_ context.Context, entry *model.HistoryEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memEntries) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*model.HistoryEntry, error) {
	for _, e := range m.entries {
		if e.AppointmentID == appointmentID {
			return e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memEntries) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.HistoryEntry, error) {
	var out []*model.HistoryEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].PatientID == patientID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

type memAppointments struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (m *memAppointments) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memAppointments) Book(_ context.Context, _ *model.Appointment) error { return nil }
func (m *memAppointments) UpdateStatus(_ context.Context, _ uuid.UUID, _ model.AppointmentStatus, _ bool) error {
	return nil
}
func (m *memAppointments) FindBooked(_ context.Context, _ uuid.UUID, _ time.Time, _ string) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}
func (m *memAppointments) FindForPatientOnDate(_ context.Context, _ uuid.UUID, _ time.Time, _ []model.AppointmentStatus) ([]*model.Appointment, error) {
	return nil, nil
}
func (m *memAppointments) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (m *memAppointments) AssignedPatients(_ context.Context, _ uuid.UUID) ([]*model.Patient, error) {
	return nil, nil
}

type memDoctors struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (m *memDoctors) Create(_ context.Context, _ *model.User, _ *model.Doctor) error { return nil }
func (m *memDoctors) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	if d, ok := m.doctors[id]; ok {
		return d, nil
	}
	return nil, repository.ErrNotFound
}
func (m *memDoctors) Update(_ context.Context, _ *model.Doctor) error { return nil }
func (m *memDoctors) Delete(_ context.Context, _ uuid.UUID) error    { return nil }
func (m *memDoctors) List(_ context.Context, _ *model.DoctorFilters) ([]*model.Doctor, error) {
	return nil, nil
}

type fixture struct {
	svc           *Service
	entries       *memEntries
	patientID     uuid.UUID
	doctorID      uuid.UUID
	appointmentID uuid.UUID
	appointment   *model.Appointment
}

func newFixture(t *testing.T, status model.AppointmentStatus) *fixture {
	t.Helper()

	patientID := uuid.New()
	doctorID := uuid.New()
	appointmentID := uuid.New()

	appointment := &model.Appointment{
		Base:      model.Base{ID: appointmentID},
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      model.TruncateToDate(time.Now()),
		Time:      "10:00",
		Status:    status,
	}

	entries := &memEntries{}
	appointments := &memAppointments{appointments: map[uuid.UUID]*model.Appointment{
		appointmentID: appointment,
	}}
	doctors := &memDoctors{doctors: map[uuid.UUID]*model.Doctor{
		doctorID: {Base: model.Base{ID: doctorID}, Name: "Dr. Rao", Department: "Cardiology"},
	}}

	return &fixture{
		svc:           NewService(entries, appointments, doctors),
		entries:       entries,
		patientID:     patientID,
		doctorID:      doctorID,
		appointmentID: appointmentID,
		appointment:   appointment,
	}
}

func doctorActor(id uuid.UUID) model.Actor {
	return model.Actor{Role: model.ActorRoleDoctor, ID: id}
}

func recordRequest() *model.RecordHistoryRequest {
	return &model.RecordHistoryRequest{
		VisitType: "consultation",
		Diagnosis: "seasonal flu",
		Treatment: "rest and fluids",
	}
}

func TestRecordOnCompletedAppointment(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)

	entry, err := f.svc.Record(context.Background(), doctorActor(f.doctorID), f.appointmentID, recordRequest())
	require.NoError(t, err)

	assert.Equal(t, f.patientID, entry.PatientID)
	assert.Equal(t, f.doctorID, entry.DoctorID)
	assert.Equal(t, f.appointmentID, entry.AppointmentID)
	assert.Equal(t, "Dr. Rao", entry.DoctorName, "doctor name is snapshotted")
	assert.Equal(t, "Cardiology", entry.Department, "department is snapshotted")
}

func TestRecordRequiresCompletedStatus(t *testing.T) {
	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusBooked,
		model.AppointmentStatusCancelled,
	} {
		f := newFixture(t, status)

		_, err := f.svc.Record(context.Background(), doctorActor(f.doctorID), f.appointmentID, recordRequest())
		assert.Equalf(t, apperrors.ErrInvalidState, apperrors.CodeOf(err), "status %s", status)
		assert.Empty(t, f.entries.entries)
	}
}

func TestRecordByOtherDoctorForbidden(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)

	_, err := f.svc.Record(context.Background(), doctorActor(uuid.New()), f.appointmentID, recordRequest())
	assert.Equal(t, apperrors.ErrNotAuthorized, apperrors.CodeOf(err))
}

func TestRecordMissingAppointment(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)

	_, err := f.svc.Record(context.Background(), doctorActor(f.doctorID), uuid.New(), recordRequest())
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestRecordTwiceRejected(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)

	_, err := f.svc.Record(context.Background(), doctorActor(f.doctorID), f.appointmentID, recordRequest())
	require.NoError(t, err)

	_, err = f.svc.Record(context.Background(), doctorActor(f.doctorID), f.appointmentID, recordRequest())
	assert.Equal(t, apperrors.ErrDuplicateHistory, apperrors.CodeOf(err))
	assert.Len(t, f.entries.entries, 1)
}

// A concurrent writer that slips past the pre-check is caught by the unique
// constraint and reported the same way.
func TestRecordConcurrentDuplicate(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)
	f.entries.createErr = repository.ErrDuplicate

	_, err := f.svc.Record(context.Background(), doctorActor(f.doctorID), f.appointmentID, recordRequest())
	assert.Equal(t, apperrors.ErrDuplicateHistory, apperrors.CodeOf(err))
}

func TestListForPatientNewestFirst(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)

	first := &model.HistoryEntry{PatientID: f.patientID, AppointmentID: uuid.New(), Diagnosis: "first"}
	second := &model.HistoryEntry{PatientID: f.patientID, AppointmentID: uuid.New(), Diagnosis: "second"}
	require.NoError(t, f.entries.Create(context.Background(), first))
	require.NoError(t, f.entries.Create(context.Background(), second))

	entries, err := f.svc.ListForPatient(context.Background(), model.Actor{Role: model.ActorRolePatient, ID: f.patientID}, f.patientID)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Diagnosis)
	assert.Equal(t, "first", entries[1].Diagnosis)
}

func TestListForPatientAuthorization(t *testing.T) {
	f := newFixture(t, model.AppointmentStatusCompleted)

	// Another patient may not read this history.
	_, err := f.svc.ListForPatient(context.Background(), model.Actor{Role: model.ActorRolePatient, ID: uuid.New()}, f.patientID)
	assert.Equal(t, apperrors.ErrNotAuthorized, apperrors.CodeOf(err))

	// Doctors and admins may.
	_, err = f.svc.ListForPatient(context.Background(), doctorActor(uuid.New()), f.patientID)
	assert.NoError(t, err)
	_, err = f.svc.ListForPatient(context.Background(), model.Actor{Role: model.ActorRoleAdmin, ID: uuid.New()}, f.patientID)
	assert.NoError(t, err)
}
