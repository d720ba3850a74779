package booking

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

// In-memory fakes. Only the behavior the booking engine touches is modeled;
// the rest returns zero values.

type memSlots struct {
	slots []*model.AvailabilitySlot
}

func (m *memSlots) Upsert(_ context.Context, slot *model.AvailabilitySlot) error {
	for i, s := range m.slots {
		if s.DoctorID == slot.DoctorID && model.SameDate(s.Date, slot.Date) {
			m.slots[i] = slot
			return nil
		}
	}
	m.slots = append(m.slots, slot)
	return nil
}

func (m *memSlots) GetSlot(_ context.Context, doctorID uuid.UUID, date time.Time, startTime string) (*model.AvailabilitySlot, error) {
	for _, s := range m.slots {
		if s.DoctorID == doctorID && model.SameDate(s.Date, date) && s.StartTime == startTime {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSlots) GetByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time) (*model.AvailabilitySlot, error) {
	for _, s := range m.slots {
		if s.DoctorID == doctorID && model.SameDate(s.Date, date) {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSlots) ListRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*model.AvailabilitySlot, error) {
	var out []*model.AvailabilitySlot
	for _, s := range m.slots {
		if s.DoctorID == doctorID && !s.Date.Before(from) && !s.Date.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

type memAppointments struct {
	appointments []*model.Appointment
	bookErr      error
	slots        *memSlots

	// beforeBook runs inside Book before the commit, standing in for work
	// a concurrent transaction finished first.
	beforeBook func()
}

func (m *memAppointments) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	for _, a := range m.appointments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAppointments) Book(ctx context.Context, appointment *model.Appointment) error {
	if m.bookErr != nil {
		return m.bookErr
	}
	if m.beforeBook != nil {
		m.beforeBook()
	}
	// Mirror the storage arbiter: one live appointment per patient per date.
	for _, a := range m.appointments {
		if a.PatientID == appointment.PatientID && model.SameDate(a.Date, appointment.Date) &&
			a.Status != model.AppointmentStatusCancelled {
			return repository.ErrSameDayTaken
		}
	}
	appointment.ID = uuid.New()
	appointment.Status = model.AppointmentStatusBooked
	m.appointments = append(m.appointments, appointment)
	if m.slots != nil {
		if slot, err := m.slots.GetSlot(ctx, appointment.DoctorID, appointment.Date, appointment.Time); err == nil {
			slot.IsAvailable = false
		}
	}
	return nil
}

func (m *memAppointments) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus, restoreSlot bool) error {
	for _, a := range m.appointments {
		if a.ID == id {
			a.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memAppointments) FindBooked(_ context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string) (*model.Appointment, error) {
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && model.SameDate(a.Date, date) && a.Time == timeOfDay &&
			a.Status == model.AppointmentStatusBooked {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAppointments) FindForPatientOnDate(_ context.Context, patientID uuid.UUID, date time.Time, statuses []model.AppointmentStatus) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range m.appointments {
		if a.PatientID != patientID || !model.SameDate(a.Date, date) {
			continue
		}
		for _, s := range statuses {
			if a.Status == s {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (m *memAppointments) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return m.appointments, nil
}

func (m *memAppointments) AssignedPatients(_ context.Context, doctorID uuid.UUID) ([]*model.Patient, error) {
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

type memPatients struct {
	patients map[uuid.UUID]*model.Patient
}

func (m *memPatients) Create(_ context.Context, _ *model.User, _ *model.Patient) error { return nil }
func (m *memPatients) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if p, ok := m.patients[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}
func (m *memPatients) Update(_ context.Context, _ *model.Patient) error { return nil }
func (m *memPatients) Delete(_ context.Context, _ uuid.UUID) error      { return nil }
func (m *memPatients) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}

type recordedEvent struct {
	eventType   string
	appointment *model.Appointment
}

type fakeRecorder struct {
	events []recordedEvent
}

func (f *fakeRecorder) AppointmentEvent(_ context.Context, eventType string, appointment *model.Appointment) {
	f.events = append(f.events, recordedEvent{eventType, appointment})
}

type fakeMailer struct {
	confirmations int
	cancellations int
}

func (f *fakeMailer) SendBookingConfirmation(_ context.Context, _ string, _ *model.Appointment) error {
	f.confirmations++
	return nil
}

func (f *fakeMailer) SendCancellation(_ context.Context, _ string, _ *model.Appointment) error {
	f.cancellations++
	return nil
}

type fixture struct {
	svc          *Service
	slots        *memSlots
	appointments *memAppointments
	recorder     *fakeRecorder
	mailer       *fakeMailer
	patientID    uuid.UUID
	doctorID     uuid.UUID
	date         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	patientID := uuid.New()
	doctorID := uuid.New()
	date := model.TruncateToDate(time.Now().AddDate(0, 0, 1))

	slots := &memSlots{}
	appointments := &memAppointments{slots: slots}
	doctors := &memDoctors{doctors: map[uuid.UUID]*model.Doctor{
		doctorID: {Base: model.Base{ID: doctorID}, Name: "Dr. Rao", Department: "Cardiology"},
	}}
	patients := &memPatients{patients: map[uuid.UUID]*model.Patient{
		patientID: {Base: model.Base{ID: patientID}, Name: "Asha", Email: "asha@example.com"},
	}}
	recorder := &fakeRecorder{}
	mailer := &fakeMailer{}

	return &fixture{
		svc:          NewService(slots, appointments, doctors, patients, recorder, mailer),
		slots:        slots,
		appointments: appointments,
		recorder:     recorder,
		mailer:       mailer,
		patientID:    patientID,
		doctorID:     doctorID,
		date:         date,
	}
}

func (f *fixture) addSlot(t *testing.T, start string, available bool) {
	t.Helper()
	err := f.slots.Upsert(context.Background(), &model.AvailabilitySlot{
		DoctorID:    f.doctorID,
		Date:        f.date,
		StartTime:   start,
		EndTime:     "17:00",
		IsAvailable: available,
	})
	require.NoError(t, err)
}

func patientActor(id uuid.UUID) model.Actor {
	return model.Actor{Role: model.ActorRolePatient, ID: id}
}

func TestBookSuccess(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	appointment, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusBooked, appointment.Status)
	assert.Equal(t, f.patientID, appointment.PatientID)
	assert.Equal(t, f.doctorID, appointment.DoctorID)
	assert.Equal(t, "10:00", appointment.Time)

	slot, err := f.slots.GetSlot(context.Background(), f.doctorID, f.date, "10:00")
	require.NoError(t, err)
	assert.False(t, slot.IsAvailable, "booking must close the slot")

	require.Len(t, f.recorder.events, 1)
	assert.Equal(t, model.EventAppointmentBooked, f.recorder.events[0].eventType)
	assert.Equal(t, 1, f.mailer.confirmations)
}

func TestBookMissingSlot(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrSlotUnavailable, apperrors.CodeOf(err))
}

func TestBookClosedSlot(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", false)

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrSlotUnavailable, apperrors.CodeOf(err))
	assert.Empty(t, f.recorder.events)
}

func TestBookSlotHeldByAnotherPatient(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	other := uuid.New()
	f.appointments.appointments = append(f.appointments.appointments, &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: other,
		DoctorID:  f.doctorID,
		Date:      f.date,
		Time:      "10:00",
		Status:    model.AppointmentStatusBooked,
	})

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrSlotUnavailable, apperrors.CodeOf(err))
}

func TestBookSameDayConflict(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	// Same patient, same date, different doctor.
	f.appointments.appointments = append(f.appointments.appointments, &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: f.patientID,
		DoctorID:  uuid.New(),
		Date:      f.date,
		Time:      "14:00",
		Status:    model.AppointmentStatusBooked,
	})

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrDuplicateBookingSameDay, apperrors.CodeOf(err))
}

func TestBookCompletedSameDayStillConflicts(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	f.appointments.appointments = append(f.appointments.appointments, &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: f.patientID,
		DoctorID:  uuid.New(),
		Date:      f.date,
		Time:      "09:00",
		Status:    model.AppointmentStatusCompleted,
	})

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrDuplicateBookingSameDay, apperrors.CodeOf(err))
}

func TestBookCancelledSameDayDoesNotConflict(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	f.appointments.appointments = append(f.appointments.appointments, &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: f.patientID,
		DoctorID:  uuid.New(),
		Date:      f.date,
		Time:      "09:00",
		Status:    model.AppointmentStatusCancelled,
	})

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	assert.NoError(t, err)
}

// A concurrent booking that wins the commit race surfaces as the same
// user-facing error as a slot found taken up front.
func TestBookLosesCommitRace(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)
	f.appointments.bookErr = repository.ErrSlotTaken

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrSlotUnavailable, apperrors.CodeOf(err))
	assert.Empty(t, f.recorder.events)
	assert.Zero(t, f.mailer.confirmations)
}

// A second booking for the same patient and date that lands between the
// same-day pre-check and the commit is refused by the ledger itself, not
// just the pre-check.
func TestBookLosesSameDayRace(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	otherDoctor := uuid.New()
	f.appointments.beforeBook = func() {
		f.appointments.appointments = append(f.appointments.appointments, &model.Appointment{
			Base:      model.Base{ID: uuid.New()},
			PatientID: f.patientID,
			DoctorID:  otherDoctor,
			Date:      f.date,
			Time:      "14:00",
			Status:    model.AppointmentStatusBooked,
		})
	}

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrDuplicateBookingSameDay, apperrors.CodeOf(err))
	assert.Empty(t, f.recorder.events)
	assert.Zero(t, f.mailer.confirmations)

	// Only the competing appointment exists; the loser committed nothing.
	live := 0
	for _, a := range f.appointments.appointments {
		if a.Status == model.AppointmentStatusBooked {
			live++
		}
	}
	assert.Equal(t, 1, live)
}

func TestBookForAnotherPatientForbidden(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	_, err := f.svc.Book(context.Background(), patientActor(uuid.New()), f.patientID, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrNotAuthorized, apperrors.CodeOf(err))
}

func TestBookAdminOnBehalfOfPatient(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	admin := model.Actor{Role: model.ActorRoleAdmin, ID: uuid.New()}
	appointment, err := f.svc.Book(context.Background(), admin, f.patientID, f.doctorID, f.date, "10:00")
	require.NoError(t, err)
	assert.Equal(t, f.patientID, appointment.PatientID)
}

func TestBookUnknownDoctor(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, uuid.New(), f.date, "10:00")
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestBookUnknownPatient(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", true)

	unknown := uuid.New()
	admin := model.Actor{Role: model.ActorRoleAdmin, ID: uuid.New()}
	_, err := f.svc.Book(context.Background(), admin, unknown, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

// Slot checks outrank the same-day rule: when both would fail, the caller
// sees the slot error.
func TestBookSlotErrorWinsOverSameDay(t *testing.T) {
	f := newFixture(t)
	f.addSlot(t, "10:00", false)

	f.appointments.appointments = append(f.appointments.appointments, &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: f.patientID,
		DoctorID:  uuid.New(),
		Date:      f.date,
		Time:      "14:00",
		Status:    model.AppointmentStatusBooked,
	})

	_, err := f.svc.Book(context.Background(), patientActor(f.patientID), f.patientID, f.doctorID, f.date, "10:00")
	assert.Equal(t, apperrors.ErrSlotUnavailable, apperrors.CodeOf(err))
}
