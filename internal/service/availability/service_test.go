package availability

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

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newService() (*Service, *memSlots) {
	repo := &memSlots{}
	return NewServiceWithClock(repo, func() time.Time { return fixedNow }), repo
}

func doctorActor(id uuid.UUID) model.Actor {
	return model.Actor{Role: model.ActorRoleDoctor, ID: id}
}

func TestSetAvailability(t *testing.T) {
	svc, repo := newService()
	doctorID := uuid.New()

	slot, err := svc.SetAvailability(context.Background(), doctorActor(doctorID), doctorID, &model.SetAvailabilityRequest{
		Date:      "2025-03-11",
		StartTime: "09:00",
		EndTime:   "17:00",
		Available: true,
	})
	require.NoError(t, err)

	assert.Equal(t, doctorID, slot.DoctorID)
	assert.True(t, slot.IsAvailable)
	assert.Len(t, repo.slots, 1)
}

// A second write for the same date replaces the first; one slot per
// (doctor, date).
func TestSetAvailabilityOverwrites(t *testing.T) {
	svc, repo := newService()
	doctorID := uuid.New()
	actor := doctorActor(doctorID)

	_, err := svc.SetAvailability(context.Background(), actor, doctorID, &model.SetAvailabilityRequest{
		Date: "2025-03-11", StartTime: "09:00", EndTime: "17:00", Available: true,
	})
	require.NoError(t, err)

	_, err = svc.SetAvailability(context.Background(), actor, doctorID, &model.SetAvailabilityRequest{
		Date: "2025-03-11", StartTime: "13:00", EndTime: "15:00", Available: false,
	})
	require.NoError(t, err)

	require.Len(t, repo.slots, 1)
	assert.Equal(t, "13:00", repo.slots[0].StartTime)
	assert.False(t, repo.slots[0].IsAvailable)
}

func TestSetAvailabilityForAnotherDoctorForbidden(t *testing.T) {
	svc, _ := newService()

	_, err := svc.SetAvailability(context.Background(), doctorActor(uuid.New()), uuid.New(), &model.SetAvailabilityRequest{
		Date: "2025-03-11", StartTime: "09:00", EndTime: "17:00", Available: true,
	})
	assert.Equal(t, apperrors.ErrNotAuthorized, apperrors.CodeOf(err))
}

func TestSetAvailabilityRejectsInvertedWindow(t *testing.T) {
	svc, _ := newService()
	doctorID := uuid.New()

	for _, tc := range []struct{ start, end string }{
		{"17:00", "09:00"},
		{"09:00", "09:00"},
	} {
		_, err := svc.SetAvailability(context.Background(), doctorActor(doctorID), doctorID, &model.SetAvailabilityRequest{
			Date: "2025-03-11", StartTime: tc.start, EndTime: tc.end, Available: true,
		})
		assert.Equalf(t, apperrors.ErrBadRequest, apperrors.CodeOf(err), "%s-%s", tc.start, tc.end)
	}
}

func TestSetWeek(t *testing.T) {
	svc, repo := newService()
	doctorID := uuid.New()

	req := &model.SetWeekRequest{}
	for i := 0; i < 7; i++ {
		req.Days = append(req.Days, model.SetAvailabilityRequest{
			Date:      fixedNow.AddDate(0, 0, i).Format(model.DateOnly),
			StartTime: "09:00",
			EndTime:   "17:00",
			Available: i%2 == 0,
		})
	}

	slots, err := svc.SetWeek(context.Background(), doctorActor(doctorID), doctorID, req)
	require.NoError(t, err)
	assert.Len(t, slots, 7)
	assert.Len(t, repo.slots, 7)
}

func TestListSlotsWindowClamped(t *testing.T) {
	svc, repo := newService()
	doctorID := uuid.New()

	// Ten consecutive days of slots; the window must cut at seven.
	for i := 0; i < 10; i++ {
		require.NoError(t, repo.Upsert(context.Background(), &model.AvailabilitySlot{
			DoctorID:    doctorID,
			Date:        model.TruncateToDate(fixedNow.AddDate(0, 0, i)),
			StartTime:   "09:00",
			EndTime:     "17:00",
			IsAvailable: true,
		}))
	}

	slots, err := svc.ListSlots(context.Background(), doctorID, time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, slots, WindowDays)

	slots, err = svc.ListSlots(context.Background(), doctorID, time.Time{}, 30)
	require.NoError(t, err)
	assert.Len(t, slots, WindowDays, "requests beyond the window clamp to it")

	slots, err = svc.ListSlots(context.Background(), doctorID, time.Time{}, 3)
	require.NoError(t, err)
	assert.Len(t, slots, 3)
}

func TestListSlotsExplicitFrom(t *testing.T) {
	svc, repo := newService()
	doctorID := uuid.New()

	require.NoError(t, repo.Upsert(context.Background(), &model.AvailabilitySlot{
		DoctorID:  doctorID,
		Date:      model.TruncateToDate(fixedNow.AddDate(0, 0, 5)),
		StartTime: "09:00",
		EndTime:   "17:00",
	}))

	slots, err := svc.ListSlots(context.Background(), doctorID, fixedNow.AddDate(0, 0, 5), 1)
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	slots, err = svc.ListSlots(context.Background(), doctorID, fixedNow.AddDate(0, 0, 6), 1)
	require.NoError(t, err)
	assert.Empty(t, slots)
}
