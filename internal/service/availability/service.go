package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// WindowDays is the bookable horizon: today through today+6 inclusive.
const WindowDays = 7

type Service struct {
	repo repository.AvailabilityRepository
	now  func() time.Time
}

func NewService(repo repository.AvailabilityRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceWithClock is used by tests to pin the window start.
func NewServiceWithClock(repo repository.AvailabilityRepository, now func() time.Time) *Service {
	return &Service{repo: repo, now: now}
}

// SetAvailability upserts the doctor's slot for one date, overwriting the
// times and flag if a slot for that date already exists.
func (s *Service) SetAvailability(ctx context.Context, actor model.Actor, doctorID uuid.UUID, req *model.SetAvailabilityRequest) (*model.AvailabilitySlot, error) {
	if !actor.OwnsDoctor(doctorID) && !actor.IsAdmin() {
		return nil, apperrors.NotAuthorized("cannot manage another doctor's availability")
	}

	date, err := time.Parse(model.DateOnly, req.Date)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date", err)
	}
	start, err := time.Parse(model.ClockTime, req.StartTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid start time", err)
	}
	end, err := time.Parse(model.ClockTime, req.EndTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid end time", err)
	}
	if !start.Before(end) {
		return nil, apperrors.BadRequest("start time must be before end time", nil)
	}

	slot := &model.AvailabilitySlot{
		DoctorID:    doctorID,
		Date:        model.TruncateToDate(date),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: req.Available,
	}
	if err := s.repo.Upsert(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to set availability: %w", err)
	}
	return slot, nil
}

// SetWeek applies the seven-day availability form in one call. Days are
// applied in order; the first failure stops the loop.
func (s *Service) SetWeek(ctx context.Context, actor model.Actor, doctorID uuid.UUID, req *model.SetWeekRequest) ([]*model.AvailabilitySlot, error) {
	slots := make([]*model.AvailabilitySlot, 0, len(req.Days))
	for i := range req.Days {
		slot, err := s.SetAvailability(ctx, actor, doctorID, &req.Days[i])
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// ListSlots returns the doctor's slots for a bounded window starting at
// from (today when zero), ordered by date. Re-issuing the call restarts the
// sequence.
func (s *Service) ListSlots(ctx context.Context, doctorID uuid.UUID, from time.Time, days int) ([]*model.AvailabilitySlot, error) {
	if days <= 0 || days > WindowDays {
		days = WindowDays
	}
	if from.IsZero() {
		from = s.now()
	}
	from = model.TruncateToDate(from)
	to := from.AddDate(0, 0, days-1)

	slots, err := s.repo.ListRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}
