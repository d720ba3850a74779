package event

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

// Recorder writes domain events for asynchronous delivery. Recording is best
// effort from the caller's point of view: a failed write is logged, never
// propagated, so notification trouble cannot fail a booking.
type Recorder interface {
	AppointmentEvent(ctx context.Context, eventType string, appointment *model.Appointment)
}

type Service struct {
	repo repository.OutboxRepository
}

func NewService(repo repository.OutboxRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) AppointmentEvent(ctx context.Context, eventType string, appointment *model.Appointment) {
	payload, err := json.Marshal(map[string]interface{}{
		"appointment_id": appointment.ID,
		"patient_id":     appointment.PatientID,
		"doctor_id":      appointment.DoctorID,
		"date":           appointment.Date.Format(model.DateOnly),
		"time":           appointment.Time,
		"status":         appointment.Status,
	})
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}
	if err := s.repo.Create(ctx, evt); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to record outbox event")
	}
}
