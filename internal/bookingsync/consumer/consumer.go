// Package consumer applies booking lifecycle events from Kafka to barber
// schedules.
package consumer

import (
	"context"

	"barbersched/internal/bookingsync/service"
	"barbersched/pkg/actor"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/events"
	"barbersched/pkg/kafka"
	"barbersched/pkg/logger"
)

const actorName = "booking-sync"

type BookingEventHandler struct {
	service service.BookingSyncService
	log     *logger.Logger
}

func NewBookingEventHandler(service service.BookingSyncService, log *logger.Logger) *BookingEventHandler {
	return &BookingEventHandler{service: service, log: log}
}

// Handle is a kafka.MessageHandler. Undecodable or unsupported messages are
// permanent errors, rule rejections are business errors, and anything else
// is left to kafka.ClassifyError.
func (h *BookingEventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event service.BookingEvent
	if err := msg.Decode(&event); err != nil {
		return kafka.NewPermanentError("malformed booking event", err)
	}
	if event.Type == "" {
		event.Type = msg.Headers.EventType()
	}

	ctx = actor.WithActor(ctx, actor.System(actorName))
	if id := msg.Headers.CorrelationID(); id != "" {
		ctx = events.WithCorrelationID(ctx, id)
	}

	result, err := h.service.HandleEvent(ctx, &event)
	if err != nil {
		switch {
		case apperrors.HasCode(err, apperrors.CodeInvalidInput), apperrors.HasCode(err, apperrors.CodeValidation):
			return kafka.NewPermanentError("invalid booking event", err)
		case apperrors.HasCode(err, apperrors.CodeSlotUnavailable),
			apperrors.HasCode(err, apperrors.CodeConflict),
			apperrors.HasCode(err, apperrors.CodeNotFound):
			return kafka.NewBusinessError("booking event rejected", err)
		}
		return err
	}

	h.log.Debug("Booking event applied",
		"event_type", event.Type,
		"booking_id", result.BookingID,
		"barber_id", result.BarberID,
		"booked", len(result.Booked),
		"released", len(result.Released),
		"no_op", result.NoOp,
	)
	return nil
}
