package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "barbersched/internal/bookings/errors"
	"barbersched/pkg/actor"
	"barbersched/pkg/clock"
	"barbersched/pkg/config"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/model"
)

// Lifecycle event types consumed from the booking service.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventBookingRejected  = "booking.rejected"
	EventBookingCompleted = "booking.completed"
	EventBookingNoShow    = "booking.no_show"
)

// BookingEvent is a booking lifecycle change published by the booking
// service.
type BookingEvent struct {
	Type        string         `json:"type"`
	Booking     *model.Booking `json:"booking"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Complete(ctx context.Context, id string, at time.Time) error
}

type BookingSyncService interface {
	SyncBooking(ctx context.Context, bookingID string) (*model.SyncResult, error)
	CancelBooking(ctx context.Context, bookingID string) (*model.SyncResult, error)
	CompleteBooking(ctx context.Context, bookingID string, req *model.CompleteBookingRequest) (*model.SyncResult, error)
	// HandleEvent applies a lifecycle event. It is called by the consumer,
	// which runs as the system actor.
	HandleEvent(ctx context.Context, event *BookingEvent) (*model.SyncResult, error)
}

type bookingSyncService struct {
	sync     *Synchronizer
	bookings BookingStore
	clock    clock.Clock
	cfg      *config.Config
}

func NewBookingSyncService(sync *Synchronizer, bookings BookingStore, clk clock.Clock, cfg *config.Config) BookingSyncService {
	return &bookingSyncService{
		sync:     sync,
		bookings: bookings,
		clock:    clk,
		cfg:      cfg,
	}
}

func (s *bookingSyncService) load(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return b, nil
}

func (s *bookingSyncService) SyncBooking(ctx context.Context, bookingID string) (*model.SyncResult, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}

	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.IsActive() {
		return nil, apperrors.Conflict("Only pending or confirmed bookings hold slots").
			WithDetails(map[string]any{"booking_id": b.ID, "status": b.Status})
	}
	return s.book(ctx, b)
}

func (s *bookingSyncService) book(ctx context.Context, b *model.Booking) (*model.SyncResult, error) {
	result, err := s.sync.Book(ctx, b)
	if err != nil {
		s.cfg.Log.Warn("Failed to hold booking slots",
			"booking_id", b.ID,
			"barber_id", b.BarberID,
			"booking_date", b.BookingDate,
			"error", err,
		)
		return nil, err
	}
	s.cfg.Log.Info("Booking slots held",
		"booking_id", b.ID,
		"barber_id", result.BarberID,
		"date", result.Date,
		"slots", len(result.Booked),
		"auto_assigned", result.AutoAssigned,
	)
	return result, nil
}

func (s *bookingSyncService) CancelBooking(ctx context.Context, bookingID string) (*model.SyncResult, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAdmin(caller); err != nil {
		return nil, err
	}

	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.release(ctx, b)
}

func (s *bookingSyncService) release(ctx context.Context, b *model.Booking) (*model.SyncResult, error) {
	result, err := s.sync.Release(ctx, b)
	if err != nil {
		s.cfg.Log.Error("Failed to release booking slots",
			"booking_id", b.ID,
			"error", err,
		)
		return nil, err
	}
	s.cfg.Log.Info("Booking slots released",
		"booking_id", b.ID,
		"schedules", result.ReleasedDays,
	)
	return result, nil
}

func (s *bookingSyncService) CompleteBooking(ctx context.Context, bookingID string, req *model.CompleteBookingRequest) (*model.SyncResult, error) {
	caller, _ := actor.FromContext(ctx)
	if err := actor.RequireAny(caller); err != nil {
		return nil, err
	}

	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireBarberOrAdmin(caller, b.BarberID); err != nil {
		return nil, err
	}

	completedAt := s.clock.Now()
	if req != nil && req.CompletedAt != nil {
		completedAt = *req.CompletedAt
	}
	if completedAt.After(s.clock.Now()) {
		return nil, apperrors.InvalidInput("completed_at cannot be in the future")
	}

	switch {
	case b.Status.IsActive():
		if err := s.bookings.Complete(ctx, b.ID, completedAt); err != nil {
			if errors.Is(err, bookingserrors.ErrStateChanged) {
				return nil, apperrors.Conflict("Booking changed while it was being completed")
			}
			return nil, apperrors.Internal("Failed to complete booking", err)
		}
	case b.Status == model.BookingCompleted:
		if b.CompletedAt != nil {
			completedAt = *b.CompletedAt
		}
	default:
		return nil, apperrors.Conflict("Only active bookings can be completed").
			WithDetails(map[string]any{"booking_id": b.ID, "status": b.Status})
	}

	return s.sync.CompleteEarly(ctx, b, completedAt)
}

func (s *bookingSyncService) HandleEvent(ctx context.Context, event *BookingEvent) (*model.SyncResult, error) {
	if event == nil || event.Booking == nil || event.Booking.ID == "" {
		return nil, apperrors.InvalidInput("booking event carries no booking")
	}
	b := event.Booking

	switch event.Type {
	case EventBookingCreated:
		return s.book(ctx, b)
	case EventBookingCancelled, EventBookingRejected, EventBookingNoShow:
		return s.release(ctx, b)
	case EventBookingCompleted:
		completedAt := s.clock.Now()
		switch {
		case event.CompletedAt != nil:
			completedAt = *event.CompletedAt
		case b.CompletedAt != nil:
			completedAt = *b.CompletedAt
		}
		return s.sync.CompleteEarly(ctx, b, completedAt)
	default:
		return nil, apperrors.InvalidInput("unsupported booking event type: " + event.Type)
	}
}
