// Package events publishes domain events about schedules, absences and
// assignments. Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"time"

	"barbersched/pkg/kafka"
	"barbersched/pkg/logger"
)

const (
	AbsenceCreated  = "absence.created"
	AbsenceApproved = "absence.approved"
	AbsenceRejected = "absence.rejected"

	BookingReassigned  = "booking.reassigned"
	BookingRejected    = "booking.rejected"
	BookingRescheduled = "booking.rescheduled"
	BookingAssigned    = "booking.auto_assigned"

	SlotsBooked   = "schedule.slots_booked"
	SlotsReleased = "schedule.slots_released"
	SlotBlocked   = "schedule.slot_blocked"

	MaintenanceCompleted = "schedule.maintenance_completed"
)

const schemaVersion = "1"

type Event struct {
	Type string
	// Key is the partition key; events about one barber stay ordered.
	Key        string
	Payload    any
	OccurredAt time.Time
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafka.NewEvent(event.Key, event.Type, envelope{
		Type:       event.Type,
		OccurredAt: occurredAt(event),
		Data:       event.Payload,
	})
	if err != nil {
		return err
	}
	msg.Headers[kafka.HeaderSchemaVersion] = schemaVersion
	msg.Headers[kafka.HeaderSource] = p.source
	if rid, ok := ctx.Value(correlationKey{}).(string); ok && rid != "" {
		msg.Headers[kafka.HeaderCorrelationID] = rid
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when Kafka is disabled. It logs at debug so local
// runs still show what would have been emitted.
type NoopPublisher struct {
	log *logger.Logger
}

func NewNoopPublisher(log *logger.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(_ context.Context, event Event) error {
	if p.log != nil {
		p.log.Debug("Event not published, kafka disabled", "event_type", event.Type, "key", event.Key)
	}
	return nil
}

func (p *NoopPublisher) Close() error { return nil }

type envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func occurredAt(e Event) time.Time {
	if e.OccurredAt.IsZero() {
		return time.Now().UTC()
	}
	return e.OccurredAt
}

type correlationKey struct{}

// WithCorrelationID attaches the id that outgoing events carry in their
// correlation-id header.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}
