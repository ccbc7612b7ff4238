package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Message is a record read from or written to a topic. Partition and Offset
// are only set on consumed messages.
type Message struct {
	// Key picks the partition. Events about one barber or booking share it.
	Key       string
	Value     []byte
	Headers   Headers
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// MessageHandler processes one consumed message. See ClassifyError for how
// a returned error is treated.
type MessageHandler func(ctx context.Context, msg Message) error

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
	HeaderRetryCount    = "retry-count"
	HeaderOriginalTopic = "original-topic"
)

type Headers map[string]string

func (h Headers) EventID() string       { return h[HeaderEventID] }
func (h Headers) EventType() string     { return h[HeaderEventType] }
func (h Headers) CorrelationID() string { return h[HeaderCorrelationID] }

// Retries is the number of redeliveries recorded so far. A missing or
// unreadable header counts as zero.
func (h Headers) Retries() int {
	n, err := strconv.Atoi(h[HeaderRetryCount])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (h Headers) setRetries(n int) {
	h[HeaderRetryCount] = strconv.Itoa(n)
}

// NewEvent encodes payload as JSON and stamps a fresh event id, the event
// type and the creation time.
func NewEvent(key, eventType string, payload any) (Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encoding %s event: %w", eventType, err)
	}

	now := time.Now().UTC()
	return Message{
		Key:       key,
		Value:     value,
		Timestamp: now,
		Headers: Headers{
			HeaderEventID:   uuid.NewString(),
			HeaderEventType: eventType,
			HeaderTimestamp: now.Format(time.RFC3339),
		},
	}, nil
}

func (m *Message) Decode(v any) error {
	return json.Unmarshal(m.Value, v)
}

// toKafka leaves Topic unset; writers are bound to their topic.
func (m Message) toKafka() kafka.Message {
	km := kafka.Message{
		Key:   []byte(m.Key),
		Value: m.Value,
		Time:  m.Timestamp,
	}
	km.Headers = make([]kafka.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return km
}

func fromKafka(km kafka.Message) Message {
	headers := make(Headers, len(km.Headers))
	for _, h := range km.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Key:       string(km.Key),
		Value:     km.Value,
		Headers:   headers,
		Topic:     km.Topic,
		Partition: km.Partition,
		Offset:    km.Offset,
		Timestamp: km.Time,
	}
}

func (h Headers) clone() Headers {
	if h == nil {
		return Headers{}
	}
	return maps.Clone(h)
}
