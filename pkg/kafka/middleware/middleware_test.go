package kafka_middleware

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"barbersched/pkg/kafka"
	"barbersched/pkg/logger"
)

func TestLoggingConsumerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf, Level: "debug"})
	mw := LoggingConsumerMiddleware(log)

	msg, err := kafka.NewEvent("booking-1", "booking.created", map[string]string{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	handlerErr := kafka.NewBusinessError("slot taken", nil)
	err = mw(context.Background(), msg, func(context.Context, kafka.Message) error { return handlerErr })
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected the handler error to pass through, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "booking.created") || !strings.Contains(out, `"error_type":"business"`) {
		t.Errorf("expected event type and error type in log, got %s", out)
	}
}

func TestLoggingProducerMiddleware_Success(t *testing.T) {
	var buf bytes.Buffer
	mw := LoggingProducerMiddleware(logger.New(logger.Config{Output: &buf, Level: "info"}))

	msg, _ := kafka.NewEvent("barber-1", "schedule.slots_booked", nil)
	called := false
	err := mw(context.Background(), msg, func(context.Context, kafka.Message) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("expected next to run cleanly, err=%v called=%v", err, called)
	}
	if buf.Len() != 0 {
		t.Errorf("expected successful publishes to stay below info, got %s", buf.String())
	}
}
