package kafka_middleware

import (
	"context"
	"time"

	"barbersched/pkg/kafka"
	"barbersched/pkg/logger"
)

func messageAttrs(msg kafka.Message, start time.Time) []any {
	return []any{
		"topic", msg.Topic,
		"key", msg.Key,
		"event_id", msg.Headers.EventID(),
		"event_type", msg.Headers.EventType(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
}

// LoggingProducerMiddleware logs every publish. Successes are logged at
// debug since every domain write emits one.
func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.PublishFunc) error {
		start := time.Now()
		err := next(ctx, msg)
		if err != nil {
			log.Error("Failed to publish domain event", append(messageAttrs(msg, start), "error", err)...)
			return err
		}
		log.Debug("Published domain event", messageAttrs(msg, start)...)
		return nil
	}
}

func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		attrs := append(messageAttrs(msg, start),
			"partition", msg.Partition,
			"offset", msg.Offset,
			"retries", msg.Headers.Retries(),
		)
		if err != nil {
			log.Warn("Booking event handler failed", append(attrs, "error", err, "error_type", kafka.ClassifyError(err).String())...)
			return err
		}
		log.Info("Booking event handled", attrs...)
		return nil
	}
}
