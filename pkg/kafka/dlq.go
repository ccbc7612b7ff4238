package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "barbersched/pkg/kafka/config"
	"barbersched/pkg/logger"
)

const (
	headerDLQError = "dlq-error"
	headerDLQAt    = "dlq-timestamp"
	headerDLQGroup = "dlq-consumer-group"
)

// deadLetter parks messages that could not be published or handled. A nil
// *deadLetter drops them.
type deadLetter struct {
	writer *kafka.Writer
}

func newDeadLetter(cfg *kafka_config.Config, topic string, log *logger.Logger) *deadLetter {
	if topic == "" {
		return nil
	}
	settings := cfg.Writer
	settings.Acks = kafka.RequireAll
	return &deadLetter{writer: newWriter(cfg, topic, settings, log)}
}

// send copies msg to the dead-letter topic with the failure recorded in its
// headers. group is empty for messages that failed on publish.
func (d *deadLetter) send(ctx context.Context, msg Message, from, group string, cause error) error {
	if d == nil {
		return nil
	}

	now := time.Now().UTC()
	msg.Headers = msg.Headers.clone()
	msg.Headers[HeaderOriginalTopic] = from
	msg.Headers[headerDLQError] = cause.Error()
	msg.Headers[headerDLQAt] = now.Format(time.RFC3339)
	if group != "" {
		msg.Headers[headerDLQGroup] = group
	}
	msg.Timestamp = now

	return d.writer.WriteMessages(ctx, msg.toKafka())
}

func (d *deadLetter) close() error {
	if d == nil {
		return nil
	}
	return d.writer.Close()
}
