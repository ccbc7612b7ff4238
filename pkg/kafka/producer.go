package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	kafka_config "barbersched/pkg/kafka/config"
	"barbersched/pkg/logger"
)

// Producer publishes to one topic. A message the writer gives up on is
// copied to the dead-letter topic when one is configured, and the write
// error is still returned.
type Producer struct {
	writer *kafka.Writer
	dlq    *deadLetter
	topic  string

	mu     sync.RWMutex
	chain  []ProducerMiddleware
	closed bool
}

type PublishFunc func(ctx context.Context, msg Message) error

type ProducerMiddleware func(ctx context.Context, msg Message, next PublishFunc) error

func NewProducer(cfg *kafka_config.Config, topic, dlqTopic string, log *logger.Logger) (*Producer, error) {
	if err := checkEndpoint(cfg, topic); err != nil {
		return nil, err
	}
	return &Producer{
		writer: newWriter(cfg, topic, cfg.Writer, log),
		dlq:    newDeadLetter(cfg, dlqTopic, log),
		topic:  topic,
	}, nil
}

// Use appends mw to the chain. The first middleware added runs outermost.
func (p *Producer) Use(mw ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chain = append(p.chain, mw)
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	closed, chain := p.closed, p.chain
	p.mu.RUnlock()

	if closed {
		return ErrProducerClosed
	}
	if msg.Key == "" {
		return ErrEmptyKey
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}
	msg.Topic = p.topic

	publish := PublishFunc(p.write)
	for i := len(chain) - 1; i >= 0; i-- {
		mw, next := chain[i], publish
		publish = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	return publish(ctx, msg)
}

func (p *Producer) write(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, msg.toKafka())
	if err == nil || p.dlq == nil {
		return err
	}
	if dlqErr := p.dlq.send(ctx, msg, p.topic, "", err); dlqErr != nil {
		return fmt.Errorf("publish failed (%v) and dead-lettering failed: %w", err, dlqErr)
	}
	return err
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return errors.Join(p.writer.Close(), p.dlq.close())
}

func newWriter(cfg *kafka_config.Config, topic string, settings kafka_config.WriterConfig, log *logger.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: settings.Acks,
		Compression:  settings.Compression,
		MaxAttempts:  settings.MaxAttempts,
		BatchTimeout: settings.BatchTimeout,
		Transport:    &kafka.Transport{ClientID: cfg.ClientID},
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  errorLogger(log, topic),
	}
}

func checkEndpoint(cfg *kafka_config.Config, topic string) error {
	switch {
	case cfg == nil:
		return errors.New("kafka config is required")
	case len(cfg.Brokers) == 0:
		return errors.New("at least one kafka broker is required")
	case topic == "":
		return errors.New("kafka topic is required")
	}
	return nil
}

// errorLogger routes kafka-go's internal errors into the service logger.
func errorLogger(log *logger.Logger, topic string) kafka.Logger {
	return kafka.LoggerFunc(func(msg string, args ...any) {
		if log == nil {
			return
		}
		log.Error("kafka client error", "topic", topic, "detail", fmt.Sprintf(msg, args...))
	})
}
