package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "barbersched/pkg/kafka/config"
	"barbersched/pkg/logger"
)

// Consumer reads one topic as a member of a consumer group. Offsets are
// committed only after a message is handled, rejected as a business error
// or parked on the dead-letter topic.
type Consumer struct {
	reader  *kafka.Reader
	dlq     *deadLetter
	topic   string
	groupID string
	retries int
	backoff time.Duration
	handler MessageHandler
	log     *logger.Logger

	mu      sync.RWMutex
	chain   []ConsumerMiddleware
	closed  bool
	running sync.WaitGroup
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

func NewConsumer(cfg *kafka_config.Config, topic, groupID, dlqTopic string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if err := checkEndpoint(cfg, topic); err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, errors.New("kafka consumer group is required")
	}
	if handler == nil {
		return nil, errors.New("kafka message handler is required")
	}

	rc := cfg.Reader
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		Dialer:         &kafka.Dialer{ClientID: cfg.ClientID, Timeout: 10 * time.Second, DualStack: true},
		MinBytes:       1,
		MaxBytes:       rc.MaxBytes,
		MaxWait:        rc.MaxWait,
		CommitInterval: rc.CommitInterval,
		SessionTimeout: rc.SessionTimeout,
		StartOffset:    rc.StartOffset,
		Logger:         kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:    errorLogger(log, topic),
	})

	return &Consumer{
		reader:  reader,
		dlq:     newDeadLetter(cfg, dlqTopic, log),
		topic:   topic,
		groupID: groupID,
		retries: rc.MaxRetries,
		backoff: rc.RetryBackoff,
		handler: handler,
		log:     log,
	}, nil
}

// Use appends mw to the chain. Middleware added after Start has no effect on
// the running loop.
func (c *Consumer) Use(mw ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chain = append(c.chain, mw)
}

// Start consumes until ctx is cancelled and then returns ctx.Err(). A
// message interrupted by cancellation is left uncommitted and will be
// redelivered.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	handle := c.compose()
	c.running.Add(1)
	c.mu.RUnlock()
	defer c.running.Done()

	for {
		km, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("Failed to fetch kafka message", "topic", c.topic, "error", err)
			if !pause(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		msg := fromKafka(km)
		if err := c.deliver(ctx, handle, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("Kafka message abandoned",
				"topic", c.topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"event_id", msg.Headers.EventID(),
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, km); err != nil && ctx.Err() == nil {
			c.log.Error("Failed to commit kafka offset", "topic", c.topic, "offset", km.Offset, "error", err)
		}
	}
}

func (c *Consumer) compose() MessageHandler {
	handle := c.handler
	for i := len(c.chain) - 1; i >= 0; i-- {
		mw, next := c.chain[i], handle
		handle = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}
	return handle
}

// deliver retries transient failures with a linear backoff. Business
// rejections count as handled. Anything else, including a transient error
// that ran out of retries, is dead-lettered and returned.
func (c *Consumer) deliver(ctx context.Context, handle MessageHandler, msg Message) error {
	for {
		err := handle(ctx, msg)
		if err == nil {
			return nil
		}
		if ClassifyError(err) == ErrorTypeBusiness {
			c.log.Warn("Kafka message rejected by business rules",
				"topic", c.topic,
				"event_id", msg.Headers.EventID(),
				"error", err,
			)
			return nil
		}

		attempt := msg.Headers.Retries()
		if !ShouldRetry(err, attempt, c.retries) {
			if dlqErr := c.dlq.send(ctx, msg, c.topic, c.groupID, err); dlqErr != nil {
				c.log.Error("Failed to dead-letter kafka message", "topic", c.topic, "error", dlqErr, "cause", err)
			} else if c.dlq != nil {
				c.log.Warn("Kafka message dead-lettered", "topic", c.topic, "event_id", msg.Headers.EventID(), "error", err)
			}
			return err
		}

		msg.Headers.setRetries(attempt + 1)
		c.log.Warn("Retrying kafka message",
			"topic", c.topic,
			"event_id", msg.Headers.EventID(),
			"attempt", attempt+1,
			"max_retries", c.retries,
			"error", err,
		)
		if !pause(ctx, c.backoff*time.Duration(attempt+1)) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.running.Wait()
	return errors.Join(c.reader.Close(), c.dlq.close())
}

func pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
