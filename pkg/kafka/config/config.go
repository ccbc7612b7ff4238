package kafka_config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"barbersched/pkg/logger"
)

type Config struct {
	Brokers  []string
	ClientID string

	Writer WriterConfig
	Reader ReaderConfig

	EnableMiddleware bool
}

// WriterConfig is used for the events writer. Dead-letter writers copy it
// but always wait for every replica.
type WriterConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	Acks         kafka.RequiredAcks
	Compression  compress.Compression
}

type ReaderConfig struct {
	StartOffset int64
	MaxBytes    int
	MaxWait     time.Duration
	// Zero commits synchronously after every message.
	CommitInterval time.Duration
	SessionTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

var (
	acksByName = map[string]kafka.RequiredAcks{
		"all":  kafka.RequireAll,
		"one":  kafka.RequireOne,
		"none": kafka.RequireNone,
	}
	codecByName = map[string]compress.Compression{
		"none":   compress.None,
		"gzip":   compress.Gzip,
		"snappy": compress.Snappy,
		"lz4":    compress.Lz4,
		"zstd":   compress.Zstd,
	}
	offsetByName = map[string]int64{
		"oldest": kafka.FirstOffset,
		"newest": kafka.LastOffset,
	}
)

// Load reads the Kafka settings from the environment. Unparseable values
// are reported rather than replaced by their defaults.
func Load() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		Brokers:  splitList(p.str(EnvBrokers, DefaultBrokers)),
		ClientID: p.str(EnvClientID, DefaultClientID),
		Writer: WriterConfig{
			MaxAttempts:  p.intVar(EnvWriterMaxAttempts, DefaultWriterMaxAttempts),
			BatchTimeout: p.durationVar(EnvWriterBatchTimeout, DefaultWriterBatchTimeout),
			Acks:         pick(p, EnvWriterAcks, DefaultWriterAcks, acksByName),
			Compression:  pick(p, EnvWriterCompression, DefaultWriterCompression, codecByName),
		},
		Reader: ReaderConfig{
			StartOffset:    pick(p, EnvReaderStartOffset, DefaultReaderStartOffset, offsetByName),
			MaxBytes:       p.intVar(EnvReaderMaxBytes, DefaultReaderMaxBytes),
			MaxWait:        p.durationVar(EnvReaderMaxWait, DefaultReaderMaxWait),
			CommitInterval: p.durationVar(EnvReaderCommitInterval, DefaultReaderCommitInterval),
			SessionTimeout: p.durationVar(EnvReaderSessionTimeout, DefaultReaderSessionTimeout),
			MaxRetries:     p.intVar(EnvReaderMaxRetries, DefaultReaderMaxRetries),
			RetryBackoff:   p.durationVar(EnvReaderRetryBackoff, DefaultReaderRetryBackoff),
		},
		EnableMiddleware: p.boolVar(EnvEnableMiddleware, DefaultEnableMiddleware),
	}

	p.require(len(cfg.Brokers) > 0, "%s: at least one broker is required", EnvBrokers)
	p.require(cfg.Writer.MaxAttempts > 0, "%s must be positive, got %d", EnvWriterMaxAttempts, cfg.Writer.MaxAttempts)
	p.require(cfg.Writer.BatchTimeout > 0, "%s must be positive, got %s", EnvWriterBatchTimeout, cfg.Writer.BatchTimeout)
	p.require(cfg.Reader.MaxBytes > 0, "%s must be positive, got %d", EnvReaderMaxBytes, cfg.Reader.MaxBytes)
	p.require(cfg.Reader.MaxWait > 0, "%s must be positive, got %s", EnvReaderMaxWait, cfg.Reader.MaxWait)
	p.require(cfg.Reader.CommitInterval >= 0, "%s cannot be negative, got %s", EnvReaderCommitInterval, cfg.Reader.CommitInterval)
	p.require(cfg.Reader.SessionTimeout > 0, "%s must be positive, got %s", EnvReaderSessionTimeout, cfg.Reader.SessionTimeout)
	p.require(cfg.Reader.MaxRetries >= 0, "%s cannot be negative, got %d", EnvReaderMaxRetries, cfg.Reader.MaxRetries)
	p.require(cfg.Reader.RetryBackoff > 0, "%s must be positive, got %s", EnvReaderRetryBackoff, cfg.Reader.RetryBackoff)

	if err := p.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"client_id", cfg.ClientID,
		"writer_max_attempts", cfg.Writer.MaxAttempts,
		"writer_batch_timeout", cfg.Writer.BatchTimeout,
		"writer_acks", int(cfg.Writer.Acks),
		"writer_compression", cfg.Writer.Compression.String(),
		"reader_start_offset", cfg.Reader.StartOffset,
		"reader_max_bytes", cfg.Reader.MaxBytes,
		"reader_commit_interval", cfg.Reader.CommitInterval,
		"reader_max_retries", cfg.Reader.MaxRetries,
		"reader_retry_backoff", cfg.Reader.RetryBackoff,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

type parser struct {
	problems []string
}

func (p *parser) addf(format string, args ...any) {
	p.problems = append(p.problems, fmt.Sprintf(format, args...))
}

func (p *parser) require(ok bool, format string, args ...any) {
	if !ok {
		p.addf(format, args...)
	}
}

func (p *parser) err() error {
	if len(p.problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid kafka configuration: %s", strings.Join(p.problems, "; "))
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) intVar(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.addf("%s: %q is not an integer", key, raw)
		return def
	}
	return n
}

func (p *parser) boolVar(key string, def bool) bool {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.addf("%s: %q is not a boolean", key, raw)
		return def
	}
	return b
}

func (p *parser) durationVar(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.addf("%s: %q is not a duration", key, raw)
		return def
	}
	return d
}

// pick resolves a named setting such as "snappy" or "oldest".
func pick[T any](p *parser, key, def string, table map[string]T) T {
	name := strings.ToLower(p.str(key, def))
	if v, ok := table[name]; ok {
		return v
	}
	p.addf("%s: unsupported value %q (one of %s)", key, name, strings.Join(slices.Sorted(maps.Keys(table)), ", "))
	return table[def]
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
