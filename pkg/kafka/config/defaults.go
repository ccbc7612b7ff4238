package kafka_config

import "time"

const (
	DefaultBrokers  = "localhost:9092"
	DefaultClientID = "barbersched"

	DefaultWriterMaxAttempts  = 3
	DefaultWriterBatchTimeout = 10 * time.Millisecond
	DefaultWriterAcks         = "all"
	DefaultWriterCompression  = "snappy"

	// A new consumer group starts at the oldest offset so that bookings
	// created before the first deploy are still synced.
	DefaultReaderStartOffset    = "oldest"
	DefaultReaderMaxBytes       = 1 << 20
	DefaultReaderMaxWait        = 500 * time.Millisecond
	DefaultReaderCommitInterval = 0
	DefaultReaderSessionTimeout = 10 * time.Second
	DefaultReaderMaxRetries     = 3
	DefaultReaderRetryBackoff   = 500 * time.Millisecond

	DefaultEnableMiddleware = true
)
