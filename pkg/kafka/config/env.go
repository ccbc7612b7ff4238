package kafka_config

const (
	EnvBrokers  = "KAFKA_BROKERS"
	EnvClientID = "KAFKA_CLIENT_ID"

	// Writer settings apply to the domain events topic.
	EnvWriterMaxAttempts  = "KAFKA_WRITER_MAX_ATTEMPTS"
	EnvWriterBatchTimeout = "KAFKA_WRITER_BATCH_TIMEOUT"
	EnvWriterAcks         = "KAFKA_WRITER_ACKS"
	EnvWriterCompression  = "KAFKA_WRITER_COMPRESSION"

	// Reader settings apply to the booking lifecycle consumer.
	EnvReaderStartOffset    = "KAFKA_READER_START_OFFSET"
	EnvReaderMaxBytes       = "KAFKA_READER_MAX_BYTES"
	EnvReaderMaxWait        = "KAFKA_READER_MAX_WAIT"
	EnvReaderCommitInterval = "KAFKA_READER_COMMIT_INTERVAL"
	EnvReaderSessionTimeout = "KAFKA_READER_SESSION_TIMEOUT"
	EnvReaderMaxRetries     = "KAFKA_READER_MAX_RETRIES"
	EnvReaderRetryBackoff   = "KAFKA_READER_RETRY_BACKOFF"

	EnvEnableMiddleware = "KAFKA_ENABLE_MIDDLEWARE"
)
