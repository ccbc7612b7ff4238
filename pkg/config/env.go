package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvStartOfDay       = "DEFAULT_START_OF_DAY"
	EnvEndOfDay         = "DEFAULT_END_OF_DAY"
	EnvSlotDurationMin  = "DEFAULT_SLOT_DURATION_MIN"
	EnvBreakTimes       = "DEFAULT_BREAK_TIMES"
	EnvWorkingDays      = "DEFAULT_WORKING_DAYS"
	EnvTimeZone         = "SHOP_TIME_ZONE"
	EnvMinBookingNotice = "MIN_BOOKING_NOTICE"

	EnvScheduleHorizonDays   = "SCHEDULE_HORIZON_DAYS"
	EnvScheduleRetentionDays = "SCHEDULE_RETENTION_DAYS"
	EnvMaintenanceInterval   = "MAINTENANCE_INTERVAL"
	EnvMaintenanceLockTTL    = "MAINTENANCE_LOCK_TTL"

	EnvApprovalConcurrency = "APPROVAL_CONCURRENCY"
	EnvMaxAlternatives     = "MAX_ALTERNATIVES"

	EnvKafkaEnabled       = "KAFKA_ENABLED"
	EnvEventsTopic        = "KAFKA_EVENTS_TOPIC"
	EnvEventsDLQTopic     = "KAFKA_EVENTS_DLQ_TOPIC"
	EnvBookingEventsTopic = "KAFKA_BOOKING_EVENTS_TOPIC"
	EnvBookingDLQTopic    = "KAFKA_BOOKING_DLQ_TOPIC"
	EnvBookingSyncGroupID = "KAFKA_BOOKING_SYNC_GROUP_ID"
)
