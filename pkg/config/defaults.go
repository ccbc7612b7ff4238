package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "barbersched"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultStartOfDay       = "09:00"
	DefaultEndOfDay         = "18:00"
	DefaultSlotDurationMin  = 30
	DefaultBreakTimes       = "12:00-13:00"
	DefaultWorkingDays      = "monday,tuesday,wednesday,thursday,friday,saturday"
	DefaultTimeZone         = "UTC"
	DefaultMinBookingNotice = 30 * time.Minute

	DefaultScheduleHorizonDays   = 14
	DefaultScheduleRetentionDays = 30
	DefaultMaintenanceInterval   = time.Duration(0)
	DefaultMaintenanceLockTTL    = 10 * time.Minute

	DefaultApprovalConcurrency = 4
	DefaultMaxAlternatives     = 3

	DefaultKafkaEnabled       = false
	DefaultEventsTopic        = "barbersched.events"
	DefaultEventsDLQTopic     = "barbersched.events.dlq"
	DefaultBookingEventsTopic = "bookings.lifecycle"
	DefaultBookingDLQTopic    = "bookings.lifecycle.dlq"
	DefaultBookingSyncGroupID = "barbersched-booking-sync"
)
