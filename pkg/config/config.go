package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"barbersched/pkg/calendar"
	"barbersched/pkg/client"
	"barbersched/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultStartOfDay      string
	DefaultEndOfDay        string
	DefaultSlotDurationMin int
	DefaultBreakTimes      []string
	DefaultWorkingDays     []string
	TimeZone               string
	MinBookingNotice       time.Duration

	ScheduleHorizonDays   int
	ScheduleRetentionDays int
	MaintenanceInterval   time.Duration
	MaintenanceLockTTL    time.Duration

	ApprovalConcurrency int
	MaxAlternatives     int

	KafkaEnabled       bool
	EventsTopic        string
	EventsDLQTopic     string
	BookingEventsTopic string
	BookingDLQTopic    string
	BookingSyncGroupID string

	// Resolved by Validate.
	WorkingHours calendar.TimeRange
	BreakTimes   []calendar.TimeRange
	WorkingDays  []time.Weekday
	Location     *time.Location

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultStartOfDay:      getEnvStr(EnvStartOfDay, DefaultStartOfDay),
		DefaultEndOfDay:        getEnvStr(EnvEndOfDay, DefaultEndOfDay),
		DefaultSlotDurationMin: getEnvNum(EnvSlotDurationMin, DefaultSlotDurationMin),
		DefaultBreakTimes:      getEnvList(EnvBreakTimes, DefaultBreakTimes),
		DefaultWorkingDays:     getEnvList(EnvWorkingDays, DefaultWorkingDays),
		TimeZone:               getEnvStr(EnvTimeZone, DefaultTimeZone),
		MinBookingNotice:       getEnvDuration(EnvMinBookingNotice, DefaultMinBookingNotice),

		ScheduleHorizonDays:   getEnvNum(EnvScheduleHorizonDays, DefaultScheduleHorizonDays),
		ScheduleRetentionDays: getEnvNum(EnvScheduleRetentionDays, DefaultScheduleRetentionDays),
		MaintenanceInterval:   getEnvDuration(EnvMaintenanceInterval, DefaultMaintenanceInterval),
		MaintenanceLockTTL:    getEnvDuration(EnvMaintenanceLockTTL, DefaultMaintenanceLockTTL),

		ApprovalConcurrency: getEnvNum(EnvApprovalConcurrency, DefaultApprovalConcurrency),
		MaxAlternatives:     getEnvNum(EnvMaxAlternatives, DefaultMaxAlternatives),

		KafkaEnabled:       getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		EventsTopic:        getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventsDLQTopic:     getEnvStr(EnvEventsDLQTopic, DefaultEventsDLQTopic),
		BookingEventsTopic: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		BookingDLQTopic:    getEnvStr(EnvBookingDLQTopic, DefaultBookingDLQTopic),
		BookingSyncGroupID: getEnvStr(EnvBookingSyncGroupID, DefaultBookingSyncGroupID),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.FormatJSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// Validate checks every setting and resolves the parsed scheduling values
// (working hours, breaks, working days and location).
func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"MaintenanceLockTTL", cfg.MaintenanceLockTTL},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.MinBookingNotice < 0 {
		errors = append(errors, fmt.Sprintf("MinBookingNotice cannot be negative, got: %s", cfg.MinBookingNotice))
	}
	if cfg.MaintenanceInterval < 0 {
		errors = append(errors, fmt.Sprintf("MaintenanceInterval cannot be negative, got: %s", cfg.MaintenanceInterval))
	}

	start, startErr := calendar.ParseTimeOfDay(cfg.DefaultStartOfDay)
	if startErr != nil {
		errors = append(errors, fmt.Sprintf("DefaultStartOfDay must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultStartOfDay))
	}
	end, endErr := calendar.ParseTimeOfDay(cfg.DefaultEndOfDay)
	if endErr != nil {
		errors = append(errors, fmt.Sprintf("DefaultEndOfDay must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultEndOfDay))
	}
	if startErr == nil && endErr == nil {
		cfg.WorkingHours = calendar.TimeRange{Start: start, End: end}
		if !cfg.WorkingHours.Valid() {
			errors = append(errors, fmt.Sprintf("DefaultEndOfDay (%s) must be after DefaultStartOfDay (%s)", cfg.DefaultEndOfDay, cfg.DefaultStartOfDay))
		}
	}

	if cfg.DefaultSlotDurationMin <= 0 || cfg.DefaultSlotDurationMin > 240 {
		errors = append(errors, fmt.Sprintf("DefaultSlotDurationMin must be between 1 and 240, got: %d", cfg.DefaultSlotDurationMin))
	}

	cfg.BreakTimes = cfg.BreakTimes[:0]
	for _, raw := range cfg.DefaultBreakTimes {
		r, err := calendar.ParseTimeRange(raw)
		if err != nil {
			errors = append(errors, fmt.Sprintf("DefaultBreakTimes entry must be HH:MM-HH:MM, got: %s", raw))
			continue
		}
		cfg.BreakTimes = append(cfg.BreakTimes, r)
	}

	cfg.WorkingDays = cfg.WorkingDays[:0]
	for _, raw := range cfg.DefaultWorkingDays {
		wd, ok := parseWeekday(raw)
		if !ok {
			errors = append(errors, fmt.Sprintf("DefaultWorkingDays entry must be a weekday name, got: %s", raw))
			continue
		}
		cfg.WorkingDays = append(cfg.WorkingDays, wd)
	}
	if len(cfg.DefaultWorkingDays) == 0 {
		errors = append(errors, "DefaultWorkingDays cannot be empty")
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("TimeZone must be an IANA zone name, got: %s", cfg.TimeZone))
	} else {
		cfg.Location = loc
	}

	if cfg.ScheduleHorizonDays < 0 {
		errors = append(errors, fmt.Sprintf("ScheduleHorizonDays cannot be negative, got: %d", cfg.ScheduleHorizonDays))
	}
	if cfg.ScheduleRetentionDays <= 0 {
		errors = append(errors, fmt.Sprintf("ScheduleRetentionDays must be positive, got: %d", cfg.ScheduleRetentionDays))
	}
	if cfg.ApprovalConcurrency <= 0 {
		errors = append(errors, fmt.Sprintf("ApprovalConcurrency must be positive, got: %d", cfg.ApprovalConcurrency))
	}
	if cfg.MaxAlternatives < 0 {
		errors = append(errors, fmt.Sprintf("MaxAlternatives cannot be negative, got: %d", cfg.MaxAlternatives))
	}

	if cfg.KafkaEnabled {
		if cfg.EventsTopic == "" {
			errors = append(errors, "EventsTopic cannot be empty when Kafka is enabled")
		}
		if cfg.BookingEventsTopic == "" {
			errors = append(errors, "BookingEventsTopic cannot be empty when Kafka is enabled")
		}
		if cfg.BookingSyncGroupID == "" {
			errors = append(errors, "BookingSyncGroupID cannot be empty when Kafka is enabled")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_start_of_day", cfg.DefaultStartOfDay,
		"default_end_of_day", cfg.DefaultEndOfDay,
		"default_slot_duration_min", cfg.DefaultSlotDurationMin,
		"default_break_times", cfg.DefaultBreakTimes,
		"default_working_days", cfg.DefaultWorkingDays,
		"time_zone", cfg.TimeZone,
		"min_booking_notice", cfg.MinBookingNotice,
		"schedule_horizon_days", cfg.ScheduleHorizonDays,
		"schedule_retention_days", cfg.ScheduleRetentionDays,
		"maintenance_interval", cfg.MaintenanceInterval,
		"approval_concurrency", cfg.ApprovalConcurrency,
		"max_alternatives", cfg.MaxAlternatives,
		"kafka_enabled", cfg.KafkaEnabled,
		"events_topic", cfg.EventsTopic,
		"booking_events_topic", cfg.BookingEventsTopic,
	)
}

// IsWorkingDay reports whether wd is one of the configured working weekdays.
func (cfg *Config) IsWorkingDay(wd time.Weekday) bool {
	for _, d := range cfg.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, true
		}
	}
	return 0, false
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
