// Package testutil holds fixtures shared by the unit tests.
package testutil

import (
	"time"

	"barbersched/pkg/calendar"
	"barbersched/pkg/config"
	"barbersched/pkg/logger"
)

// Config returns a resolved configuration: 09:00-18:00, 30 minute slots, a
// 12:00-13:00 break, Monday to Saturday, UTC.
func Config() *config.Config {
	return &config.Config{
		DefaultStartOfDay:      "09:00",
		DefaultEndOfDay:        "18:00",
		DefaultSlotDurationMin: 30,
		DefaultBreakTimes:      []string{"12:00-13:00"},
		TimeZone:               "UTC",
		MinBookingNotice:       30 * time.Minute,
		ScheduleHorizonDays:    7,
		ScheduleRetentionDays:  30,
		MaintenanceLockTTL:     time.Minute,
		ApprovalConcurrency:    4,
		MaxAlternatives:        3,
		ReadTimeout:            time.Second,
		WorkingHours: calendar.TimeRange{
			Start: calendar.NewTimeOfDay(9, 0),
			End:   calendar.NewTimeOfDay(18, 0),
		},
		BreakTimes: []calendar.TimeRange{{
			Start: calendar.NewTimeOfDay(12, 0),
			End:   calendar.NewTimeOfDay(13, 0),
		}},
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
		},
		Location: time.UTC,
		Log:      logger.Discard(),
	}
}
