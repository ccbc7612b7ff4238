package model

import "barbersched/pkg/calendar"

type CustomerPreferences struct {
	HairType string `json:"hair_type,omitempty" validate:"omitempty,max=50"`
	Style    string `json:"style,omitempty" validate:"omitempty,max=50"`
}

type AutoAssignRequest struct {
	ServiceID   string              `json:"service_id" validate:"required,max=64"`
	Date        string              `json:"date" validate:"required,calendar_day"`
	TimeSlot    string              `json:"time_slot,omitempty" validate:"omitempty,time_of_day"`
	Preferences CustomerPreferences `json:"preferences"`
}

// AssignmentQuery is an AutoAssignRequest after boundary parsing. A zero
// DurationMinutes takes the service's duration.
type AssignmentQuery struct {
	ServiceID       string
	Date            calendar.Day
	TimeSlot        *calendar.TimeOfDay
	DurationMinutes int
	Preferences     CustomerPreferences
}

// CandidateScore is one ranked barber with the inputs of its score.
type CandidateScore struct {
	BarberID         string  `json:"barber_id"`
	Name             string  `json:"name,omitempty"`
	FinalScore       float64 `json:"final_score"`
	RatingScore      float64 `json:"rating_score"`
	WorkloadScore    float64 `json:"workload_score"`
	ExperienceScore  float64 `json:"experience_score"`
	VolumeScore      float64 `json:"volume_score"`
	DailyBookings    int     `json:"daily_bookings"`
	MonthlyBookings  int     `json:"monthly_bookings"`
	MaxDailyBookings int     `json:"max_daily_bookings"`
}

type Assignment struct {
	ServiceID       string              `json:"service_id"`
	Date            calendar.Day        `json:"date"`
	TimeSlot        *calendar.TimeOfDay `json:"time_slot,omitempty"`
	DurationMinutes int                 `json:"duration_minutes"`
	Selected        CandidateScore      `json:"selected"`
	Alternatives    []CandidateScore    `json:"alternatives"`
	LoadBalanced    bool                `json:"load_balanced"`
	UsedFallback    bool                `json:"used_fallback"`
	CandidatesSeen  int                 `json:"candidates_seen"`
	// Excluded maps barber ids that were dropped to the reason.
	Excluded map[string]string `json:"excluded,omitempty"`
}

// AvailableBarber is the customer-facing view of a free barber.
type AvailableBarber struct {
	BarberID string  `json:"barber_id"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
}
