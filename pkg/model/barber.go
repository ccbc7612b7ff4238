package model

import "strings"

// Barber is the read-only part of a barber profile used for assignment.
type Barber struct {
	ID                     string   `json:"id" bson:"_id,omitempty"`
	Name                   string   `json:"name" bson:"name"`
	Rating                 float64  `json:"rating" bson:"rating"`
	ExperienceYears        int      `json:"experience_years" bson:"experience_years"`
	TotalBookings          int      `json:"total_bookings" bson:"total_bookings"`
	MaxDailyBookings       int      `json:"max_daily_bookings" bson:"max_daily_bookings"`
	AutoAssignmentEligible bool     `json:"auto_assignment_eligible" bson:"auto_assignment_eligible"`
	IsAvailable            bool     `json:"is_available" bson:"is_available"`
	Expertise              []string `json:"expertise,omitempty" bson:"expertise,omitempty"`
}

// HasExpertise reports whether every tag is among the barber's expertise,
// ignoring case.
func (b *Barber) HasExpertise(tags ...string) bool {
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		found := false
		for _, e := range b.Expertise {
			if strings.EqualFold(e, tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type Service struct {
	ID                string   `json:"id" bson:"_id,omitempty"`
	Name              string   `json:"name" bson:"name"`
	DurationMinutes   int      `json:"duration_minutes" bson:"duration_minutes"`
	RequiredExpertise []string `json:"required_expertise,omitempty" bson:"required_expertise,omitempty"`
}
