package testutil

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	barbersrepo "barbersched/internal/barbers/repository"
	bookingsrepo "barbersched/internal/bookings/repository"
	"barbersched/pkg/calendar"
	"barbersched/pkg/model"
)

// NextWorkingDay returns the first Tuesday to Friday at least two days
// ahead, so same-day notice rules never apply.
func NextWorkingDay() calendar.Day {
	day := calendar.DayOf(time.Now().UTC(), time.UTC).AddDays(2)
	for day.Weekday() < time.Tuesday || day.Weekday() > time.Friday {
		day = day.AddDays(1)
	}
	return day
}

func (m *MongoHelper) SeedBarber(t *testing.T, id string, rating float64, expertise ...string) {
	t.Helper()
	m.Insert(t, barbersrepo.BarbersCollection, bson.M{
		"_id":                      id,
		"name":                     "Barber " + id,
		"rating":                   rating,
		"experience_years":         5,
		"total_bookings":           0,
		"max_daily_bookings":       8,
		"auto_assignment_eligible": true,
		"is_available":             true,
		"expertise":                expertise,
	})
}

func (m *MongoHelper) SeedService(t *testing.T, id string, durationMin int) {
	t.Helper()
	m.Insert(t, barbersrepo.ServicesCollection, bson.M{
		"_id":              id,
		"name":             "Service " + id,
		"duration_minutes": durationMin,
	})
}

// SeedBooking stores a confirmed booking and returns its id.
func (m *MongoHelper) SeedBooking(t *testing.T, barberID, serviceID string, start time.Time, durationMin int) string {
	t.Helper()
	oid := primitive.NewObjectID()
	m.Insert(t, bookingsrepo.CollectionName, bson.M{
		"_id":              oid,
		"customer_id":      "customer-it",
		"barber_id":        barberID,
		"service_id":       serviceID,
		"booking_date":     start,
		"duration_minutes": durationMin,
		"status":           string(model.BookingConfirmed),
		"created_at":       time.Now().UTC(),
	})
	return oid.Hex()
}

func (m *MongoHelper) Booking(t *testing.T, id string) *model.Booking {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		t.Fatalf("invalid booking id %s: %v", id, err)
	}
	var b model.Booking
	m.FindOne(t, bookingsrepo.CollectionName, bson.M{"_id": oid}, &b)
	return &b
}
