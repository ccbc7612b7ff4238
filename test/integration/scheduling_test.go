package integration

import (
	"net/http"
	"testing"

	"barbersched/pkg/calendar"
	"barbersched/pkg/client"
	"barbersched/pkg/model"
	"barbersched/test/integration/testutil"
)

func expectStatus(t *testing.T, resp *client.Response, err error, want int) {
	t.Helper()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, client.GetErrorMessage(resp))
	}
}

func hasSlot(slots []calendar.TimeOfDay, s string) bool {
	for _, t := range slots {
		if t.String() == s {
			return true
		}
	}
	return false
}

func TestBookingAbsenceLifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)
	mongo, base := env.Setup(t)

	day := testutil.NextWorkingDay()
	mongo.SeedBarber(t, "barber-a", 4.8, "haircut")
	mongo.SeedBarber(t, "barber-b", 4.2, "haircut")
	mongo.SeedService(t, "haircut", 60)
	bookingID := mongo.SeedBooking(t, "barber-a", "haircut", day.At(calendar.NewTimeOfDay(10, 0), nil), 60)

	customer := client.NewScheduleClient(base.As(testutil.Customer()))
	bookings := client.NewBookingClient(base.As(testutil.Admin()))
	absences := client.NewAbsenceClient(base.As(testutil.Admin()))
	maintenance := client.NewMaintenanceClient(base.As(testutil.Admin()))

	t.Run("fresh day offers every slot", func(t *testing.T) {
		resp, err := customer.Availability("barber-a", day.String())
		expectStatus(t, resp, err, http.StatusOK)
		availability, err := customer.DecodeAvailability(resp)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !hasSlot(availability.Slots, "10:00") || hasSlot(availability.Slots, "12:00") {
			t.Errorf("unexpected slots %v", availability.Slots)
		}
	})

	t.Run("sync holds the booking's slots", func(t *testing.T) {
		resp, err := bookings.Sync(bookingID)
		expectStatus(t, resp, err, http.StatusOK)

		resp, err = customer.Availability("barber-a", day.String())
		expectStatus(t, resp, err, http.StatusOK)
		availability, _ := customer.DecodeAvailability(resp)
		if hasSlot(availability.Slots, "10:00") || hasSlot(availability.Slots, "10:30") {
			t.Errorf("booked slots still offered: %v", availability.Slots)
		}
	})

	var absenceID string
	t.Run("barber requests an absence", func(t *testing.T) {
		barber := client.NewAbsenceClient(base.As(testutil.Barber("barber-a")))
		resp, err := barber.Create(&model.AbsenceRequest{
			BarberID:  "barber-a",
			StartDate: day.String(),
			EndDate:   day.String(),
			Reason:    string(model.ReasonSickLeave),
		})
		expectStatus(t, resp, err, http.StatusCreated)
		absence, err := barber.DecodeAbsence(resp)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(absence.AffectedBookings) != 1 || absence.AffectedBookings[0].BookingRef != bookingID {
			t.Fatalf("expected the booking to be affected, got %+v", absence.AffectedBookings)
		}
		absenceID = absence.ID
	})

	t.Run("approval reassigns the booking", func(t *testing.T) {
		resp, err := absences.Process(absenceID, &model.ProcessApprovalRequest{
			Actions: []model.BookingAction{{
				BookingID:   bookingID,
				Action:      model.ActionReassign,
				NewBarberID: "barber-b",
			}},
		})
		expectStatus(t, resp, err, http.StatusOK)
		result, err := client.DecodeData[*model.ProcessApprovalResult](resp)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.Succeeded != 1 || result.Failed != 0 {
			t.Fatalf("expected one successful action, got %+v", result.Results)
		}

		if b := mongo.Booking(t, bookingID); b.BarberID != "barber-b" || b.ReassignedFrom != "barber-a" {
			t.Errorf("expected booking on barber-b, got %+v", b)
		}

		resp, err = customer.OffDay("barber-a", day.String())
		expectStatus(t, resp, err, http.StatusOK)
		status, _ := client.DecodeData[*model.OffDayStatus](resp)
		if !status.IsOffDay || status.AbsenceRef != absenceID {
			t.Errorf("expected barber-a off under %s, got %+v", absenceID, status)
		}
	})

	t.Run("schedules are consistent", func(t *testing.T) {
		resp, err := maintenance.Consistency("", day.String(), day.String(), false)
		expectStatus(t, resp, err, http.StatusOK)
		report, err := maintenance.DecodeConsistency(resp)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(report.Issues) != 0 {
			t.Errorf("expected no issues, got %+v", report.Issues)
		}
	})

	t.Run("customers cannot run maintenance", func(t *testing.T) {
		resp, err := client.NewMaintenanceClient(base.As(testutil.Customer())).Run()
		expectStatus(t, resp, err, http.StatusForbidden)
	})
}
