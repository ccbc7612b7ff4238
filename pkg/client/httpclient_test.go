package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"barbersched/pkg/actor"
	"barbersched/pkg/model"
)

func TestAs_SendsActorHeaders(t *testing.T) {
	var gotID, gotRole, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(actor.HeaderID)
		gotRole = r.Header.Get(actor.HeaderRole)
		gotPath = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"barber_id":"barber-1","date":"2025-06-02","available":true,"slots":["09:00","09:30"]}}`))
	}))
	defer srv.Close()

	base := NewHttpClient(srv.URL)
	schedules := NewScheduleClient(base.As(actor.Actor{ID: "customer-1", Role: actor.RoleCustomer}))

	resp, err := schedules.Availability("barber-1", "2025-06-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "customer-1" || gotRole != "customer" {
		t.Errorf("expected actor headers, got %q/%q", gotID, gotRole)
	}
	if gotPath != "/api/v1/barbers/barber-1/availability?date=2025-06-02" {
		t.Errorf("unexpected path %s", gotPath)
	}

	availability, err := schedules.DecodeAvailability(resp)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !availability.Available || len(availability.Slots) != 2 || availability.Slots[1].String() != "09:30" {
		t.Errorf("unexpected availability %+v", availability)
	}

	// The base client stays anonymous.
	if _, err := NewMaintenanceClient(base).Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "" {
		t.Errorf("expected no actor on the base client, got %q", gotID)
	}
}

func TestDecodePage(t *testing.T) {
	resp := &Response{
		Response: &http.Response{StatusCode: http.StatusOK},
		Body:     []byte(`{"data":[{"id":"absence-1","status":"pending"}],"total_count":7,"limit":1,"offset":2}`),
	}

	absences, meta, err := DecodePage[*model.Absence](resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(absences) != 1 || absences[0].Status != model.AbsencePending {
		t.Errorf("unexpected absences %+v", absences)
	}
	if meta.TotalCount != 7 || meta.Limit != 1 || meta.Offset != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
}

func TestGetErrorMessage(t *testing.T) {
	resp := &Response{Body: []byte(`{"error":"Absence not found","code":"NOT_FOUND"}`)}
	if got := GetErrorMessage(resp); got != "Absence not found" {
		t.Errorf("expected the error text, got %q", got)
	}
}
