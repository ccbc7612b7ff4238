package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"

	"barbersched/pkg/calendar"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
)

type mockMaintenanceService struct {
	initializeFunc  func(ctx context.Context, days int) (*model.InitResult, error)
	runFunc         func(ctx context.Context) (*model.MaintenanceReport, error)
	consistencyFunc func(ctx context.Context, query model.ConsistencyQuery) (*model.ConsistencyReport, error)
}

func (m *mockMaintenanceService) InitializeSchedules(ctx context.Context, days int) (*model.InitResult, error) {
	if m.initializeFunc != nil {
		return m.initializeFunc(ctx, days)
	}
	return &model.InitResult{}, nil
}

func (m *mockMaintenanceService) RunMaintenance(ctx context.Context) (*model.MaintenanceReport, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return &model.MaintenanceReport{}, nil
}

func (m *mockMaintenanceService) ForceRelease(ctx context.Context, bookingID string) (*model.SyncResult, error) {
	return &model.SyncResult{BookingID: bookingID, ReleasedDays: 1}, nil
}

func (m *mockMaintenanceService) ValidateScheduleConsistency(ctx context.Context, query model.ConsistencyQuery) (*model.ConsistencyReport, error) {
	if m.consistencyFunc != nil {
		return m.consistencyFunc(ctx, query)
	}
	return &model.ConsistencyReport{}, nil
}

func newRouter(svc *mockMaintenanceService) *httprouter.Router {
	router := httprouter.New()
	NewMaintenanceHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantDays   int
		wantStatus int
	}{
		{name: "explicit days", target: "/api/v1/maintenance/initialize?days=10", wantDays: 10, wantStatus: http.StatusOK},
		{name: "default days", target: "/api/v1/maintenance/initialize", wantDays: 0, wantStatus: http.StatusOK},
		{name: "bad days", target: "/api/v1/maintenance/initialize?days=ten", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDays := -1
			svc := &mockMaintenanceService{
				initializeFunc: func(ctx context.Context, days int) (*model.InitResult, error) {
					gotDays = days
					return &model.InitResult{}, nil
				},
			}

			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.target, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && gotDays != tt.wantDays {
				t.Errorf("expected days %d, got %d", tt.wantDays, gotDays)
			}
		})
	}
}

func TestRun_LockHeld(t *testing.T) {
	svc := &mockMaintenanceService{
		runFunc: func(ctx context.Context) (*model.MaintenanceReport, error) {
			return nil, apperrors.Conflict("Maintenance is already running")
		},
	}

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/run", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestForceRelease(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&mockMaintenanceService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/force-release/booking-1", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestConsistency(t *testing.T) {
	var got model.ConsistencyQuery
	svc := &mockMaintenanceService{
		consistencyFunc: func(ctx context.Context, query model.ConsistencyQuery) (*model.ConsistencyReport, error) {
			got = query
			return &model.ConsistencyReport{}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/consistency?from=2025-06-02&to=2025-06-09&barber_id=barber-1&fix=true", nil)
	newRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !got.From.Equal(calendar.NewDay(2025, 6, 2)) || !got.To.Equal(calendar.NewDay(2025, 6, 9)) || got.BarberID != "barber-1" || !got.Fix {
		t.Errorf("unexpected query %+v", got)
	}

	rec = httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/consistency?from=June", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed date, got %d", rec.Code)
	}
}
