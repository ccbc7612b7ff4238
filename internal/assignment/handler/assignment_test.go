package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	"barbersched/pkg/calendar"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
)

type mockAssignmentService struct {
	autoAssignFunc       func(ctx context.Context, req *model.AutoAssignRequest) (*model.Assignment, error)
	availableBarbersFunc func(ctx context.Context, serviceID string, day calendar.Day, at *calendar.TimeOfDay) (any, error)
}

func (m *mockAssignmentService) AutoAssign(ctx context.Context, req *model.AutoAssignRequest) (*model.Assignment, error) {
	if m.autoAssignFunc != nil {
		return m.autoAssignFunc(ctx, req)
	}
	return &model.Assignment{}, nil
}

func (m *mockAssignmentService) AvailableBarbers(ctx context.Context, serviceID string, day calendar.Day, at *calendar.TimeOfDay) (any, error) {
	if m.availableBarbersFunc != nil {
		return m.availableBarbersFunc(ctx, serviceID, day, at)
	}
	return []model.AvailableBarber{}, nil
}

func (m *mockAssignmentService) Rank(ctx context.Context, query model.AssignmentQuery) (*model.Assignment, error) {
	return nil, nil
}

func newRouter(svc *mockAssignmentService) *httprouter.Router {
	router := httprouter.New()
	NewAssignmentHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestAutoAssign(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{
			name:       "ranked",
			body:       `{"service_id":"haircut","date":"2025-06-02","time_slot":"10:00"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty body",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"service_id":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "nobody free",
			body:       `{"service_id":"haircut","date":"2025-06-02"}`,
			serviceErr: apperrors.Conflict("No barber is available for the requested slot"),
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received *model.AutoAssignRequest
			router := newRouter(&mockAssignmentService{
				autoAssignFunc: func(ctx context.Context, req *model.AutoAssignRequest) (*model.Assignment, error) {
					received = req
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &model.Assignment{Selected: model.CandidateScore{BarberID: "A"}}, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/auto", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if received == nil || received.TimeSlot != "10:00" {
					t.Errorf("request not passed through: %+v", received)
				}
				var resp struct {
					Data model.Assignment `json:"data"`
				}
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Data.Selected.BarberID != "A" {
					t.Errorf("expected A, got %s", resp.Data.Selected.BarberID)
				}
			}
		})
	}
}

func TestAvailableBarbers(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTime   string
	}{
		{"date and time", "?service_id=haircut&date=2025-06-02&time=14:30", http.StatusOK, "14:30"},
		{"date only", "?service_id=haircut&date=2025-06-02", http.StatusOK, ""},
		{"missing date", "?service_id=haircut", http.StatusBadRequest, ""},
		{"bad time", "?service_id=haircut&date=2025-06-02&time=2pm", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTime *calendar.TimeOfDay
			var gotService string
			router := newRouter(&mockAssignmentService{
				availableBarbersFunc: func(ctx context.Context, serviceID string, day calendar.Day, at *calendar.TimeOfDay) (any, error) {
					gotService = serviceID
					gotTime = at
					return []model.AvailableBarber{{BarberID: "A", Name: "Ana"}}, nil
				},
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments/available-barbers"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if gotService != "haircut" {
				t.Errorf("expected service haircut, got %q", gotService)
			}
			switch {
			case tt.wantTime == "" && gotTime != nil:
				t.Errorf("expected no time, got %s", gotTime)
			case tt.wantTime != "" && (gotTime == nil || gotTime.String() != tt.wantTime):
				t.Errorf("expected time %s, got %v", tt.wantTime, gotTime)
			}
		})
	}
}
