package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
)

type mockAbsenceService struct {
	createFunc          func(ctx context.Context, req *model.AbsenceRequest) (*model.Absence, error)
	listFunc            func(ctx context.Context, filter model.AbsenceFilter) ([]*model.Absence, int64, error)
	getByIDFunc         func(ctx context.Context, id string) (*model.Absence, error)
	processApprovalFunc func(ctx context.Context, id string, req *model.ProcessApprovalRequest) (*model.ProcessApprovalResult, error)
	rejectFunc          func(ctx context.Context, id string, req *model.RejectAbsenceRequest) (*model.ApprovalResult, error)
	rescheduleFunc      func(ctx context.Context, id string, req *model.RescheduleRequest) (*model.SyncResult, error)
}

func (m *mockAbsenceService) Create(ctx context.Context, req *model.AbsenceRequest) (*model.Absence, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &model.Absence{ID: "absence-1", BarberID: req.BarberID, Status: model.AbsencePending}, nil
}

func (m *mockAbsenceService) GetByID(ctx context.Context, id string) (*model.Absence, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Absence{ID: id}, nil
}

func (m *mockAbsenceService) List(ctx context.Context, filter model.AbsenceFilter) ([]*model.Absence, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []*model.Absence{}, 0, nil
}

func (m *mockAbsenceService) AffectedBookings(ctx context.Context, id string) ([]model.AffectedBooking, error) {
	return []model.AffectedBooking{{BookingRef: "booking-1"}}, nil
}

func (m *mockAbsenceService) Approve(ctx context.Context, id string) (*model.ApprovalResult, error) {
	return &model.ApprovalResult{Absence: &model.Absence{ID: id, Status: model.AbsenceApproved}}, nil
}

func (m *mockAbsenceService) ProcessApproval(ctx context.Context, id string, req *model.ProcessApprovalRequest) (*model.ProcessApprovalResult, error) {
	if m.processApprovalFunc != nil {
		return m.processApprovalFunc(ctx, id, req)
	}
	return &model.ProcessApprovalResult{}, nil
}

func (m *mockAbsenceService) Reject(ctx context.Context, id string, req *model.RejectAbsenceRequest) (*model.ApprovalResult, error) {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, id, req)
	}
	return &model.ApprovalResult{}, nil
}

func (m *mockAbsenceService) RescheduleAffectedBooking(ctx context.Context, id string, req *model.RescheduleRequest) (*model.SyncResult, error) {
	if m.rescheduleFunc != nil {
		return m.rescheduleFunc(ctx, id, req)
	}
	return &model.SyncResult{}, nil
}

func newRouter(svc *mockAbsenceService) *httprouter.Router {
	router := httprouter.New()
	NewAbsenceHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"barber_id":"barber-1","start_date":"2025-06-03","end_date":"2025-06-05","reason":"vacation"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "empty body",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "forbidden",
			body:       `{"barber_id":"barber-2","start_date":"2025-06-03","end_date":"2025-06-05","reason":"vacation"}`,
			serviceErr: apperrors.Forbidden("Not allowed to act on another barber's data"),
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAbsenceService{}
			if tt.serviceErr != nil {
				svc.createFunc = func(ctx context.Context, req *model.AbsenceRequest) (*model.Absence, error) {
					return nil, tt.serviceErr
				}
			}

			rec := serve(newRouter(svc), http.MethodPost, "/api/v1/absences", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestList(t *testing.T) {
	var got model.AbsenceFilter
	svc := &mockAbsenceService{
		listFunc: func(ctx context.Context, filter model.AbsenceFilter) ([]*model.Absence, int64, error) {
			got = filter
			return []*model.Absence{{ID: "absence-1"}}, 7, nil
		},
	}

	rec := serve(newRouter(svc), http.MethodGet, "/api/v1/absences?barber_id=barber-1&status=approved&limit=5&offset=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.BarberID != "barber-1" || got.Status != model.AbsenceApproved || got.Limit != 5 || got.Offset != 2 {
		t.Errorf("unexpected filter %+v", got)
	}

	var body struct {
		TotalCount int64 `json:"total_count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalCount != 7 {
		t.Errorf("expected total 7, got %d", body.TotalCount)
	}
}

func TestList_BadLimit(t *testing.T) {
	rec := serve(newRouter(&mockAbsenceService{}), http.MethodGet, "/api/v1/absences?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := &mockAbsenceService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Absence, error) {
			return nil, apperrors.NotFoundWithID("Absence", id)
		},
	}

	rec := serve(newRouter(svc), http.MethodGet, "/api/v1/absences/id/absence-404", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestProcessApproval(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantActions int
	}{
		{name: "no body approves without actions", wantStatus: http.StatusOK},
		{
			name:        "with actions",
			body:        `{"actions":[{"booking_id":"booking-1","action":"reassign","new_barber_id":"barber-2"},{"booking_id":"booking-2","action":"reject"}]}`,
			wantStatus:  http.StatusOK,
			wantActions: 2,
		},
		{name: "malformed", body: `{"actions":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				gotID      string
				gotActions int
			)
			svc := &mockAbsenceService{
				processApprovalFunc: func(ctx context.Context, id string, req *model.ProcessApprovalRequest) (*model.ProcessApprovalResult, error) {
					gotID, gotActions = id, len(req.Actions)
					return &model.ProcessApprovalResult{Succeeded: len(req.Actions)}, nil
				},
			}

			rec := serve(newRouter(svc), http.MethodPost, "/api/v1/absences/id/absence-1/process", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && (gotID != "absence-1" || gotActions != tt.wantActions) {
				t.Errorf("expected absence-1 with %d actions, got %s with %d", tt.wantActions, gotID, gotActions)
			}
		})
	}
}

func TestReject(t *testing.T) {
	var gotReason string
	svc := &mockAbsenceService{
		rejectFunc: func(ctx context.Context, id string, req *model.RejectAbsenceRequest) (*model.ApprovalResult, error) {
			gotReason = req.Reason
			return nil, apperrors.Conflict("Absence cannot change to the requested status")
		},
	}

	rec := serve(newRouter(svc), http.MethodPost, "/api/v1/absences/id/absence-1/reject", `{"reason":"short staffed"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if gotReason != "short staffed" {
		t.Errorf("expected reason to reach the service, got %q", gotReason)
	}
}

func TestReschedule(t *testing.T) {
	svc := &mockAbsenceService{
		rescheduleFunc: func(ctx context.Context, id string, req *model.RescheduleRequest) (*model.SyncResult, error) {
			if req.BookingID != "booking-1" || req.NewDate != "2025-06-09" {
				t.Errorf("unexpected request %+v", req)
			}
			return nil, apperrors.SlotUnavailable("barber-1", "2025-06-09", "11:00")
		},
	}

	rec := serve(newRouter(svc), http.MethodPost, "/api/v1/absences/id/absence-1/reschedule",
		`{"booking_id":"booking-1","new_date":"2025-06-09","new_time":"11:00"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for a taken slot, got %d: %s", rec.Code, rec.Body.String())
	}
}
