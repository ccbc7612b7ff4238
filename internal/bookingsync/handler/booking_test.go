package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	"barbersched/internal/bookingsync/service"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
)

type mockBookingSyncService struct {
	service.BookingSyncService
	syncFunc     func(ctx context.Context, id string) (*model.SyncResult, error)
	completeFunc func(ctx context.Context, id string, req *model.CompleteBookingRequest) (*model.SyncResult, error)
}

func (m *mockBookingSyncService) SyncBooking(ctx context.Context, id string) (*model.SyncResult, error) {
	return m.syncFunc(ctx, id)
}

func (m *mockBookingSyncService) CancelBooking(ctx context.Context, id string) (*model.SyncResult, error) {
	return &model.SyncResult{BookingID: id}, nil
}

func (m *mockBookingSyncService) CompleteBooking(ctx context.Context, id string, req *model.CompleteBookingRequest) (*model.SyncResult, error) {
	return m.completeFunc(ctx, id, req)
}

func newRouter(svc *mockBookingSyncService) *httprouter.Router {
	router := httprouter.New()
	NewBookingSyncHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestSync(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"ok", nil, http.StatusOK},
		{"slot taken", apperrors.SlotUnavailable("barber-1", "2025-06-02", "10:00"), http.StatusConflict},
		{"forbidden", apperrors.Forbidden("Only admins may perform this action"), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			router := newRouter(&mockBookingSyncService{
				syncFunc: func(ctx context.Context, id string) (*model.SyncResult, error) {
					gotID = id
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.SyncResult{BookingID: id}, nil
				},
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bookings/booking-7/sync", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if gotID != "booking-7" {
				t.Errorf("expected booking-7, got %q", gotID)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantAt     bool
	}{
		{"no body", "", http.StatusOK, false},
		{"explicit time", `{"completed_at":"2025-06-02T10:30:00Z"}`, http.StatusOK, true},
		{"bad json", `{"completed_at":`, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *model.CompleteBookingRequest
			router := newRouter(&mockBookingSyncService{
				completeFunc: func(ctx context.Context, id string, req *model.CompleteBookingRequest) (*model.SyncResult, error) {
					got = req
					return &model.SyncResult{BookingID: id, NoOp: true}, nil
				},
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bookings/booking-7/complete", strings.NewReader(tt.body)))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusOK && (got.CompletedAt != nil) != tt.wantAt {
				t.Errorf("unexpected completed_at %v", got.CompletedAt)
			}
		})
	}
}
