package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"barbersched/internal/bookingsync/service"
	httputil "barbersched/pkg/http"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
)

type BookingSyncHandler struct {
	service service.BookingSyncService
	log     *logger.Logger
}

func NewBookingSyncHandler(service service.BookingSyncService, log *logger.Logger) *BookingSyncHandler {
	return &BookingSyncHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingSyncHandler) Sync(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.SyncBooking(r.Context(), ps.ByName("bookingId"))
	if err != nil {
		h.log.Debug("booking sync failed", "handler", "Sync", "booking_id", ps.ByName("bookingId"), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *BookingSyncHandler) CancelSync(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.CancelBooking(r.Context(), ps.ByName("bookingId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *BookingSyncHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CompleteBookingRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CompleteBooking(r.Context(), ps.ByName("bookingId"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *BookingSyncHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings/:bookingId/sync", h.Sync)
	router.POST("/api/v1/bookings/:bookingId/cancel-sync", h.CancelSync)
	router.POST("/api/v1/bookings/:bookingId/complete", h.Complete)
}
