package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"barbersched/internal/absences/service"
	httputil "barbersched/pkg/http"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
)

type AbsenceHandler struct {
	service service.AbsenceService
	log     *logger.Logger
}

func NewAbsenceHandler(service service.AbsenceService, log *logger.Logger) *AbsenceHandler {
	return &AbsenceHandler{
		service: service,
		log:     log,
	}
}

func (h *AbsenceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AbsenceRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	absence, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, absence)
}

func (h *AbsenceHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	filter := model.AbsenceFilter{
		BarberID: query.Get("barber_id"),
		Status:   model.AbsenceStatus(query.Get("status")),
		Limit:    limit,
		Offset:   offset,
	}

	absences, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WritePaginated(w, absences, total, limit, offset)
}

func (h *AbsenceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	absence, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, absence)
}

func (h *AbsenceHandler) AffectedBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	affected, err := h.service.AffectedBookings(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, affected)
}

func (h *AbsenceHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.Approve(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *AbsenceHandler) ProcessApproval(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ProcessApprovalRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ProcessApproval(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.log.Debug("absence approval rejected", "handler", "ProcessApproval", "id", ps.ByName("id"), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *AbsenceHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.RejectAbsenceRequest
	if err := httputil.DecodeJSON(r, &req, true); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Reject(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *AbsenceHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.RescheduleRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.RescheduleAffectedBooking(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *AbsenceHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/absences", h.Create)
	router.GET("/api/v1/absences", h.List)
	router.GET("/api/v1/absences/id/:id", h.GetByID)
	router.GET("/api/v1/absences/id/:id/affected-bookings", h.AffectedBookings)
	router.POST("/api/v1/absences/id/:id/approve", h.Approve)
	router.POST("/api/v1/absences/id/:id/process", h.ProcessApproval)
	router.POST("/api/v1/absences/id/:id/reject", h.Reject)
	router.POST("/api/v1/absences/id/:id/reschedule", h.Reschedule)
}
