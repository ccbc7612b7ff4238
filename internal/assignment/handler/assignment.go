package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"barbersched/internal/assignment/service"
	httputil "barbersched/pkg/http"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
)

type AssignmentHandler struct {
	service service.AssignmentService
	log     *logger.Logger
}

func NewAssignmentHandler(service service.AssignmentService, log *logger.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		log:     log,
	}
}

func (h *AssignmentHandler) AutoAssign(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AutoAssignRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	assignment, err := h.service.AutoAssign(r.Context(), &req)
	if err != nil {
		h.log.Debug("auto-assign failed", "handler", "AutoAssign", "service_id", req.ServiceID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, assignment)
}

func (h *AssignmentHandler) AvailableBarbers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	day, err := httputil.DayParam(r, "date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	at, err := httputil.OptionalTimeParam(r, "time")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	barbers, err := h.service.AvailableBarbers(r.Context(), r.URL.Query().Get("service_id"), day, at)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, barbers)
}

func (h *AssignmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/assignments/auto", h.AutoAssign)
	router.GET("/api/v1/assignments/available-barbers", h.AvailableBarbers)
}
