package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"barbersched/internal/maintenance/service"
	httputil "barbersched/pkg/http"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
)

type MaintenanceHandler struct {
	service service.MaintenanceService
	log     *logger.Logger
}

func NewMaintenanceHandler(service service.MaintenanceService, log *logger.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		service: service,
		log:     log,
	}
}

func (h *MaintenanceHandler) Initialize(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	days, err := httputil.IntParam(r, "days", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.InitializeSchedules(r.Context(), days)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *MaintenanceHandler) Run(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	report, err := h.service.RunMaintenance(r.Context())
	if err != nil {
		h.log.Debug("maintenance run refused", "handler", "Run", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, report)
}

func (h *MaintenanceHandler) ForceRelease(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.ForceRelease(r.Context(), ps.ByName("bookingId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *MaintenanceHandler) Consistency(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from, err := httputil.OptionalDayParam(r, "from")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := httputil.OptionalDayParam(r, "to")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.ValidateScheduleConsistency(r.Context(), model.ConsistencyQuery{
		BarberID: r.URL.Query().Get("barber_id"),
		From:     from,
		To:       to,
		Fix:      httputil.BoolParam(r, "fix"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, report)
}

func (h *MaintenanceHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/maintenance/initialize", h.Initialize)
	router.POST("/api/v1/maintenance/run", h.Run)
	router.POST("/api/v1/maintenance/force-release/:bookingId", h.ForceRelease)
	router.POST("/api/v1/maintenance/consistency", h.Consistency)
}
