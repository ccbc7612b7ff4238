package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"barbersched/internal/schedules/service"
	"barbersched/pkg/calendar"
	httputil "barbersched/pkg/http"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
)

type ScheduleHandler struct {
	service service.ScheduleService
	log     *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

func (h *ScheduleHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, err := httputil.DayParam(r, "date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	availability, err := h.service.GetAvailableSlots(r.Context(), ps.ByName("barberId"), day)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, availability)
}

func (h *ScheduleHandler) GetRealTimeAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, err := httputil.DayParam(r, "date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	from, err := httputil.OptionalTimeParam(r, "from")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var fromTime calendar.TimeOfDay
	if from != nil {
		fromTime = *from
	}

	availability, err := h.service.GetRealTimeAvailability(r.Context(), ps.ByName("barberId"), day, fromTime)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, availability)
}

func (h *ScheduleHandler) GetOffDayStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, err := httputil.DayParam(r, "date")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.service.GetOffDayStatus(r.Context(), ps.ByName("barberId"), day)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, status)
}

func (h *ScheduleHandler) BlockSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BlockSlotRequest
	if err := httputil.DecodeJSON(r, &req, false); err != nil {
		httputil.WriteError(w, err)
		return
	}

	sc, err := h.service.BlockSlot(r.Context(), ps.ByName("barberId"), &req)
	if err != nil {
		h.log.Debug("block slot rejected", "handler", "BlockSlot", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, sc)
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/barbers/:barberId/availability", h.GetAvailableSlots)
	router.GET("/api/v1/barbers/:barberId/availability/realtime", h.GetRealTimeAvailability)
	router.GET("/api/v1/barbers/:barberId/off-day", h.GetOffDayStatus)
	router.POST("/api/v1/barbers/:barberId/slots/block", h.BlockSlot)
}
