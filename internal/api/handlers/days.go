package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/api/dto"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/services"
)

// DayPlanner is the planning surface the HTTP handlers need.
type DayPlanner interface {
	Schedule(day domain.Day) (domain.Day, error)
	OptimizeDay(ctx context.Context, day domain.Day) (domain.Day, error)
	RefreshDay(ctx context.Context, sessionID string, day domain.Day) (domain.Day, []services.LegDirections, error)
	Route(ctx context.Context, sessionID string, origin, destination domain.LatLng, mode domain.TransportMode, departAt *time.Time) (services.SelectedRoute, error)
	EndSession(id string) bool
}

type DayHandler struct {
	Planner  DayPlanner
	Validate *Validator
	Log      *zap.Logger
}

func (h *DayHandler) readDay(w http.ResponseWriter, r *http.Request) (domain.Day, bool) {
	var req dto.DayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return domain.Day{}, false
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return domain.Day{}, false
	}

	day, err := req.ToDomain()
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return domain.Day{}, false
	}
	return day, true
}

// Timeline schedules the stops in the order given.
func (h *DayHandler) Timeline(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	day, ok := h.readDay(w, r)
	if !ok {
		return
	}

	scheduled, err := h.Planner.Schedule(day)
	if err != nil {
		writeServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, r, h.Log, http.StatusOK, dto.NewDayResponse(scheduled))
}

// Optimize reorders the interior stops and schedules the result. Failures
// return an error status and no stops, so clients keep their current order.
func (h *DayHandler) Optimize(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	day, ok := h.readDay(w, r)
	if !ok {
		return
	}

	optimized, err := h.Planner.OptimizeDay(r.Context(), day)
	if err != nil {
		writeServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, r, h.Log, http.StatusOK, dto.NewDayResponse(optimized))
}

// Refresh fetches leg directions through the session cache and reschedules.
func (h *DayHandler) Refresh(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, ok := h.readDay(w, r)
	if !ok {
		return
	}

	refreshed, legs, err := h.Planner.RefreshDay(r.Context(), ps.ByName("id"), day)
	if err != nil {
		writeServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, r, h.Log, http.StatusOK, dto.NewRefreshResponse(dto.NewDayResponse(refreshed), legs))
}
