package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/api/dto"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/domain"
)

type SessionHandler struct {
	Planner  DayPlanner
	Validate *Validator
	Log      *zap.Logger
}

// Route answers a single origin/destination query through the session's
// route cache.
func (h *SessionHandler) Route(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dto.RouteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	origin, destination, err := req.Points()
	if err != nil {
		writeError(w, r, h.Log, http.StatusBadRequest, err.Error())
		return
	}

	mode, ok := domain.ParseTransportMode(req.Mode)
	if !ok {
		mode = domain.ModeDriving
	}

	sel, err := h.Planner.Route(r.Context(), ps.ByName("id"), origin, destination, mode, req.DepartureTime)
	if err != nil {
		writeServiceError(w, r, h.Log, err)
		return
	}
	writeJSON(w, r, h.Log, http.StatusOK, dto.NewRouteResponse(sel))
}

// End drops the session's cached routes.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !h.Planner.EndSession(ps.ByName("id")) {
		writeError(w, r, h.Log, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
