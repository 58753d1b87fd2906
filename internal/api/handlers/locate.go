package handlers

import (
	"net/http"
	"place-route-service/internal/api/dto"
	"place-route-service/internal/domain"
	"place-route-service/internal/services"
)

type LocateHandler struct {
	Locator *services.Locator
}

func (h *LocateHandler) Locate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.LocateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	coord, err := requireCoordinate("location", req.Location)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res := h.Locator.Classify(r.Context(), coord, domain.IndoorSignal{
		GPSAccuracyMeters:      req.GPSAccuracyMeters,
		StayingDurationSeconds: req.StayingSeconds,
	})
	writeJSON(w, r, http.StatusOK, dto.NewLocateResponse(res))
}
