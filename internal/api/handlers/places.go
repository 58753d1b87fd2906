package handlers

import (
	"errors"
	"net/http"
	"place-route-service/internal/api/dto"
	"place-route-service/internal/domain"
	"place-route-service/internal/services"
	"strconv"
	"strings"
)

type PlacesHandler struct {
	Places      *services.PlaceAggregator
	Recommender *services.Recommender
}

// List answers GET /places?lat=&lng=&radius=&category=.
func (h *PlacesHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		writeError(w, r, http.StatusBadRequest, "lat and lng are required numbers")
		return
	}

	radius := services.DefaultRadiusMeters
	if v := q.Get("radius"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "radius must be a number")
			return
		}
		radius = n
	}

	req := services.SearchRequest{
		Location:     domain.Coordinate{Lat: lat, Lng: lng},
		RadiusMeters: radius,
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c, err := domain.ParseCategory(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Category = &c
	}

	res, err := h.Places.Search(r.Context(), req)
	if errors.Is(err, services.ErrInvalidRadius) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		internalError(w, r, "search places", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ListPlacesResponse{
		Places:        dto.NewPlaceResponses(res.Places),
		NextPageToken: res.NextPageToken,
	})
}

// Recommend classifies the caller's location and searches the building
// or the surrounding radius accordingly.
func (h *PlacesHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.RecommendRequest
	if !decodeBody(w, r, &req) {
		return
	}

	coord, err := requireCoordinate("location", req.Location)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	categories := make([]domain.Category, 0, len(req.Categories))
	for _, s := range req.Categories {
		c, err := domain.ParseCategory(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		categories = append(categories, c)
	}

	if req.RadiusMeters < 0 || req.RadiusMeters > services.MaxRadiusMeters {
		writeError(w, r, http.StatusBadRequest, "radius_m out of range")
		return
	}

	rec, err := h.Recommender.Recommend(r.Context(), services.RecommendRequest{
		Location: coord,
		Signal: domain.IndoorSignal{
			GPSAccuracyMeters:      req.GPSAccuracyMeters,
			StayingDurationSeconds: req.StayingSeconds,
		},
		Categories:   categories,
		RadiusMeters: req.RadiusMeters,
	})
	if err != nil {
		internalError(w, r, "recommend", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RecommendResponse{
		Location: dto.NewLocateResponse(rec.Location),
		Scope:    string(rec.Scope),
		Places:   dto.NewPlaceResponses(rec.Places),
	})
}
