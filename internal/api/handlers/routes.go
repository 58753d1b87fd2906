package handlers

import (
	"net/http"
	"place-route-service/internal/api/dto"
	"place-route-service/internal/domain"
	"place-route-service/internal/services"
)

// Stops beyond this many make a course too long to route synchronously.
const maxCourseStops = 10

type RouteHandler struct {
	Router *services.DirectionsRouter
}

// Route answers a single origin to destination leg. An empty mode picks
// walking or transit by distance.
func (h *RouteHandler) Route(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.RouteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	origin, err := requireCoordinate("origin", req.Origin)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	dest, err := requireCoordinate("destination", req.Destination)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	mode := services.AutoMode(origin, dest)
	if req.Mode != "" {
		if mode, err = domain.ParseTravelMode(req.Mode); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	leg := h.Router.Route(r.Context(), origin, dest, mode)
	writeJSON(w, r, http.StatusOK, dto.NewLegResponse(leg))
}

// Course routes a multi-stop visit, optionally reordering the stops first.
func (h *RouteHandler) Course(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.CourseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if len(req.Stops) == 0 || len(req.Stops) > maxCourseStops {
		writeError(w, r, http.StatusBadRequest, "stops must contain between 1 and 10 entries")
		return
	}

	var start *domain.Coordinate
	if req.Start != nil {
		s, err := requireCoordinate("start", req.Start)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		start = &s
	}

	places := make([]domain.Place, 0, len(req.Stops))
	for _, s := range req.Stops {
		if err := s.Location.Validate(); err != nil {
			writeError(w, r, http.StatusBadRequest, "stop "+s.Name+": "+err.Error())
			return
		}
		places = append(places, domain.Place{ID: s.ID, Name: s.Name, Location: s.Location})
	}

	modes := make([]domain.TravelMode, 0, len(req.Modes))
	for _, m := range req.Modes {
		if m == "" {
			modes = append(modes, "")
			continue
		}
		mode, err := domain.ParseTravelMode(m)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		modes = append(modes, mode)
	}

	if req.Optimize {
		from := places[0].Location
		if start != nil {
			from = *start
		}
		places = services.OrderStops(places, from)
	}

	stops := make([]domain.Coordinate, 0, len(places))
	res := dto.CourseResponse{Stops: make([]dto.CourseStop, 0, len(places))}
	for _, p := range places {
		stops = append(stops, p.Location)
		res.Stops = append(res.Stops, dto.CourseStop{ID: p.ID, Name: p.Name, Location: p.Location})
	}

	it := h.Router.CourseRoute(r.Context(), stops, start, modes)

	res.Legs = make([]dto.LegResponse, 0, len(it.Legs))
	for _, l := range it.Legs {
		res.Legs = append(res.Legs, dto.NewLegResponse(l))
	}
	res.TotalDistanceMeters = it.TotalDistanceMeters()
	res.TotalDurationSeconds = it.TotalDurationSeconds()
	res.TotalFare = it.TotalFare()

	writeJSON(w, r, http.StatusOK, res)
}
