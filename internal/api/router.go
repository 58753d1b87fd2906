package api

import (
	"net/http"
	"place-route-service/internal/api/handlers"
	"place-route-service/internal/platform/metrics"
	"place-route-service/internal/services"
)

// Deps are the services the HTTP layer serves.
type Deps struct {
	Locator     *services.Locator
	Places      *services.PlaceAggregator
	Recommender *services.Recommender
	Router      *services.DirectionsRouter
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete provider adapters.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	locate := &handlers.LocateHandler{Locator: deps.Locator}
	places := &handlers.PlacesHandler{Places: deps.Places, Recommender: deps.Recommender}
	routes := &handlers.RouteHandler{Router: deps.Router}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/locate", locate.Locate)
	mux.HandleFunc("/places", places.List)
	mux.HandleFunc("/recommendations", places.Recommend)
	mux.HandleFunc("/routes", routes.Route)
	mux.HandleFunc("/courses", routes.Course)
	mux.Handle("/metrics", metrics.Handler())

	return requestIDMiddleware(loggingMiddleware(mux))
}
