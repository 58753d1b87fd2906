package ports

import (
	"context"
	"errors"
	"place-route-service/internal/domain"
)

var (
	// Provider answered but has no route between the points.
	ErrNoRoute = errors.New("no route")
	// Provider answered with a shape the adapter cannot read.
	ErrMalformedResponse = errors.New("malformed provider response")
)

type TransitKind string

const (
	TransitWalk   TransitKind = "walk"
	TransitBus    TransitKind = "bus"
	TransitSubway TransitKind = "subway"
	TransitOther  TransitKind = "other"
)

type BusType string

const (
	BusRegular BusType = "regular"
	BusLocal   BusType = "local"
	BusExpress BusType = "express"
	BusNight   BusType = "night"
)

// One ride or walk inside a transit route.
type TransitSegment struct {
	Kind           TransitKind `json:"kind"`
	BusType        BusType     `json:"bus_type,omitempty"`
	Line           string      `json:"line,omitempty"`
	DistanceMeters int         `json:"distance_m"`
}

type Fare struct {
	Currency string `json:"currency"`
	Value    int    `json:"value"`
}

// Provider-independent route. This is also the payload stored in the route cache.
type NormalizedRoute struct {
	Provider        string           `json:"provider"`
	DistanceMeters  int              `json:"distance_m"`
	DurationSeconds int              `json:"duration_s"`
	Fare            *Fare            `json:"fare,omitempty"`
	Polyline        string           `json:"polyline"`
	Segments        []TransitSegment `json:"segments,omitempty"`
}

type RouteRequest struct {
	Origin      domain.Coordinate
	Destination domain.Coordinate
	Mode        domain.TravelMode
}

// Contract for one directions backend in the fallback chain.
type DirectionsProvider interface {
	Name() string
	// Report whether this provider should be asked for the given mode.
	Supports(mode domain.TravelMode) bool
	// Return a normalized route, ErrNoRoute when none exists, or any other error
	// when the provider is unavailable.
	Route(ctx context.Context, req RouteRequest) (NormalizedRoute, error)
}
