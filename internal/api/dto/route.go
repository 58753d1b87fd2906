package dto

import "place-route-service/internal/domain"

type RouteRequest struct {
	Origin      *domain.Coordinate `json:"origin"`
	Destination *domain.Coordinate `json:"destination"`
	Mode        string             `json:"mode"`
}

type LegResponse struct {
	From            domain.Coordinate `json:"from"`
	To              domain.Coordinate `json:"to"`
	Mode            string            `json:"mode"`
	DistanceMeters  int               `json:"distance_m"`
	DurationSeconds int               `json:"duration_s"`
	Fare            *int              `json:"fare"`
	FareSource      string            `json:"fare_source"`
	Polyline        string            `json:"polyline"`
	Provider        string            `json:"provider"`
}

type CourseStop struct {
	ID       string            `json:"id,omitempty"`
	Name     string            `json:"name"`
	Location domain.Coordinate `json:"location"`
}

type CourseRequest struct {
	Start    *domain.Coordinate `json:"start"`
	Stops    []CourseStop       `json:"stops"`
	Modes    []string           `json:"modes"`
	Optimize bool               `json:"optimize"`
}

type CourseResponse struct {
	Stops                []CourseStop  `json:"stops"`
	Legs                 []LegResponse `json:"legs"`
	TotalDistanceMeters  int           `json:"total_distance_m"`
	TotalDurationSeconds int           `json:"total_duration_s"`
	TotalFare            int           `json:"total_fare"`
}

func NewLegResponse(l domain.RouteLeg) LegResponse {
	return LegResponse{
		From:            l.From,
		To:              l.To,
		Mode:            string(l.Mode),
		DistanceMeters:  l.DistanceMeters,
		DurationSeconds: l.DurationSeconds,
		Fare:            l.Fare,
		FareSource:      string(l.FareSource),
		Polyline:        l.Polyline,
		Provider:        l.Provider,
	}
}
