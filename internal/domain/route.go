package domain

import "fmt"

type TravelMode string

const (
	ModeWalking TravelMode = "walking"
	ModeDriving TravelMode = "driving"
	ModeTransit TravelMode = "transit"
)

func ParseTravelMode(s string) (TravelMode, error) {
	switch m := TravelMode(s); m {
	case ModeWalking, ModeDriving, ModeTransit:
		return m, nil
	}
	return "", fmt.Errorf("parse travel mode: unknown mode %q", s)
}

// FareSource records where a leg's fare came from.
type FareSource string

const (
	FareSourceProvider  FareSource = "provider"
	FareSourceEstimated FareSource = "estimated"
	FareSourceNone      FareSource = "none"
)

type Fare struct {
	Currency string `json:"currency"`
	Value    int    `json:"value"`
}

// Represents one point-to-point segment of an itinerary.
// Every provider's answer is normalized into this shape, so callers never
// branch on which provider produced it.
type RouteLeg struct {
	From            Coordinate `json:"from"`
	To              Coordinate `json:"to"`
	Mode            TravelMode `json:"mode"`
	DistanceMeters  int        `json:"distance_m"`
	DurationSeconds int        `json:"duration_s"`
	Fare            *int       `json:"fare,omitempty"`
	FareSource      FareSource `json:"fare_source"`
	Polyline        string     `json:"polyline"`
	Provider        string     `json:"provider"`
}

// Represents the legs covering consecutive stops of a course.
// Totals are derived from the legs and never stored separately.
type Itinerary struct {
	Legs []RouteLeg `json:"legs"`
}

func (it Itinerary) TotalDistanceMeters() int {
	total := 0
	for _, l := range it.Legs {
		total += l.DistanceMeters
	}
	return total
}

func (it Itinerary) TotalDurationSeconds() int {
	total := 0
	for _, l := range it.Legs {
		total += l.DurationSeconds
	}
	return total
}

// TotalFare sums the fares of legs that have one.
func (it Itinerary) TotalFare() int {
	total := 0
	for _, l := range it.Legs {
		if l.Fare != nil {
			total += *l.Fare
		}
	}
	return total
}
