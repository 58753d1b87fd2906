package dto

import "place-route-service/internal/domain"

type PlaceResponse struct {
	ID             string            `json:"id,omitempty"`
	Name           string            `json:"name"`
	Category       string            `json:"category,omitempty"`
	Address        string            `json:"address"`
	Location       domain.Coordinate `json:"location"`
	DistanceMeters int               `json:"distance_m"`
}

type ListPlacesResponse struct {
	Places        []PlaceResponse `json:"places"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

type RecommendRequest struct {
	Location          *domain.Coordinate `json:"location"`
	GPSAccuracyMeters *float64           `json:"gps_accuracy_m"`
	StayingSeconds    *int               `json:"staying_duration_s"`
	Categories        []string           `json:"categories"`
	RadiusMeters      float64            `json:"radius_m"`
}

type RecommendResponse struct {
	Location LocateResponse  `json:"location"`
	Scope    string          `json:"scope"`
	Places   []PlaceResponse `json:"places"`
}

func NewPlaceResponses(places []domain.Place) []PlaceResponse {
	out := make([]PlaceResponse, 0, len(places))
	for _, p := range places {
		out = append(out, PlaceResponse{
			ID:             p.ID,
			Name:           p.Name,
			Category:       string(p.Category),
			Address:        p.Address,
			Location:       p.Location,
			DistanceMeters: int(p.DistanceMeters + 0.5),
		})
	}
	return out
}
