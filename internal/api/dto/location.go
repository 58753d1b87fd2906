package dto

import "place-route-service/internal/domain"

type LocateRequest struct {
	Location          *domain.Coordinate `json:"location"`
	GPSAccuracyMeters *float64           `json:"gps_accuracy_m"`
	StayingSeconds    *int               `json:"staying_duration_s"`
}

type LocateResponse struct {
	Indoor       bool    `json:"indoor"`
	BuildingName *string `json:"building_name"`
	Address      string  `json:"address"`
}

func NewLocateResponse(c domain.LocationClassification) LocateResponse {
	return LocateResponse{
		Indoor:       c.Indoor,
		BuildingName: c.BuildingName,
		Address:      c.Address,
	}
}
