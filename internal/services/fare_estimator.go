package services

import (
	"place-route-service/internal/domain"
	"place-route-service/internal/platform/metrics"
	"place-route-service/internal/ports"
)

// Seoul fare table, KRW.
const (
	SubwayBaseFare      = 1400
	SubwayBaseMeters    = 10_000
	SubwayBandMeters    = 5_000
	SubwayBandSurcharge = 100
	fareCurrency        = "KRW"
)

var busFares = map[ports.BusType]int{
	ports.BusRegular: 1500,
	ports.BusLocal:   1200,
	ports.BusExpress: 3000,
	ports.BusNight:   2500,
}

// FareEstimator prices transit legs the provider returned without a fare.
type FareEstimator struct{}

func NewFareEstimator() *FareEstimator { return &FareEstimator{} }

// Estimate returns nil when the route has no bus or subway segment.
// A route using both is charged the larger of the two single-mode fares;
// transfer discounts are not modelled.
func (f *FareEstimator) Estimate(segments []ports.TransitSegment, totalDistanceMeters int) *domain.Fare {
	var hasSubway bool
	bus := 0

	for _, s := range segments {
		switch s.Kind {
		case ports.TransitSubway:
			hasSubway = true
		case ports.TransitBus:
			bt := s.BusType
			if bt == "" {
				bt = ports.BusRegular
			}
			bus = max(bus, busFares[bt])
		}
	}

	if !hasSubway && bus == 0 {
		return nil
	}

	value := bus
	if hasSubway {
		value = max(value, SubwayFare(totalDistanceMeters))
	}

	metrics.FareEstimatesTotal.Inc()
	return &domain.Fare{Currency: fareCurrency, Value: value}
}

// SubwayFare is the base fare up to 10 km plus a surcharge for every
// started 5 km beyond it.
func SubwayFare(distanceMeters int) int {
	if distanceMeters <= SubwayBaseMeters {
		return SubwayBaseFare
	}
	extra := distanceMeters - SubwayBaseMeters
	bands := (extra + SubwayBandMeters - 1) / SubwayBandMeters
	return SubwayBaseFare + bands*SubwayBandSurcharge
}
