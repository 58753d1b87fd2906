package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"place-route-service/internal/config"
	"place-route-service/internal/domain"
	"place-route-service/internal/geo"
	"place-route-service/internal/platform/httpx"
	"place-route-service/internal/platform/metrics"
	"place-route-service/internal/platform/obs"
	"place-route-service/internal/ports"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// GoogleDirections implements ports.DirectionsProvider with the Directions API.
// It is the last provider in the chain and accepts every mode.
type GoogleDirections struct {
	client  *httpx.Client
	apiKey  string
	baseURL string
}

func NewGoogleDirections(apiKey string, timeout time.Duration) (*GoogleDirections, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("google directions: %w", config.ErrMissingCredential)
	}

	return &GoogleDirections{
		client:  httpx.NewClient(timeout, httpx.SingleAttempt()),
		apiKey:  apiKey,
		baseURL: "https://maps.googleapis.com",
	}, nil
}

func (g *GoogleDirections) Name() string { return "google" }

func (g *GoogleDirections) Supports(domain.TravelMode) bool { return true }

type valueField struct {
	Value int `json:"value"`
}

type transitDetails struct {
	Line struct {
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
		Vehicle   struct {
			Type string `json:"type"`
		} `json:"vehicle"`
	} `json:"line"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Fare *struct {
			Currency string  `json:"currency"`
			Value    float64 `json:"value"`
		} `json:"fare"`
		Legs []struct {
			Distance valueField `json:"distance"`
			Duration valueField `json:"duration"`
			Steps    []struct {
				TravelMode     string          `json:"travel_mode"`
				Distance       valueField      `json:"distance"`
				TransitDetails *transitDetails `json:"transit_details"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

func (g *GoogleDirections) Route(ctx context.Context, req ports.RouteRequest) (_ ports.NormalizedRoute, err error) {
	ctx, done := obs.Start(ctx, "google.Directions",
		attribute.String("mode", string(req.Mode)),
	)
	defer done(&err)

	start := time.Now()
	defer func() { metrics.ObserveProvider(g.Name(), outcome(err), start) }()

	q := url.Values{}
	q.Set("origin", latLngParam(req.Origin))
	q.Set("destination", latLngParam(req.Destination))
	q.Set("mode", string(req.Mode))
	q.Set("language", "ko")
	q.Set("key", g.apiKey)
	endpoint := g.baseURL + "/maps/api/directions/json?" + q.Encode()

	resp, err := g.client.Do(ctx, func() (*http.Request, error) {
		return httpx.NewRequest(ctx, http.MethodGet, endpoint, nil, nil)
	})
	if err != nil {
		return ports.NormalizedRoute{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.NormalizedRoute{}, fmt.Errorf("decode directions response: %w: %v", ports.ErrMalformedResponse, err)
	}

	switch decoded.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return ports.NormalizedRoute{}, fmt.Errorf("directions status %s: %w", decoded.Status, ports.ErrNoRoute)
	default:
		return ports.NormalizedRoute{}, fmt.Errorf("directions status %s: %s", decoded.Status, decoded.ErrorMessage)
	}
	if len(decoded.Routes) == 0 {
		return ports.NormalizedRoute{}, fmt.Errorf("directions: no routes: %w", ports.ErrNoRoute)
	}

	r := decoded.Routes[0]
	// Validate the shape so cached payloads always decode.
	if _, err := geo.DecodePolyline(r.OverviewPolyline.Points); err != nil {
		return ports.NormalizedRoute{}, fmt.Errorf("directions polyline: %w: %v", ports.ErrMalformedResponse, err)
	}

	out := ports.NormalizedRoute{
		Provider: g.Name(),
		Polyline: r.OverviewPolyline.Points,
	}
	if r.Fare != nil && r.Fare.Value > 0 {
		out.Fare = &ports.Fare{Currency: r.Fare.Currency, Value: int(r.Fare.Value)}
	}

	for _, leg := range r.Legs {
		out.DistanceMeters += leg.Distance.Value
		out.DurationSeconds += leg.Duration.Value

		if req.Mode != domain.ModeTransit {
			continue
		}
		for _, s := range leg.Steps {
			out.Segments = append(out.Segments, transitStep(s.TravelMode, s.Distance.Value, s.TransitDetails))
		}
	}

	return out, nil
}

func transitStep(travelMode string, meters int, details *transitDetails) ports.TransitSegment {
	seg := ports.TransitSegment{Kind: ports.TransitOther, DistanceMeters: meters}
	if travelMode == "WALKING" {
		seg.Kind = ports.TransitWalk
		return seg
	}
	if details == nil {
		return seg
	}

	line := details.Line
	seg.Line = line.ShortName
	if seg.Line == "" {
		seg.Line = line.Name
	}

	switch line.Vehicle.Type {
	case "SUBWAY", "METRO_RAIL", "HEAVY_RAIL", "COMMUTER_TRAIN", "RAIL", "MONORAIL", "TRAM":
		seg.Kind = ports.TransitSubway
	case "INTERCITY_BUS":
		seg.Kind = ports.TransitBus
		seg.BusType = ports.BusExpress
	case "BUS", "TROLLEYBUS", "SHARE_TAXI":
		seg.Kind = ports.TransitBus
		seg.BusType = ClassifyBusLine(seg.Line)
	}
	return seg
}

func latLngParam(c domain.Coordinate) string {
	return fmt.Sprintf("%.7f,%.7f", c.Lat, c.Lng)
}
