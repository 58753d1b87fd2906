package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
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

// TmapRoutes implements ports.DirectionsProvider for walking and driving
// with the TMAP pedestrian and car route APIs.
type TmapRoutes struct {
	client  *httpx.Client
	appKey  string
	baseURL string
}

func NewTmapRoutes(appKey string, timeout time.Duration) (*TmapRoutes, error) {
	if strings.TrimSpace(appKey) == "" {
		return nil, fmt.Errorf("tmap routes: %w", config.ErrMissingCredential)
	}

	return &TmapRoutes{
		client:  httpx.NewClient(timeout, httpx.SingleAttempt()),
		appKey:  appKey,
		baseURL: tmapBaseURL,
	}, nil
}

func (t *TmapRoutes) Name() string { return "tmap" }

func (t *TmapRoutes) Supports(mode domain.TravelMode) bool {
	return mode == domain.ModeWalking || mode == domain.ModeDriving
}

type tmapRouteRequest struct {
	StartX    string `json:"startX"`
	StartY    string `json:"startY"`
	EndX      string `json:"endX"`
	EndY      string `json:"endY"`
	StartName string `json:"startName,omitempty"`
	EndName   string `json:"endName,omitempty"`
	ReqCoord  string `json:"reqCoordType"`
	ResCoord  string `json:"resCoordType"`
}

type tmapFeatureCollection struct {
	tmapResultError
	Features []struct {
		Geometry struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			TotalDistance *int `json:"totalDistance"`
			TotalTime     *int `json:"totalTime"`
			TotalFare     *int `json:"totalFare"`
		} `json:"properties"`
	} `json:"features"`
}

func (t *TmapRoutes) Route(ctx context.Context, req ports.RouteRequest) (_ ports.NormalizedRoute, err error) {
	ctx, done := obs.Start(ctx, "tmap.Route",
		attribute.String("mode", string(req.Mode)),
	)
	defer done(&err)

	start := time.Now()
	defer func() { metrics.ObserveProvider(t.Name(), outcome(err), start) }()

	var path string
	switch req.Mode {
	case domain.ModeWalking:
		path = "/tmap/routes/pedestrian?version=1"
	case domain.ModeDriving:
		path = "/tmap/routes?version=1"
	default:
		return ports.NormalizedRoute{}, fmt.Errorf("tmap route: unsupported mode %q", req.Mode)
	}

	body := tmapRouteRequest{
		StartX:   formatCoord(req.Origin.Lng),
		StartY:   formatCoord(req.Origin.Lat),
		EndX:     formatCoord(req.Destination.Lng),
		EndY:     formatCoord(req.Destination.Lat),
		ReqCoord: "WGS84GEO",
		ResCoord: "WGS84GEO",
	}
	// The pedestrian API rejects requests without names.
	if req.Mode == domain.ModeWalking {
		body.StartName, body.EndName = "origin", "destination"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return ports.NormalizedRoute{}, fmt.Errorf("marshal tmap request: %w", err)
	}

	endpoint := t.baseURL + path
	headers := map[string]string{"appKey": t.appKey}

	resp, err := t.client.Do(ctx, func() (*http.Request, error) {
		return httpx.NewRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), headers)
	})
	if err != nil {
		return ports.NormalizedRoute{}, fmt.Errorf("tmap route request failed: %w", err)
	}
	defer resp.Body.Close()

	var fc tmapFeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return ports.NormalizedRoute{}, fmt.Errorf("decode tmap route: %w: %v", ports.ErrMalformedResponse, err)
	}
	if err := fc.err(); err != nil {
		return ports.NormalizedRoute{}, err
	}
	if len(fc.Features) == 0 {
		return ports.NormalizedRoute{}, fmt.Errorf("tmap route: empty feature collection: %w", ports.ErrNoRoute)
	}

	out := ports.NormalizedRoute{Provider: t.Name()}
	var points []domain.Coordinate

	for i, f := range fc.Features {
		// Totals live on the first feature only.
		if i == 0 {
			p := f.Properties
			if p.TotalDistance == nil || p.TotalTime == nil {
				return ports.NormalizedRoute{}, fmt.Errorf("tmap route: missing totals: %w", ports.ErrMalformedResponse)
			}
			out.DistanceMeters = *p.TotalDistance
			out.DurationSeconds = *p.TotalTime
			// Car routes report tolls here.
			if p.TotalFare != nil && *p.TotalFare > 0 {
				out.Fare = &ports.Fare{Currency: "KRW", Value: *p.TotalFare}
			}
		}

		if f.Geometry.Type != "LineString" {
			continue
		}
		var coords [][]float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil {
			return ports.NormalizedRoute{}, fmt.Errorf("decode tmap linestring: %w: %v", ports.ErrMalformedResponse, err)
		}
		seg := make([]domain.Coordinate, 0, len(coords))
		for _, pt := range coords {
			c, err := fromGeoJSON(pt)
			if err != nil {
				return ports.NormalizedRoute{}, err
			}
			seg = append(seg, c)
		}
		points = appendPath(points, seg)
	}

	out.Polyline = geo.EncodePolyline(points)
	return out, nil
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.7f", v)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ports.ErrNoRoute):
		return "no_route"
	default:
		return "error"
	}
}
