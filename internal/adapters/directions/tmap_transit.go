package directions

import (
	"bytes"
	"context"
	"encoding/json"
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
)

// TmapTransit implements ports.DirectionsProvider for public transit.
// The transit API is rate limited much harder than the others, so its
// client retries 429s and timeouts.
type TmapTransit struct {
	client  *httpx.Client
	appKey  string
	baseURL string
}

func NewTmapTransit(appKey string, timeout time.Duration) (*TmapTransit, error) {
	if strings.TrimSpace(appKey) == "" {
		return nil, fmt.Errorf("tmap transit: %w", config.ErrMissingCredential)
	}

	return &TmapTransit{
		client:  httpx.NewClient(timeout, httpx.TransitRetryPolicy()),
		appKey:  appKey,
		baseURL: tmapBaseURL,
	}, nil
}

func (t *TmapTransit) Name() string { return "tmap_transit" }

func (t *TmapTransit) Supports(mode domain.TravelMode) bool {
	return mode == domain.ModeTransit
}

type transitRequest struct {
	StartX string `json:"startX"`
	StartY string `json:"startY"`
	EndX   string `json:"endX"`
	EndY   string `json:"endY"`
	Count  int    `json:"count"`
	Lang   int    `json:"lang"`
	Format string `json:"format"`
}

type transitShape struct {
	Linestring string `json:"linestring"`
}

type transitResponse struct {
	tmapResultError
	MetaData *struct {
		Plan struct {
			Itineraries []struct {
				TotalTime     int `json:"totalTime"`
				TotalDistance int `json:"totalDistance"`
				Fare          *struct {
					Regular struct {
						TotalFare int `json:"totalFare"`
					} `json:"regular"`
				} `json:"fare"`
				Legs []struct {
					Mode      string         `json:"mode"`
					Distance  int            `json:"distance"`
					Route     string         `json:"route"`
					PassShape *transitShape  `json:"passShape"`
					Steps     []transitShape `json:"steps"`
				} `json:"legs"`
			} `json:"itineraries"`
		} `json:"plan"`
	} `json:"metaData"`
}

func (t *TmapTransit) Route(ctx context.Context, req ports.RouteRequest) (_ ports.NormalizedRoute, err error) {
	ctx, done := obs.Start(ctx, "tmap.Transit")
	defer done(&err)

	start := time.Now()
	defer func() { metrics.ObserveProvider(t.Name(), outcome(err), start) }()

	payload, err := json.Marshal(transitRequest{
		StartX: formatCoord(req.Origin.Lng),
		StartY: formatCoord(req.Origin.Lat),
		EndX:   formatCoord(req.Destination.Lng),
		EndY:   formatCoord(req.Destination.Lat),
		Count:  1,
		Format: "json",
	})
	if err != nil {
		return ports.NormalizedRoute{}, fmt.Errorf("marshal transit request: %w", err)
	}

	endpoint := t.baseURL + "/transit/routes"
	headers := map[string]string{"appKey": t.appKey}

	resp, err := t.client.Do(ctx, func() (*http.Request, error) {
		return httpx.NewRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), headers)
	})
	if err != nil {
		return ports.NormalizedRoute{}, fmt.Errorf("transit request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded transitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.NormalizedRoute{}, fmt.Errorf("decode transit response: %w: %v", ports.ErrMalformedResponse, err)
	}
	if err := decoded.err(); err != nil {
		return ports.NormalizedRoute{}, err
	}
	if decoded.MetaData == nil || len(decoded.MetaData.Plan.Itineraries) == 0 {
		return ports.NormalizedRoute{}, fmt.Errorf("transit: no itineraries: %w", ports.ErrNoRoute)
	}

	it := decoded.MetaData.Plan.Itineraries[0]
	out := ports.NormalizedRoute{
		Provider:        t.Name(),
		DistanceMeters:  it.TotalDistance,
		DurationSeconds: it.TotalTime,
		Segments:        make([]ports.TransitSegment, 0, len(it.Legs)),
	}
	if it.Fare != nil && it.Fare.Regular.TotalFare > 0 {
		out.Fare = &ports.Fare{Currency: "KRW", Value: it.Fare.Regular.TotalFare}
	}

	var points []domain.Coordinate
	for _, leg := range it.Legs {
		seg := ports.TransitSegment{DistanceMeters: leg.Distance, Line: leg.Route}
		switch leg.Mode {
		case "WALK":
			seg.Kind = ports.TransitWalk
		case "BUS":
			seg.Kind = ports.TransitBus
			seg.BusType = ClassifyBusLine(leg.Route)
		case "SUBWAY":
			seg.Kind = ports.TransitSubway
		default:
			seg.Kind = ports.TransitOther
		}
		out.Segments = append(out.Segments, seg)

		// Rides carry passShape, walks carry per-step shapes.
		shapes := leg.Steps
		if leg.PassShape != nil {
			shapes = []transitShape{*leg.PassShape}
		}
		for _, s := range shapes {
			pts, err := parseLineString(s.Linestring)
			if err != nil {
				return ports.NormalizedRoute{}, err
			}
			points = appendPath(points, pts)
		}
	}

	out.Polyline = geo.EncodePolyline(points)
	return out, nil
}
