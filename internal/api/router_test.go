package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"place-route-service/internal/domain"
	"place-route-service/internal/platform/logger"
	"place-route-service/internal/ports"
	"place-route-service/internal/services"
	"strings"
	"testing"
)

var cityHall = domain.Coordinate{Lat: 37.5665, Lng: 126.9780}

type stubSearcher struct{}

func (stubSearcher) SearchNearby(ctx context.Context, q ports.NearbyQuery) (ports.PlacePage, error) {
	if q.Category == nil {
		// Locator probe: one building 5 m north.
		return ports.PlacePage{Places: []ports.NormalizedPlace{{
			ID: "bldg", Name: "서울시청", Address: "서울 중구 세종대로 110",
			Location: domain.Coordinate{Lat: cityHall.Lat + 0.000045, Lng: cityHall.Lng},
			Types:    []string{"city_hall"},
		}}}, nil
	}
	if *q.Category != domain.CategoryCafe {
		return ports.PlacePage{}, nil
	}
	return ports.PlacePage{Places: []ports.NormalizedPlace{{
		ID: "c1", Name: "카페", Location: domain.Coordinate{Lat: cityHall.Lat + 0.001, Lng: cityHall.Lng},
	}}}, nil
}

func (stubSearcher) SearchText(ctx context.Context, q ports.TextQuery) (ports.PlacePage, error) {
	return ports.PlacePage{Places: []ports.NormalizedPlace{{
		ID: "t1", Name: "시청 카페", Location: domain.Coordinate{Lat: cityHall.Lat + 0.0005, Lng: cityHall.Lng},
	}}}, nil
}

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Supports(domain.TravelMode) bool { return true }

func (stubProvider) Route(ctx context.Context, req ports.RouteRequest) (ports.NormalizedRoute, error) {
	return ports.NormalizedRoute{DistanceMeters: 1000, DurationSeconds: 600, Fare: &ports.Fare{Currency: "KRW", Value: 1400}}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.Discard()
	locator := services.NewLocator(stubSearcher{}, log)
	places := services.NewPlaceAggregator(stubSearcher{}, log)
	router := services.NewDirectionsRouter([]ports.DirectionsProvider{stubProvider{}}, nil, nil, log)

	srv := httptest.NewServer(NewRouter(Deps{
		Locator:     locator,
		Places:      places,
		Recommender: services.NewRecommender(locator, places),
		Router:      router,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthAndRequestID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q, want echoed", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := post(t, srv, "/health", "{}")
	if resp.StatusCode != http.StatusMethodNotAllowed || resp.Header.Get("Allow") != http.MethodGet {
		t.Fatalf("status = %d allow = %q", resp.StatusCode, resp.Header.Get("Allow"))
	}
}

func TestLocate(t *testing.T) {
	srv := newTestServer(t)

	resp, out := post(t, srv, "/locate", `{"location":{"lat":37.5665,"lng":126.978},"gps_accuracy_m":20}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body = %v", resp.StatusCode, out)
	}
	if out["indoor"] != true || out["building_name"] != "서울시청" {
		t.Fatalf("body = %v", out)
	}

	resp, _ = post(t, srv, "/locate", `{"gps_accuracy_m":20}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing location status = %d", resp.StatusCode)
	}

	resp, _ = post(t, srv, "/locate", `{"location":{"lat":37.5,"lng":127},"extra":1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d", resp.StatusCode)
	}
}

func TestListPlaces(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/places?lat=37.5665&lng=126.978&category=cafe")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out struct {
		Places []struct {
			ID             string `json:"id"`
			DistanceMeters int    `json:"distance_m"`
		} `json:"places"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Places) != 1 || out.Places[0].ID != "c1" {
		t.Fatalf("places = %+v", out.Places)
	}
	if d := out.Places[0].DistanceMeters; d < 110 || d > 112 {
		t.Fatalf("distance = %d, want ~111", d)
	}

	for _, q := range []string{"lat=abc&lng=1", "lat=37&lng=127&category=zoo", "lat=37&lng=127&radius=-1", "lat=95&lng=127"} {
		resp, err := http.Get(srv.URL + "/places?" + q)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestRecommendations(t *testing.T) {
	srv := newTestServer(t)

	resp, out := post(t, srv, "/recommendations",
		`{"location":{"lat":37.5665,"lng":126.978},"categories":["cafe"],"staying_duration_s":300}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body = %v", resp.StatusCode, out)
	}
	if out["scope"] != "building" {
		t.Fatalf("scope = %v, want building", out["scope"])
	}
	places, _ := out["places"].([]any)
	if len(places) != 1 {
		t.Fatalf("places = %v", out["places"])
	}
}

func TestRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, out := post(t, srv, "/routes",
		`{"origin":{"lat":37.5665,"lng":126.978},"destination":{"lat":37.5133,"lng":127.1028},"mode":"transit"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body = %v", resp.StatusCode, out)
	}
	if out["provider"] != "stub" || out["fare_source"] != "provider" || out["fare"] != float64(1400) {
		t.Fatalf("body = %v", out)
	}

	resp, _ = post(t, srv, "/routes", `{"origin":{"lat":37.5665,"lng":126.978},"destination":{"lat":37.5,"lng":127},"mode":"flying"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad mode status = %d", resp.StatusCode)
	}
}

func TestCourseOptimizesAndTotals(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"start":{"lat":37.5665,"lng":126.978},
		"stops":[
			{"name":"far","location":{"lat":37.60,"lng":126.978}},
			{"name":"near","location":{"lat":37.567,"lng":126.978}},
			{"name":"mid","location":{"lat":37.57,"lng":126.978}}
		],
		"optimize":true
	}`
	resp, err := http.Post(srv.URL+"/courses", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out struct {
		Stops []struct {
			Name string `json:"name"`
		} `json:"stops"`
		Legs                []json.RawMessage `json:"legs"`
		TotalDistanceMeters int               `json:"total_distance_m"`
		TotalFare           int               `json:"total_fare"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(out.Stops) != 3 || out.Stops[0].Name != "near" || out.Stops[1].Name != "mid" || out.Stops[2].Name != "far" {
		t.Fatalf("stops = %+v", out.Stops)
	}
	if len(out.Legs) != 3 || out.TotalDistanceMeters != 3000 || out.TotalFare != 4200 {
		t.Fatalf("legs = %d distance = %d fare = %d", len(out.Legs), out.TotalDistanceMeters, out.TotalFare)
	}
}

func TestCourseRejectsEmptyStops(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := post(t, srv, "/courses", `{"stops":[]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
