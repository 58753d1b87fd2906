package places

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"place-route-service/internal/config"
	"place-route-service/internal/domain"
	"place-route-service/internal/platform/httpx"
	"place-route-service/internal/ports"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPlaces(t *testing.T, h http.HandlerFunc) *GooglePlaces {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g, err := NewGooglePlaces("test-key", 2*time.Second)
	if err != nil {
		t.Fatalf("new google places: %v", err)
	}
	g.baseURL = srv.URL
	return g
}

func TestNewGooglePlacesRequiresKey(t *testing.T) {
	if _, err := NewGooglePlaces("  ", time.Second); !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
}

func TestSearchNearbySendsCategoryTypesAndParsesPlaces(t *testing.T) {
	var gotBody nearbyRequest
	g := newTestPlaces(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/places:searchNearby" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"places":[
			{"id":"p1","displayName":{"text":"스타벅스 시청점"},"formattedAddress":"서울 중구",
			 "location":{"latitude":37.5663,"longitude":126.9779},"types":["cafe","food"]},
			{"id":"p2","displayName":{"text":"no location"}}
		]}`))
	})

	cafe := domain.CategoryCafe
	page, err := g.SearchNearby(context.Background(), ports.NearbyQuery{
		Location:     domain.Coordinate{Lat: 37.5665, Lng: 126.9780},
		RadiusMeters: 500,
		Category:     &cafe,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(gotBody.IncludedTypes, []string{"cafe", "coffee_shop"}) {
		t.Errorf("includedTypes = %v", gotBody.IncludedTypes)
	}
	if gotBody.LocationRestriction.Circle.Radius != 500 {
		t.Errorf("radius = %v, want 500", gotBody.LocationRestriction.Circle.Radius)
	}
	if gotBody.MaxResultCount != 20 {
		t.Errorf("maxResultCount = %d, want 20", gotBody.MaxResultCount)
	}

	if len(page.Places) != 1 {
		t.Fatalf("places = %d, want 1", len(page.Places))
	}
	p := page.Places[0]
	if p.ID != "p1" || p.Name != "스타벅스 시청점" || p.Address != "서울 중구" {
		t.Errorf("unexpected place %+v", p)
	}
	if p.Location.Lat != 37.5663 || p.Location.Lng != 126.9779 {
		t.Errorf("location = %v", p.Location)
	}
}

func TestSearchTextSendsBiasAndPageToken(t *testing.T) {
	var gotBody textRequest
	g := newTestPlaces(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"places":[],"nextPageToken":"next"}`))
	})

	page, err := g.SearchText(context.Background(), ports.TextQuery{
		Text:             "코엑스 카페",
		BiasCenter:       domain.Coordinate{Lat: 37.5116, Lng: 127.0594},
		BiasRadiusMeters: 500,
		PageToken:        "tok",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody.TextQuery != "코엑스 카페" || gotBody.PageToken != "tok" {
		t.Errorf("unexpected body %+v", gotBody)
	}
	if gotBody.LocationBias.Circle.Radius != 500 {
		t.Errorf("bias radius = %v, want 500", gotBody.LocationBias.Circle.Radius)
	}
	if page.NextPageToken != "next" || len(page.Places) != 0 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestSearchTextLabelsRequestedCategories(t *testing.T) {
	g := newTestPlaces(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"places":[
			{"id":"a","displayName":{"text":"이마트"},"location":{"latitude":37.5116,"longitude":127.0594},"types":["grocery_store","store"]},
			{"id":"b","displayName":{"text":"올리브영"},"location":{"latitude":37.5117,"longitude":127.0595},"types":["drugstore"]},
			{"id":"c","displayName":{"text":"메가박스"},"location":{"latitude":37.5118,"longitude":127.0596},"types":["movie_theater"]}
		]}`))
	})

	page, err := g.SearchText(context.Background(), ports.TextQuery{
		Text:       "코엑스몰",
		Categories: []domain.Category{domain.CategoryMart, domain.CategoryPharmacy},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []domain.Category
	for _, p := range page.Places {
		got = append(got, p.Category)
	}
	want := []domain.Category{domain.CategoryMart, domain.CategoryPharmacy, ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("categories = %q, want %q", got, want)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		types []string
		among []domain.Category
		want  domain.Category
	}{
		{[]string{"coffee_shop", "food"}, nil, domain.CategoryCafe},
		{[]string{"movie_theater"}, nil, domain.CategoryMovie},
		{[]string{"movie_theater"}, []domain.Category{domain.CategoryCafe}, ""},
		{[]string{"bakery", "cafe"}, []domain.Category{domain.CategoryBakery, domain.CategoryCafe}, domain.CategoryBakery},
		{nil, nil, ""},
	}

	for _, tc := range tests {
		if got := CategoryOf(tc.types, tc.among); got != tc.want {
			t.Errorf("CategoryOf(%v, %v) = %q, want %q", tc.types, tc.among, got, tc.want)
		}
	}
}

func TestSearchNearbyProviderErrors(t *testing.T) {
	g := newTestPlaces(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusForbidden)
	})

	_, err := g.SearchNearby(context.Background(), ports.NearbyQuery{RadiusMeters: 30})
	var se *httpx.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("err = %v, want StatusError 403", err)
	}
}

func TestSearchNearbyMalformedBody(t *testing.T) {
	g := newTestPlaces(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})

	_, err := g.SearchNearby(context.Background(), ports.NearbyQuery{RadiusMeters: 30})
	if !errors.Is(err, ports.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

type countingSearcher struct {
	calls atomic.Int32
	err   error
}

func (c *countingSearcher) SearchNearby(ctx context.Context, q ports.NearbyQuery) (ports.PlacePage, error) {
	c.calls.Add(1)
	if c.err != nil {
		return ports.PlacePage{}, c.err
	}
	return ports.PlacePage{Places: []ports.NormalizedPlace{{ID: "x"}}}, nil
}

func (c *countingSearcher) SearchText(ctx context.Context, q ports.TextQuery) (ports.PlacePage, error) {
	c.calls.Add(1)
	return ports.PlacePage{}, c.err
}

func TestMemoSearcherReusesNearbyResults(t *testing.T) {
	inner := &countingSearcher{}
	m := NewMemoSearcher(inner, time.Minute)

	q := ports.NearbyQuery{Location: domain.Coordinate{Lat: 37.56654, Lng: 126.97796}, RadiusMeters: 30}
	for i := 0; i < 3; i++ {
		page, err := m.SearchNearby(context.Background(), q)
		if err != nil || len(page.Places) != 1 {
			t.Fatalf("call %d: page %+v err %v", i, page, err)
		}
	}
	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("inner calls = %d, want 1", got)
	}

	q.RadiusMeters = 500
	if _, err := m.SearchNearby(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("inner calls = %d, want 2 after radius change", got)
	}
}

func TestMemoSearcherDoesNotCacheErrors(t *testing.T) {
	inner := &countingSearcher{err: errors.New("down")}
	m := NewMemoSearcher(inner, time.Minute)

	q := ports.NearbyQuery{RadiusMeters: 30}
	for i := 0; i < 2; i++ {
		if _, err := m.SearchNearby(context.Background(), q); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("inner calls = %d, want 2", got)
	}
}
