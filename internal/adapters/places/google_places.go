package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"place-route-service/internal/config"
	"place-route-service/internal/domain"
	"place-route-service/internal/platform/httpx"
	"place-route-service/internal/platform/metrics"
	"place-route-service/internal/platform/obs"
	"place-route-service/internal/ports"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

const (
	providerName = "google_places"
	// Places API caps a single page at 20 results.
	maxPageSize = 20
	fieldMask   = "places.id,places.displayName,places.formattedAddress,places.location,places.types,nextPageToken"
)

var categoryTypes = map[domain.Category][]string{
	domain.CategoryCafe:        {"cafe", "coffee_shop"},
	domain.CategoryRestaurant:  {"restaurant"},
	domain.CategoryMart:        {"supermarket", "grocery_store"},
	domain.CategoryConvenience: {"convenience_store"},
	domain.CategoryBakery:      {"bakery"},
	domain.CategoryPharmacy:    {"pharmacy", "drugstore"},
	domain.CategoryMovie:       {"movie_theater"},
	domain.CategoryBeauty:      {"beauty_salon", "hair_care"},
	domain.CategoryGasStation:  {"gas_station"},
}

// GoogleTypes returns the Places API type tags a category is searched with.
func GoogleTypes(c domain.Category) []string {
	return categoryTypes[c]
}

// CategoryOf returns the first of among whose type tags intersect types,
// or "" when none does. An empty among checks every category.
func CategoryOf(types []string, among []domain.Category) domain.Category {
	if len(among) == 0 {
		among = domain.AllCategories
	}
	for _, c := range among {
		for _, want := range categoryTypes[c] {
			for _, t := range types {
				if t == want {
					return c
				}
			}
		}
	}
	return ""
}

// GooglePlaces implements ports.PlaceSearcher with the Places API (New).
type GooglePlaces struct {
	client  *httpx.Client
	apiKey  string
	baseURL string
}

func NewGooglePlaces(apiKey string, timeout time.Duration) (*GooglePlaces, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("google places: %w", config.ErrMissingCredential)
	}

	return &GooglePlaces{
		client:  httpx.NewClient(timeout, httpx.SingleAttempt()),
		apiKey:  apiKey,
		baseURL: "https://places.googleapis.com",
	}, nil
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type area struct {
	Circle circle `json:"circle"`
}

type nearbyRequest struct {
	IncludedTypes       []string `json:"includedTypes,omitempty"`
	MaxResultCount      int      `json:"maxResultCount"`
	RankPreference      string   `json:"rankPreference"`
	LanguageCode        string   `json:"languageCode"`
	LocationRestriction area     `json:"locationRestriction"`
}

type textRequest struct {
	TextQuery      string `json:"textQuery"`
	PageSize       int    `json:"pageSize"`
	LanguageCode   string `json:"languageCode"`
	LocationBias   area   `json:"locationBias"`
	RankPreference string `json:"rankPreference"`
	PageToken      string `json:"pageToken,omitempty"`
}

type placesResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string   `json:"formattedAddress"`
		Location         *latLng  `json:"location"`
		Types            []string `json:"types"`
	} `json:"places"`
	NextPageToken string `json:"nextPageToken"`
}

func pageSize(n int) int {
	if n <= 0 || n > maxPageSize {
		return maxPageSize
	}
	return n
}

func (g *GooglePlaces) SearchNearby(ctx context.Context, q ports.NearbyQuery) (_ ports.PlacePage, err error) {
	ctx, done := obs.Start(ctx, "google.places.SearchNearby",
		attribute.Float64("radius_m", q.RadiusMeters),
	)
	defer done(&err)

	if q.RadiusMeters <= 0 {
		return ports.PlacePage{}, errors.New("search nearby: radius must be positive")
	}

	body := nearbyRequest{
		MaxResultCount: pageSize(q.MaxResults),
		RankPreference: "DISTANCE",
		LanguageCode:   "ko",
		LocationRestriction: area{Circle: circle{
			Center: latLng{Latitude: q.Location.Lat, Longitude: q.Location.Lng},
			Radius: q.RadiusMeters,
		}},
	}
	if q.Category != nil {
		types := GoogleTypes(*q.Category)
		if len(types) == 0 {
			return ports.PlacePage{}, fmt.Errorf("search nearby: no place types for category %q", *q.Category)
		}
		body.IncludedTypes = types
	}

	return g.post(ctx, "/v1/places:searchNearby", body)
}

func (g *GooglePlaces) SearchText(ctx context.Context, q ports.TextQuery) (_ ports.PlacePage, err error) {
	ctx, done := obs.Start(ctx, "google.places.SearchText",
		attribute.Float64("bias_radius_m", q.BiasRadiusMeters),
	)
	defer done(&err)

	if strings.TrimSpace(q.Text) == "" {
		return ports.PlacePage{}, errors.New("search text: query must be non-empty")
	}

	body := textRequest{
		TextQuery:      q.Text,
		PageSize:       pageSize(q.MaxResults),
		LanguageCode:   "ko",
		RankPreference: "RELEVANCE",
		PageToken:      q.PageToken,
		LocationBias: area{Circle: circle{
			Center: latLng{Latitude: q.BiasCenter.Lat, Longitude: q.BiasCenter.Lng},
			Radius: q.BiasRadiusMeters,
		}},
	}

	page, err := g.post(ctx, "/v1/places:searchText", body)
	if err != nil {
		return ports.PlacePage{}, err
	}
	for i := range page.Places {
		page.Places[i].Category = CategoryOf(page.Places[i].Types, q.Categories)
	}
	return page, nil
}

func (g *GooglePlaces) post(ctx context.Context, path string, body any) (_ ports.PlacePage, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ObserveProvider(providerName, outcome, start)
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return ports.PlacePage{}, fmt.Errorf("marshal places request: %w", err)
	}

	endpoint := g.baseURL + path
	headers := map[string]string{
		"X-Goog-Api-Key":   g.apiKey,
		"X-Goog-FieldMask": fieldMask,
	}

	resp, err := g.client.Do(ctx, func() (*http.Request, error) {
		return httpx.NewRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), headers)
	})
	if err != nil {
		return ports.PlacePage{}, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.PlacePage{}, fmt.Errorf("decode places response: %w: %v", ports.ErrMalformedResponse, err)
	}

	out := ports.PlacePage{
		Places:        make([]ports.NormalizedPlace, 0, len(decoded.Places)),
		NextPageToken: decoded.NextPageToken,
	}
	for _, p := range decoded.Places {
		// A place without a location cannot be ranked by distance.
		if p.Location == nil {
			continue
		}
		out.Places = append(out.Places, ports.NormalizedPlace{
			ID:       p.ID,
			Name:     p.DisplayName.Text,
			Address:  p.FormattedAddress,
			Location: domain.Coordinate{Lat: p.Location.Latitude, Lng: p.Location.Longitude},
			Types:    p.Types,
		})
	}

	return out, nil
}
