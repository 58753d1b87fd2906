package domain

import (
	"fmt"
	"strings"
)

// Category is the closed set of merchant types the service searches for.
type Category string

const (
	CategoryCafe        Category = "cafe"
	CategoryRestaurant  Category = "restaurant"
	CategoryMart        Category = "mart"
	CategoryConvenience Category = "convenience"
	CategoryBakery      Category = "bakery"
	CategoryPharmacy    Category = "pharmacy"
	CategoryMovie       Category = "movie"
	CategoryBeauty      Category = "beauty"
	CategoryGasStation  Category = "gas_station"
)

// AllCategories is the fixed fan-out set used by the all-category search.
var AllCategories = []Category{
	CategoryCafe,
	CategoryRestaurant,
	CategoryMart,
	CategoryConvenience,
	CategoryBakery,
	CategoryPharmacy,
	CategoryMovie,
	CategoryBeauty,
	CategoryGasStation,
}

var categoryKeywords = map[Category]string{
	CategoryCafe:        "카페",
	CategoryRestaurant:  "음식점",
	CategoryMart:        "마트",
	CategoryConvenience: "편의점",
	CategoryBakery:      "베이커리",
	CategoryPharmacy:    "약국",
	CategoryMovie:       "영화관",
	CategoryBeauty:      "뷰티",
	CategoryGasStation:  "주유소",
}

// ParseCategory accepts the lowercase category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryKeywords[c]; !ok {
		return "", fmt.Errorf("parse category: unknown category %q", s)
	}
	return c, nil
}

// Keyword returns the local-language search term used in text queries.
func (c Category) Keyword() string { return categoryKeywords[c] }

// A merchant returned by place search, annotated with its distance from the query point.
type Place struct {
	ID             string     `json:"id,omitempty"`
	Name           string     `json:"name"`
	Category       Category   `json:"category,omitempty"`
	Address        string     `json:"address"`
	Location       Coordinate `json:"location"`
	DistanceMeters float64    `json:"distance_m"`
	Types          []string   `json:"types,omitempty"`
}

// Key is the deduplication identity: the provider id when present,
// otherwise the name plus the coordinate key.
func (p Place) Key() string {
	if p.ID != "" {
		return "id:" + p.ID
	}
	return "np:" + strings.TrimSpace(p.Name) + "@" + p.Location.Key()
}
