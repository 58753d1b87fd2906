package geo

import (
	"math"
	"place-route-service/internal/domain"
	"testing"
)

var (
	seoulCityHall = domain.Coordinate{Lat: 37.5665, Lng: 126.9780}
	jamsil        = domain.Coordinate{Lat: 37.5133, Lng: 127.1028}
)

func TestDistanceSamePointIsZero(t *testing.T) {
	if d := Distance(seoulCityHall, seoulCityHall); d != 0 {
		t.Fatalf("distance(a, a) = %v, want 0", d)
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	ab := Distance(seoulCityHall, jamsil)
	ba := Distance(jamsil, seoulCityHall)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestDistanceCityHallToJamsil(t *testing.T) {
	// Straight-line distance is about 12.5 km; road distance is longer.
	d := Distance(seoulCityHall, jamsil)
	if d < 12000 || d > 14500 {
		t.Fatalf("distance = %.0f m, want within [12000, 14500]", d)
	}
}

func TestDistanceOneDegreeOfLatitude(t *testing.T) {
	d := Distance(domain.Coordinate{Lat: 0, Lng: 0}, domain.Coordinate{Lat: 1, Lng: 0})
	want := EarthRadiusMeters * math.Pi / 180
	if math.Abs(d-want) > 0.5 {
		t.Fatalf("distance = %v, want %v", d, want)
	}
}

func TestQuantizeKey(t *testing.T) {
	tests := []struct {
		in   domain.Coordinate
		want string
	}{
		{domain.Coordinate{Lat: 37.56654, Lng: 126.97796}, "37.5665,126.9780"},
		{domain.Coordinate{Lat: 37.56656, Lng: 126.97804}, "37.5666,126.9780"},
		{domain.Coordinate{Lat: -0.00001, Lng: 0}, "0.0000,0.0000"},
	}

	for _, tc := range tests {
		if got := QuantizeKey(tc.in); got != tc.want {
			t.Errorf("QuantizeKey(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuantizeKeyMatchesPlaceKey(t *testing.T) {
	c := domain.Coordinate{Lat: 37.513349, Lng: 127.102751}
	p := domain.Place{Name: "롯데마트", Location: c}

	if got, want := p.Key(), "np:롯데마트@"+QuantizeKey(c); got != want {
		t.Fatalf("place key = %q, want %q", got, want)
	}
}
