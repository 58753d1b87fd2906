package geo

import (
	"errors"
	"math"
	"place-route-service/internal/domain"
	"strings"
)

var ErrInvalidPolyline = errors.New("invalid polyline")

const polylineFactor = 1e5

// EncodePolyline encodes points with the standard encoded-polyline algorithm:
// 1e5 fixed point, deltas against the previous point, zig-zag sign bit and
// 5-bit chunks offset by 63. Each point is written latitude first.
func EncodePolyline(points []domain.Coordinate) string {
	var sb strings.Builder
	sb.Grow(len(points) * 8)

	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * polylineFactor))
		lng := int64(math.Round(p.Lng * polylineFactor))

		writeValue(&sb, lat-prevLat)
		writeValue(&sb, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return sb.String()
}

func writeValue(sb *strings.Builder, v int64) {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		sb.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	sb.WriteByte(byte(u + 63))
}

// DecodePolyline reverses EncodePolyline.
func DecodePolyline(s string) ([]domain.Coordinate, error) {
	points := make([]domain.Coordinate, 0, len(s)/4)

	var lat, lng int64
	for i := 0; i < len(s); {
		dLat, next, err := readValue(s, i)
		if err != nil {
			return nil, err
		}
		dLng, next, err := readValue(s, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lng += dLng
		points = append(points, domain.Coordinate{
			Lat: float64(lat) / polylineFactor,
			Lng: float64(lng) / polylineFactor,
		})
	}

	return points, nil
}

func readValue(s string, i int) (int64, int, error) {
	var u uint64
	var shift uint
	for {
		if i >= len(s) {
			return 0, i, ErrInvalidPolyline
		}
		b := int(s[i]) - 63
		i++
		if b < 0 || b > 0x3f || shift > 60 {
			return 0, i, ErrInvalidPolyline
		}
		u |= uint64(b&0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	v := int64(u >> 1)
	if u&1 != 0 {
		v = ^v
	}
	return v, i, nil
}
