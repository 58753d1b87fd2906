package directions

import (
	"place-route-service/internal/ports"
	"strings"
	"unicode"
)

// ClassifyBusLine maps a Seoul bus line label to its fare class.
// TMAP labels look like "간선:470" or "마을:종로09"; Google returns the bare
// short name ("N13", "M6117").
func ClassifyBusLine(label string) ports.BusType {
	prefix, number := "", strings.TrimSpace(label)
	if i := strings.Index(number, ":"); i >= 0 {
		prefix, number = number[:i], strings.TrimSpace(number[i+1:])
	}

	switch {
	case strings.Contains(prefix, "심야") || lettered(number, 'N'):
		return ports.BusNight
	case strings.Contains(prefix, "마을"):
		return ports.BusLocal
	case strings.Contains(prefix, "광역"),
		strings.Contains(prefix, "직행"),
		strings.Contains(prefix, "공항"),
		lettered(number, 'M'):
		return ports.BusExpress
	default:
		return ports.BusRegular
	}
}

// lettered reports whether s is letter followed by a digit, as in "N13".
func lettered(s string, letter rune) bool {
	r := []rune(s)
	return len(r) >= 2 && unicode.ToUpper(r[0]) == letter && unicode.IsDigit(r[1])
}
