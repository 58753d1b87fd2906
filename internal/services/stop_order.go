package services

import (
	"place-route-service/internal/domain"
	"place-route-service/internal/geo"
)

// Order stops with a greedy nearest-neighbour walk from start.
//
// Each step moves to the closest remaining place by straight-line distance.
// There is no backtracking or 2-opt pass, so the tour is not optimal.
// Equal distances keep input order. Sets of two or fewer are returned as given.
// The input slice is never modified.
func OrderStops(places []domain.Place, start domain.Coordinate) []domain.Place {
	out := make([]domain.Place, 0, len(places))
	if len(places) <= 2 {
		return append(out, places...)
	}

	remaining := make([]domain.Place, len(places))
	copy(remaining, places)

	current := start
	for len(remaining) > 0 {
		best := 0
		bestDist := geo.Distance(current, remaining[0].Location)

		for i := 1; i < len(remaining); i++ {
			// Strict comparison keeps the first occurrence on ties.
			if d := geo.Distance(current, remaining[i].Location); d < bestDist {
				best, bestDist = i, d
			}
		}

		next := remaining[best]
		out = append(out, next)
		current = next.Location
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return out
}
