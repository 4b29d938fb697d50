// Package geo provides distance math and the device position watcher.
package geo

import (
	"math"
	"sort"

	"github.com/roadassist/client/internal/model"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two positions.
func DistanceKm(a, b model.Position) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// FilterByRadius computes each shop's distance from origin, keeps the
// ones within radiusKm (boundary included), and returns them nearest
// first. Shops without a valid location are dropped.
func FilterByRadius(shops []model.MechanicShop, origin model.Position, radiusKm float64) []model.MechanicShop {
	out := make([]model.MechanicShop, 0, len(shops))
	for _, shop := range shops {
		if !shop.Location.Valid() {
			continue
		}
		d := DistanceKm(origin, shop.Location.Position())
		if d <= radiusKm {
			shop.DistanceKm = d
			out = append(out, shop)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}
