package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/roadassist/client/internal/model"
)

// NearbyQuery parameterizes the nearby-shop search.
type NearbyQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64

	// VehicleType narrows results to shops servicing that class of
	// vehicle. Empty means all.
	VehicleType model.VehicleType

	// IncludeUnavailable keeps currently closed shops in the result.
	IncludeUnavailable bool
}

// NearbyShops returns shops within RadiusKm of the given position,
// sorted by distance server-side.
func (c *Client) NearbyShops(ctx context.Context, q NearbyQuery) ([]model.MechanicShop, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%g", q.Latitude))
	params.Set("longitude", fmt.Sprintf("%g", q.Longitude))
	params.Set("radiusKm", fmt.Sprintf("%g", q.RadiusKm))
	if q.VehicleType != "" {
		params.Set("vehicleType", string(q.VehicleType))
	}
	if q.IncludeUnavailable {
		params.Set("includeUnavailable", "true")
	}

	var shops []model.MechanicShop
	if err := c.Get(ctx, "/mechanics/nearby?"+params.Encode(), &shops); err != nil {
		return nil, err
	}
	return shops, nil
}

// Shop fetches a single shop profile.
func (c *Client) Shop(ctx context.Context, shopID string) (*model.MechanicShop, error) {
	var shop model.MechanicShop
	if err := c.Get(ctx, fmt.Sprintf("/mechanics/%s", shopID), &shop); err != nil {
		return nil, err
	}
	return &shop, nil
}
