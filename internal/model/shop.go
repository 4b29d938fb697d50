package model

// MechanicShop is a repair provider's shop profile.
type MechanicShop struct {
	ID       string   `json:"id"`
	UserID   string   `json:"userId,omitempty"`
	ShopName string   `json:"shopName"`
	Phone    string   `json:"phone,omitempty"`
	Address  string   `json:"address,omitempty"`
	Location GeoPoint `json:"location"`

	// ShopTypes lists the service categories offered
	// (e.g. CAR_REPAIR, BIKE_REPAIR, PUNCTURE).
	ShopTypes []string `json:"shopTypes,omitempty"`

	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`

	Rating       float64 `json:"rating"`
	TotalRatings int     `json:"totalRatings"`
	IsAvailable  bool    `json:"isAvailable"`

	ServicesOffered string `json:"servicesOffered,omitempty"`

	// DistanceKm is computed client-side from the latest device fix.
	// Not part of the server payload.
	DistanceKm float64 `json:"distance,omitempty"`
}
