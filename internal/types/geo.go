package types

// GeoLocation is an opaque geographic point produced by the geocoding
// frontend. The service never validates coordinate ranges or calls a
// geocoder itself; lat/lon/address/place id arrive as-is and are treated
// as immutable once attached to an item.
type GeoLocation struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Address   string  `json:"address"`
	PlaceID   string  `json:"place_id,omitempty"`
}
