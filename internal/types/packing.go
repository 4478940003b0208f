package types

// PackingRequest describes the trip context handed to the packing
// assistant. Activities are free-form labels ("hiking", "beach").
type PackingRequest struct {
	Destination  string   `json:"destination"`
	DurationDays int      `json:"duration_days"`
	Season       string   `json:"season,omitempty"`
	Activities   []string `json:"activities,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// PackingItem is one suggested item with a rough quantity.
type PackingItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
	Reason   string `json:"reason,omitempty"`
}

// PackingList is the structured assistant response.
type PackingList struct {
	Destination string        `json:"destination"`
	Items       []PackingItem `json:"items"`
	Tips        []string      `json:"tips,omitempty"`
}
