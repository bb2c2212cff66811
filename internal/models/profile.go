// internal/models/profile.go
package models

import "time"

// PreferenceWeights holds the six ranking dimension weights on a 0-10 scale.
type PreferenceWeights struct {
	Price     int `json:"price"`
	Location  int `json:"location"`
	Safety    int `json:"safety"`
	Amenities int `json:"amenities"`
	Noise     int `json:"noise"`
	Light     int `json:"light"`
}

// PreferenceProfile is a user's stored ranking preference profile.
type PreferenceProfile struct {
	UserID    string            `json:"userId"`
	Weights   PreferenceWeights `json:"weights"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// DefaultWeights returns the weights used when a user has no stored profile.
func DefaultWeights() PreferenceWeights {
	return PreferenceWeights{
		Price:     8,
		Location:  7,
		Safety:    9,
		Amenities: 5,
		Noise:     6,
		Light:     4,
	}
}

// Sum returns the total of all six weights.
func (w PreferenceWeights) Sum() int {
	return w.Price + w.Location + w.Safety + w.Amenities + w.Noise + w.Light
}
