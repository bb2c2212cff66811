// internal/search/ranking/models.go
package ranking

import "apartment-search/internal/models"

// DimensionScores is the per-dimension breakdown of a listing's score, each
// on a 0-100 scale.
type DimensionScores struct {
	Price     float64 `json:"price"`
	Location  float64 `json:"location"`
	Safety    float64 `json:"safety"`
	Amenities float64 `json:"amenities"`
	Noise     float64 `json:"noise"`
	Light     float64 `json:"light"`
	Rooms     float64 `json:"rooms"`
}

// ScoredListing pairs a listing with its final score and breakdown.
type ScoredListing struct {
	Listing    models.Listing  `json:"listing"`
	Score      float64         `json:"score"`
	Dimensions DimensionScores `json:"dimensions"`
}
