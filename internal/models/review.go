// internal/models/review.go
package models

import "time"

// Review is a single tenant review of a listing.
type Review struct {
	ID               string    `json:"id"`
	ListingID        string    `json:"listingId"`
	UserID           string    `json:"userId"`
	Rating           int       `json:"rating"` // 1-5 overall
	NoiseLevel       int       `json:"noiseLevel"`       // 1 quiet, 10 loud
	ManagementRating int       `json:"managementRating"` // 1-10
	ValueRating      int       `json:"valueRating"`      // 1-10
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"createdAt"`
}
