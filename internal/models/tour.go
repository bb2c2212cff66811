// internal/models/tour.go
package models

import "time"

// TourRecord tracks an apartment the user has toured.
type TourRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ListingID string    `json:"listingId"`
	TouredAt  time.Time `json:"touredAt"`
	Rating    int       `json:"rating"` // 1-5, 0 when unrated
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}
