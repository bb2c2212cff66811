// internal/models/listing.go
package models

import "time"

// Listing is an apartment listing as stored in Postgres and indexed in
// Elasticsearch.
type Listing struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"` // monthly rent, dollars
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     float64   `json:"bathrooms"`
	SquareFeet    float64   `json:"squareFeet"`
	City          string    `json:"city"`
	Neighborhood  string    `json:"neighborhood"`
	State         string    `json:"state"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	ApartmentType string    `json:"apartmentType"`
	Orientation   string    `json:"orientation"`
	FloorNumber   int       `json:"floorNumber"`
	PetPolicy     string    `json:"petPolicy"`
	Amenities     []string  `json:"amenities"`
	AvailableFrom time.Time `json:"availableFrom"`

	ReviewStats ReviewStats `json:"reviewStats"`
}

// ReviewStats aggregates review signal per listing. Sub-ratings use a 1-10
// scale; zero means no review signal.
type ReviewStats struct {
	AverageRating    float64 `json:"averageRating"` // 1-5 overall
	ReviewCount      int     `json:"reviewCount"`
	NoiseLevel       float64 `json:"noiseLevel"`       // 1 quiet, 10 loud
	ManagementRating float64 `json:"managementRating"` // 1-10
	ValueRating      float64 `json:"valueRating"`      // 1-10
}
