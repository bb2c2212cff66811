// internal/models/search.go
package models

import (
	"time"

	"apartment-search/internal/search/filter"
)

// SavedSearch is a named filter a user stores for re-running and alerts.
type SavedSearch struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	Name          string              `json:"name"`
	Filter        filter.SearchFilter `json:"filter"`
	AlertsEnabled bool                `json:"alertsEnabled"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// SearchRecord is one executed search, kept as history.
type SearchRecord struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	Query       string              `json:"query"`
	Filter      filter.SearchFilter `json:"filter"`
	ResultCount int                 `json:"resultCount"`
	CreatedAt   time.Time           `json:"createdAt"`
}
