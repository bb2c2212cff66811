// internal/alerts/models.go
package alerts

import "apartment-search/internal/models"

const (
	StatusSent     = "SENT"
	StatusFailed   = "FAILED"
	StatusDisabled = "DISABLED"
)

const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// Match is one listing that scored above the alert threshold for a saved
// search.
type Match struct {
	Listing models.Listing
	Score   float64
}

// Input describes one alert to deliver.
type Input struct {
	UserID     string
	SearchName string
	Match      Match
}

// Output reports the delivery outcome.
type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	Priority       string `json:"priority"`
	SentAt         string `json:"sentAt"`
}
