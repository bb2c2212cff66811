// internal/models/user.go
package models

import "time"

// User is the slice of account data this service reads. Accounts are
// managed elsewhere; email and phone are needed for alert delivery.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
