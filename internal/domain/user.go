package domain

import "time"

// UserProfile is the locally stored profile of a principal, keyed by provider uid.
type UserProfile struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    string
	Role        Role
	LastSeenAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
