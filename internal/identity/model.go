package identity

import "time"

// User represents a registered marketplace member.
type User struct {
	ID           string
	Phone        string
	Tier         string
	PINHash      []byte
	DeviceID     string
	TokenVersion int
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// Credentials request structure.
type Credentials struct {
	Phone    string
	PIN      string
	DeviceID string
}
