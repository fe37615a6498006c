package events

import "time"

// Event types emitted by the auth lifecycle.
const (
	TypeUserActivated   = "user.activated"
	TypeUserLoggedIn    = "user.logged_in"
	TypeUserRoleUpdated = "user.role_updated"
	TypeUserDeleted     = "user.deleted"
)

// Event is the wire format published to the auth events topic.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name,omitempty"`
	Role       string    `json:"role,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher abstracts the event sink so services can run without Kafka.
type Publisher interface {
	Publish(evt Event)
	Close() error
}
