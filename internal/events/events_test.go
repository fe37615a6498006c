package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationForActivated(t *testing.T) {
	n, ok := notificationFor(Event{
		Type:   TypeUserActivated,
		UserID: "u1",
		Name:   "Mike",
		Email:  "mike@x.com",
	})
	require.True(t, ok)
	assert.Equal(t, "New member", n.Title)
	assert.Equal(t, "u1", n.UserID)
	assert.Contains(t, n.Message, "mike@x.com")
}

func TestNotificationForRoleUpdated(t *testing.T) {
	n, ok := notificationFor(Event{
		Type:   TypeUserRoleUpdated,
		UserID: "u1",
		Email:  "mike@x.com",
		Role:   "admin",
	})
	require.True(t, ok)
	assert.Equal(t, "Role changed", n.Title)
	assert.Contains(t, n.Message, "admin")
}

func TestNotificationForLoginIsSkipped(t *testing.T) {
	_, ok := notificationFor(Event{Type: TypeUserLoggedIn, UserID: "u1"})
	assert.False(t, ok)
}

func TestNotificationForUnknownType(t *testing.T) {
	_, ok := notificationFor(Event{Type: "user.sneezed"})
	assert.False(t, ok)
}
