package models

// Session is the server-side snapshot kept in Redis for a logged-in user.
// The snapshot, not the credential store, is what the refresh flow reads.
type Session struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
