package domain

import "time"

// GitHubUser is the subset of the GitHub profile the gallery keeps.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// AdminLogin records the most recent sign-in of a user.
type AdminLogin struct {
	User struct {
		ID    string `json:"id"`
		Login string `json:"login"`
	} `json:"user"`
	LastLogin time.Time `json:"lastLogin"`
}

// Session is a signed-in browser session. The profile is captured at sign-in
// so that resolving a cookie never calls GitHub.
type Session struct {
	ID          string     `json:"id"`
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type,omitempty"`
	User        GitHubUser `json:"user"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
