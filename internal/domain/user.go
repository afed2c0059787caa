package domain

import "time"

type UserProfile struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	About      string `json:"about"`
	Email      string `json:"email"`
	AvatarURL  string `json:"avatar"`
	IsVerified bool   `json:"isVerified"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Username string
	Name     string
	About    string
	// AvatarURL is filled in after a successful upload.
	AvatarURL string
}

// Session is the signed-in identity read from the session cookie.
type Session struct {
	Username      string
	Email         string
	EmailVerified bool
	ExpiresAt     time.Time
}

func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Username == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
