package domain

import "time"

// Session binds one browser context to one identity.
type Session struct {
	ID         string
	IdentityID string
	TokenHash  string // fingerprint of the cookie value
	Remember   bool   // long-lived persistent cookie vs browser-session cookie
	CreatedAt  time.Time
	LastSeen   time.Time
	ExpiresAt  time.Time
}

// IsExpiredAt reports whether the session has lapsed at now.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
