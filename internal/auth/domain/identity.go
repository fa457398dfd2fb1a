package domain

import "time"

// Identity is one registered user.
type Identity struct {
	ID           string
	Username     string // unique, case-sensitive
	Email        string // unique
	PasswordHash string // argon2id PHC string, never the plaintext
	AboutMe      string
	LastSeen     time.Time

	// Token and TokenExpiration are set and cleared together.
	Token           *string
	TokenExpiration *time.Time

	// LastMessageReadTime marks the last time the inbox was read.
	LastMessageReadTime *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasToken reports whether an API token is currently stored.
func (i *Identity) HasToken() bool {
	return i.Token != nil && *i.Token != "" && i.TokenExpiration != nil
}

// TokenValidAt reports whether the stored token is usable at now. Expiry is
// exclusive: a token expiring exactly at now is already dead.
func (i *Identity) TokenValidAt(now time.Time) bool {
	return i.HasToken() && now.Before(*i.TokenExpiration)
}

// TokenFreshAt reports whether the stored token has more than floor of
// validity left at now and can be handed out again.
func (i *Identity) TokenFreshAt(now time.Time, floor time.Duration) bool {
	return i.HasToken() && i.TokenExpiration.Sub(now) > floor
}
