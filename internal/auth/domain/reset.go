package domain

import "time"

// UsedResetToken records a redeemed password reset token so it can't be
// redeemed again while its signature is still valid. Rows are purged once
// ExpiresAt has passed since the token is dead by then anyway.
type UsedResetToken struct {
	JTI        string
	IdentityID string
	UsedAt     time.Time
	ExpiresAt  time.Time
}
