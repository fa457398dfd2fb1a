package domain

import "time"

// Follow is a directed edge: FollowerID follows FollowedID.
type Follow struct {
	FollowerID string
	FollowedID string
	CreatedAt  time.Time
}
