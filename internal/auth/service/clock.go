package service

import "time"

// clock returns now, falling back to time.Now when no clock is injected.
func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
