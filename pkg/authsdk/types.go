package authsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	// Error is the HTTP status text (e.g. "Bad Request")
	Error string `json:"error"`

	// Message is an optional human-readable detail
	Message string `json:"message,omitempty"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is returned from POST /api/tokens.
type TokenResponse struct {
	Token string `json:"token"`
}

// ============================================================================
// User Types
// ============================================================================

// User is the public representation of an identity. Email is only present
// when the caller is looking at its own record or just registered it.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	AboutMe        string    `json:"about_me"`
	LastSeen       time.Time `json:"last_seen"`
	FollowerCount  int       `json:"follower_count"`
	FollowingCount int       `json:"following_count"`
	Links          UserLinks `json:"_links"`
}

// UserLinks are the related resources of a User.
type UserLinks struct {
	Self      string `json:"self"`
	Followers string `json:"followers"`
	Following string `json:"following"`
}

// UserList is one page of users.
type UserList struct {
	Items []User    `json:"items"`
	Meta  PageMeta  `json:"_meta"`
	Links PageLinks `json:"_links"`
}

// PageMeta describes the position of a page in the full collection.
type PageMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// PageLinks point at neighbouring pages. Next and Prev are empty at the ends.
type PageLinks struct {
	Self string `json:"self"`
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is the body of PUT /api/users/{id}. Nil fields are left
// unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	AboutMe  *string `json:"about_me,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response from health check endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks contains the status of individual dependencies.
type HealthChecks struct {
	Database string `json:"database"`
}
