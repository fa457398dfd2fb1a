package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// RegisterUser creates a user through POST /api/users. No token is needed.
func (c *SDKClient) RegisterUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	body, headers, err := jsonBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/users", body, headers)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns one page of users. Zero page or perPage use server defaults.
func (s *Session) ListUsers(ctx context.Context, page, perPage int) (*UserList, error) {
	return s.getList(ctx, "/api/users", page, perPage)
}

// GetUser fetches a single user by id.
func (s *Session) GetUser(ctx context.Context, id string) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser edits the profile of id. Only the token holder's own record can
// be changed; anything else is a 403 *APIError.
func (s *Session) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	body, headers, err := jsonBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), body, headers)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// Followers pages through the users following id.
func (s *Session) Followers(ctx context.Context, id string, page, perPage int) (*UserList, error) {
	return s.getList(ctx, "/api/users/"+url.PathEscape(id)+"/followers", page, perPage)
}

// Following pages through the users id follows.
func (s *Session) Following(ctx context.Context, id string, page, perPage int) (*UserList, error) {
	return s.getList(ctx, "/api/users/"+url.PathEscape(id)+"/following", page, perPage)
}

func (s *Session) getList(ctx context.Context, path string, page, perPage int) (*UserList, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var list UserList
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return &list, nil
}
