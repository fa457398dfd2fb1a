package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/service"
	"github.com/aussiebroadwan/murmur/pkg/authsdk"
	"github.com/aussiebroadwan/murmur/pkg/httpx"
)

const (
	msgMissingFields = "must include username, email and password fields"
	msgBadJSON       = "request body must be a JSON object"

	// Request bodies are a handful of short strings.
	maxBodyBytes = 16 << 10
)

// UsersHandler serves the /api/users resource.
type UsersHandler struct {
	Users   *service.UserService
	Follows *service.FollowService
}

// HandleCreate godoc
//
//	@Summary		Register a user
//	@Description	Creates a new identity. Username and email must be unused.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateUserRequest	true	"username, email, password"
//	@Success		201		{object}	authsdk.User				"The created user, including email"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Missing field, invalid value or name already taken"
//	@Header			201		{string}	Location					"URL of the created user"
//	@Router			/api/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, msgBadJSON)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, msgMissingFields)
		return
	}

	identity, err := h.Users.Register(r.Context(), service.RegistrationInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user := toUser(identity, true)
	w.Header().Set("Location", user.Links.Self)
	httpx.WriteJSON(w, http.StatusCreated, user)
}

// HandleList godoc
//
//	@Summary		List users
//	@Description	Pages through all users ordered by username.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			page		query		int	false	"Page number, 1-based"
//	@Param			per_page	query		int	false	"Items per page, at most 100"
//	@Success		200			{object}	authsdk.UserList
//	@Failure		401			{object}	authsdk.ErrorResponse
//	@Router			/api/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)
	result, err := h.Users.List(r.Context(), page, perPage)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writePage(w, r, "/api/users", result)
}

// HandleGet godoc
//
//	@Summary		Get a user
//	@Description	Returns one user. Email is only included for the caller's own record.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"User id"
//	@Success		200	{object}	authsdk.User
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		404	{object}	authsdk.ErrorResponse
//	@Router			/api/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID, _ := httpx.UserIDFromContext(ctx)

	identity, err := h.Users.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user := toUser(identity, identity.ID == callerID)
	if err := fillCounts(r, h.Follows, &user); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// HandleFollowers godoc
//
//	@Summary		List followers
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id			path		string	true	"User id"
//	@Param			page		query		int		false	"Page number, 1-based"
//	@Param			per_page	query		int		false	"Items per page, at most 100"
//	@Success		200			{object}	authsdk.UserList
//	@Failure		401			{object}	authsdk.ErrorResponse
//	@Failure		404			{object}	authsdk.ErrorResponse
//	@Router			/api/users/{id}/followers [get].
func (h *UsersHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	page, perPage := pageParams(r)
	result, err := h.Follows.Followers(r.Context(), id, page, perPage)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writePage(w, r, "/api/users/"+url.PathEscape(id)+"/followers", result)
}

// HandleFollowing godoc
//
//	@Summary		List followed users
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id			path		string	true	"User id"
//	@Param			page		query		int		false	"Page number, 1-based"
//	@Param			per_page	query		int		false	"Items per page, at most 100"
//	@Success		200			{object}	authsdk.UserList
//	@Failure		401			{object}	authsdk.ErrorResponse
//	@Failure		404			{object}	authsdk.ErrorResponse
//	@Router			/api/users/{id}/following [get].
func (h *UsersHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	page, perPage := pageParams(r)
	result, err := h.Follows.Following(r.Context(), id, page, perPage)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writePage(w, r, "/api/users/"+url.PathEscape(id)+"/following", result)
}

// HandleUpdate godoc
//
//	@Summary		Update a user
//	@Description	Edits username, email or about_me. Only the token holder's own record can be changed.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User id"
//	@Param			request	body		authsdk.UpdateUserRequest	true	"Fields to change"
//	@Success		200		{object}	authsdk.User
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid value or name already taken"
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"Not the caller's record"
//	@Router			/api/users/{id} [put].
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, err := h.caller(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req authsdk.UpdateUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, msgBadJSON)
		return
	}

	updated, err := h.Users.UpdateProfile(ctx, actor, r.PathValue("id"), service.ProfileInput{
		Username: req.Username,
		Email:    req.Email,
		AboutMe:  req.AboutMe,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user := toUser(updated, true)
	if err := fillCounts(r, h.Follows, &user); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// caller loads the identity the bearer middleware authenticated. A token
// whose identity vanished in the meantime is treated as invalid.
func (h *UsersHandler) caller(r *http.Request) (*domain.Identity, error) {
	id, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		return nil, service.ErrUnauthenticated
	}
	identity, err := h.Users.GetByID(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		return nil, service.ErrUnauthenticated
	}
	return identity, err
}

func (h *UsersHandler) writePage(w http.ResponseWriter, r *http.Request, base string, p service.Page) {
	list := authsdk.UserList{
		Items: make([]authsdk.User, 0, len(p.Items)),
		Meta: authsdk.PageMeta{
			Page:       p.Page,
			PerPage:    p.PerPage,
			TotalPages: p.TotalPages,
			TotalItems: p.TotalItems,
		},
		Links: authsdk.PageLinks{Self: pageLink(base, p.Page, p.PerPage)},
	}
	if p.HasNext() {
		list.Links.Next = pageLink(base, p.Page+1, p.PerPage)
	}
	if p.HasPrev() {
		list.Links.Prev = pageLink(base, p.Page-1, p.PerPage)
	}

	for i := range p.Items {
		user := toUser(&p.Items[i], false)
		if err := fillCounts(r, h.Follows, &user); err != nil {
			writeServiceError(w, r, err)
			return
		}
		list.Items = append(list.Items, user)
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

// toUser renders identity for the wire. Email is only set when withEmail.
func toUser(identity *domain.Identity, withEmail bool) authsdk.User {
	self := "/api/users/" + url.PathEscape(identity.ID)
	u := authsdk.User{
		ID:       identity.ID,
		Username: identity.Username,
		AboutMe:  identity.AboutMe,
		LastSeen: identity.LastSeen,
		Links: authsdk.UserLinks{
			Self:      self,
			Followers: self + "/followers",
			Following: self + "/following",
		},
	}
	if withEmail {
		u.Email = identity.Email
	}
	return u
}

// pageParams reads page and per_page. Bad values fall back to the service
// defaults, which also clamp per_page.
func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return page, perPage
}

func pageLink(base string, page, perPage int) string {
	return base + "?page=" + strconv.Itoa(page) + "&per_page=" + strconv.Itoa(perPage)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
