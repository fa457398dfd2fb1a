package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/murmur/internal/auth/service"
	"github.com/aussiebroadwan/murmur/pkg/authsdk"
	"github.com/aussiebroadwan/murmur/pkg/httpx"
)

const flashSaved = "Your changes have been saved."

// UserPages serves the pages behind the login wall: index, profiles, profile
// edits and the follow buttons.
type UserPages struct {
	Users   *service.UserService
	Follows *service.FollowService
	Cookies CookieConfig
}

// profileModel is the data of a /user/{username} page.
type profileModel struct {
	User        authsdk.User `json:"user"`
	IsSelf      bool         `json:"is_self"`
	IsFollowing bool         `json:"is_following"`
}

func (h *UserPages) HandleIndex(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.Cookies, http.StatusOK, pageModel{Title: "Home"})
}

func (h *UserPages) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := identityFromContext(ctx)

	target, err := h.Users.GetByUsername(ctx, r.PathValue("username"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "")
			return
		}
		pageError(w, r, err)
		return
	}

	profile := profileModel{
		User:   toUser(target, target.ID == actor.ID),
		IsSelf: target.ID == actor.ID,
	}
	if err := fillCounts(r, h.Follows, &profile.User); err != nil {
		pageError(w, r, err)
		return
	}
	if !profile.IsSelf {
		profile.IsFollowing, err = h.Follows.IsFollowing(ctx, actor.ID, target.ID)
		if err != nil {
			pageError(w, r, err)
			return
		}
	}

	renderPage(w, r, h.Cookies, http.StatusOK, pageModel{Title: target.Username, Data: profile})
}

func (h *UserPages) HandleEditProfilePage(w http.ResponseWriter, r *http.Request) {
	actor := identityFromContext(r.Context())
	renderPage(w, r, h.Cookies, http.StatusOK, pageModel{
		Title: "Edit Profile",
		Form:  map[string]string{"username": actor.Username, "about_me": actor.AboutMe},
	})
}

func (h *UserPages) HandleEditProfile(w http.ResponseWriter, r *http.Request) {
	actor := identityFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{Title: "Edit Profile"})
		return
	}

	username := r.PostForm.Get("username")
	aboutMe := r.PostForm.Get("about_me")

	_, err := h.Users.UpdateProfile(r.Context(), actor, actor.ID, service.ProfileInput{
		Username: &username,
		AboutMe:  &aboutMe,
	})
	if err != nil {
		var fields service.ValidationErrors
		if errors.As(err, &fields) {
			renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{
				Title:  "Edit Profile",
				Form:   map[string]string{"username": username, "about_me": aboutMe},
				Errors: fields,
			})
			return
		}
		pageError(w, r, err)
		return
	}

	h.Cookies.addFlash(w, r, flashSaved)
	redirect(w, r, "/edit_profile")
}

func (h *UserPages) HandleFollow(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	_, err := h.Follows.Follow(r.Context(), identityFromContext(r.Context()), username)
	h.finishFollow(w, r, username, err,
		fmt.Sprintf("You are following %s!", username),
		"You cannot follow yourself!")
}

func (h *UserPages) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	_, err := h.Follows.Unfollow(r.Context(), identityFromContext(r.Context()), username)
	h.finishFollow(w, r, username, err,
		fmt.Sprintf("You are not following %s.", username),
		"You cannot unfollow yourself!")
}

// finishFollow flashes the outcome of a follow or unfollow and returns the
// browser to the profile, or to the index when the profile does not exist.
func (h *UserPages) finishFollow(w http.ResponseWriter, r *http.Request, username string, err error, done, self string) {
	switch {
	case err == nil:
		h.Cookies.addFlash(w, r, done)
	case errors.Is(err, service.ErrNotFound):
		h.Cookies.addFlash(w, r, fmt.Sprintf("User %s not found.", username))
		redirect(w, r, indexPath)
		return
	case errors.Is(err, service.ErrSelfActionDenied):
		h.Cookies.addFlash(w, r, self)
	default:
		pageError(w, r, err)
		return
	}
	redirect(w, r, userPath(username))
}

// fillCounts adds the follower and following totals to u.
func fillCounts(r *http.Request, follows *service.FollowService, u *authsdk.User) error {
	followers, following, err := follows.Counts(r.Context(), u.ID)
	if err != nil {
		return err
	}
	u.FollowerCount = followers
	u.FollowingCount = following
	return nil
}
