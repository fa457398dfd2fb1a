package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/murmur/internal/auth/service"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

const (
	flashBadLogin    = "Invalid username or password"
	flashRegistered  = "Congratulations, you are now a registered user!"
	flashCheckEmail  = "Check your email for the instructions to reset your password"
	flashPasswordSet = "Your password has been reset."
)

// AuthPages serves the browser login, registration and password reset flows.
// Pages answer with redirects and flashes; GETs return a JSON page model.
type AuthPages struct {
	Sessions *service.SessionService
	Users    *service.UserService
	Resets   *service.ResetService
	Cookies  CookieConfig
}

// anonymousOnly redirects bound browsers to the index and reports whether it
// did so.
func (h *AuthPages) anonymousOnly(w http.ResponseWriter, r *http.Request) bool {
	identity, err := boundIdentity(r, h.Sessions, h.Cookies)
	if err != nil {
		pageError(w, r, err)
		return true
	}
	if identity != nil {
		redirect(w, r, indexPath)
		return true
	}
	return false
}

func (h *AuthPages) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if h.anonymousOnly(w, r) {
		return
	}
	renderPage(w, r, h.Cookies, http.StatusOK, pageModel{
		Title: "Sign In",
		Form:  map[string]string{"next": r.URL.Query().Get("next")},
	})
}

// HandleLogin checks the submitted credentials and binds a session. The
// destination comes from the next form field or query parameter and is only
// honoured when the redirect policy allows it.
func (h *AuthPages) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.anonymousOnly(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{Title: "Sign In"})
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	next := r.PostForm.Get("next")
	if next == "" {
		next = r.URL.Query().Get("next")
	}

	if errs := service.ValidateLogin(username, password); len(errs) > 0 {
		renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{
			Title:  "Sign In",
			Form:   map[string]string{"username": username, "next": next},
			Errors: errs,
		})
		return
	}

	res, err := h.Sessions.Authenticate(r.Context(), username, password, checked(r.PostForm.Get("remember_me")), next)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.Cookies.addFlash(w, r, flashBadLogin)
			redirect(w, r, loginPath)
			return
		}
		pageError(w, r, err)
		return
	}

	h.Cookies.setSession(w, res)
	redirect(w, r, res.Redirect)
}

func (h *AuthPages) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context(), h.Cookies.sessionToken(r)); err != nil {
		slogx.FromContext(r.Context()).Warn("logout failed", "err", err)
	}
	h.Cookies.clearSession(w)
	redirect(w, r, loginPath)
}

func (h *AuthPages) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if h.anonymousOnly(w, r) {
		return
	}
	renderPage(w, r, h.Cookies, http.StatusOK, pageModel{Title: "Register"})
}

func (h *AuthPages) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if h.anonymousOnly(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{Title: "Register"})
		return
	}

	in := service.RegistrationInput{
		Username:  r.PostForm.Get("username"),
		Email:     r.PostForm.Get("email"),
		Password:  r.PostForm.Get("password"),
		Password2: r.PostForm.Get("password2"),
	}
	if _, err := h.Users.Register(r.Context(), in); err != nil {
		var fields service.ValidationErrors
		if errors.As(err, &fields) {
			renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{
				Title:  "Register",
				Form:   map[string]string{"username": in.Username, "email": in.Email},
				Errors: fields,
			})
			return
		}
		pageError(w, r, err)
		return
	}

	h.Cookies.addFlash(w, r, flashRegistered)
	redirect(w, r, loginPath)
}

func (h *AuthPages) HandleResetRequestPage(w http.ResponseWriter, r *http.Request) {
	if h.anonymousOnly(w, r) {
		return
	}
	renderPage(w, r, h.Cookies, http.StatusOK, pageModel{Title: "Reset Password"})
}

// HandleResetRequest always ends with the same flash, whether or not the
// address is registered.
func (h *AuthPages) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	if h.anonymousOnly(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{Title: "Reset Password"})
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))
	if errs := service.ValidateResetRequest(email); len(errs) > 0 {
		renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{
			Title:  "Reset Password",
			Form:   map[string]string{"email": email},
			Errors: errs,
		})
		return
	}

	if err := h.Resets.RequestReset(r.Context(), email); err != nil {
		slogx.FromContext(r.Context()).Error("password reset request failed", "err", err)
	}

	h.Cookies.addFlash(w, r, flashCheckEmail)
	redirect(w, r, loginPath)
}

func (h *AuthPages) HandleResetPage(w http.ResponseWriter, r *http.Request) {
	if h.anonymousOnly(w, r) {
		return
	}
	if _, err := h.Resets.VerifyResetToken(r.Context(), r.PathValue("token")); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			redirect(w, r, indexPath)
			return
		}
		pageError(w, r, err)
		return
	}
	renderPage(w, r, h.Cookies, http.StatusOK, pageModel{Title: "Reset Your Password"})
}

func (h *AuthPages) HandleReset(w http.ResponseWriter, r *http.Request) {
	if h.anonymousOnly(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{Title: "Reset Your Password"})
		return
	}

	_, err := h.Resets.ResetPassword(r.Context(),
		r.PathValue("token"),
		r.PostForm.Get("password"),
		r.PostForm.Get("password2"),
	)
	if err != nil {
		var fields service.ValidationErrors
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			redirect(w, r, indexPath)
		case errors.As(err, &fields):
			renderPage(w, r, h.Cookies, http.StatusBadRequest, pageModel{
				Title:  "Reset Your Password",
				Errors: fields,
			})
		default:
			pageError(w, r, err)
		}
		return
	}

	h.Cookies.addFlash(w, r, flashPasswordSet)
	redirect(w, r, loginPath)
}

// checked interprets an HTML checkbox value.
func checked(v string) bool {
	switch strings.ToLower(v) {
	case "y", "yes", "on", "true", "1":
		return true
	}
	return false
}
