package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/service"
)

const (
	DefaultSessionCookie = "murmur_session"
	DefaultFlashCookie   = "murmur_flash"

	// Browsers cap a cookie at 4KiB, flashes beyond this are dropped.
	maxFlashBytes = 3072
)

// CookieConfig names the browser cookies and sets their transport flags.
type CookieConfig struct {
	SessionName string
	FlashName   string
	Secure      bool // set for deployments served over https
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.SessionName == "" {
		c.SessionName = DefaultSessionCookie
	}
	if c.FlashName == "" {
		c.FlashName = DefaultFlashCookie
	}
	return c
}

func (c CookieConfig) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// setSession binds the browser to a fresh login. Remembered sessions get a
// persistent cookie; the rest die with the browser.
func (c CookieConfig) setSession(w http.ResponseWriter, res *service.LoginResult) {
	ck := c.cookie(c.SessionName, res.Token)
	if res.Session.Remember {
		ck.Expires = res.Session.ExpiresAt
		ck.MaxAge = int(time.Until(res.Session.ExpiresAt).Seconds())
	}
	http.SetCookie(w, ck)
}

func (c CookieConfig) clearSession(w http.ResponseWriter) {
	ck := c.cookie(c.SessionName, "")
	ck.MaxAge = -1
	http.SetCookie(w, ck)
}

func (c CookieConfig) sessionToken(r *http.Request) string {
	ck, err := r.Cookie(c.SessionName)
	if err != nil {
		return ""
	}
	return ck.Value
}

// addFlash queues msg for the next rendered page, keeping flashes the
// request already carried.
func (c CookieConfig) addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	flashes := append(c.readFlashes(r), msg)

	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(raw)
	if len(value) > maxFlashBytes {
		return
	}
	http.SetCookie(w, c.cookie(c.FlashName, value))
}

// takeFlashes returns the pending flashes and clears them.
func (c CookieConfig) takeFlashes(w http.ResponseWriter, r *http.Request) []string {
	flashes := c.readFlashes(r)
	if len(flashes) > 0 {
		ck := c.cookie(c.FlashName, "")
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
	return flashes
}

func (c CookieConfig) readFlashes(r *http.Request) []string {
	ck, err := r.Cookie(c.FlashName)
	if err != nil || ck.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil
	}
	var flashes []string
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}
