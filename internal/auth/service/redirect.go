package service

import (
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultRedirect is where a login lands when no usable next target exists.
const DefaultRedirect = "/index"

// RedirectPolicy decides whether a post-login "next" target may be followed.
// Only local paths matching one of the allow-list patterns pass.
type RedirectPolicy struct {
	Default  string
	patterns []glob.Glob
}

// NewRedirectPolicy compiles the allow-list. Patterns use '/' as separator,
// so "/user/*" matches one segment and "/**" matches any local path.
func NewRedirectPolicy(defaultTarget string, patterns ...string) (*RedirectPolicy, error) {
	if defaultTarget == "" {
		defaultTarget = DefaultRedirect
	}
	p := &RedirectPolicy{Default: defaultTarget}
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		g, err := glob.Compile(raw, '/')
		if err != nil {
			return nil, err
		}
		p.patterns = append(p.patterns, g)
	}
	return p, nil
}

// Allowed reports whether target is a local path on the allow-list.
func (p *RedirectPolicy) Allowed(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") {
		return false
	}
	// "//host" and "/\host" are treated as scheme-relative by browsers.
	if strings.HasPrefix(target, "//") || strings.ContainsRune(target, '\\') {
		return false
	}
	for _, r := range target {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return false
	}

	for _, g := range p.patterns {
		if g.Match(u.Path) {
			return true
		}
	}
	return false
}

// Resolve returns next when allowed and the default target otherwise.
func (p *RedirectPolicy) Resolve(next string) string {
	if p != nil && p.Allowed(next) {
		return next
	}
	if p == nil || p.Default == "" {
		return DefaultRedirect
	}
	return p.Default
}
