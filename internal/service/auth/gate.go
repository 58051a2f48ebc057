package auth

import (
	"github.com/jwalitptl/dental-api/internal/model"
)

// Decision is the outcome of a route guard.
type Decision int

const (
	Allow Decision = iota
	// RedirectLogin: nobody is signed in.
	RedirectLogin
	// RedirectDefault: signed in with a role the route does not admit.
	RedirectDefault
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDefault:
		return "redirect_default"
	}
	return "unknown"
}

// Authorize decides whether session may enter a route restricted to
// allowed. An empty allowed set admits any signed-in session.
func Authorize(session *model.Session, allowed []model.Role) Decision {
	if session == nil {
		return RedirectLogin
	}
	if len(allowed) == 0 || session.HasRole(allowed...) {
		return Allow
	}
	return RedirectDefault
}
