// Package guard decides whether a session may open a location and where to
// send it otherwise.
package guard

import (
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/session"
)

// Well-known locations.
const (
	LoginPath    = "/login"
	NotFoundPath = "/404"
	RootPath     = "/"
)

// Decision is the outcome of a guard check. Redirect is set only when
// Allow is false.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision { return Decision{Allow: true} }
func redirect(path string) Decision { return Decision{Redirect: path} }

// Authorize checks sess against the required roles. An empty set admits
// any session. A session with the wrong role is sent to its own home.
func Authorize(sess *session.Session, required model.RoleSet) Decision {
	if sess == nil {
		return redirect(LoginPath)
	}
	if required.Empty() || required.Has(sess.Role()) {
		return allow()
	}
	return redirect(Home(sess.Role()))
}

// Home is the landing location for a role.
func Home(r model.Role) string {
	switch r {
	case model.RoleAdmin:
		return "/admin/dashboard"
	case model.RoleTeacher:
		return "/teacher/dashboard"
	case model.RoleStudent:
		return "/student/courses"
	default:
		return RootPath
	}
}
