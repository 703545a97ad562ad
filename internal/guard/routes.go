package guard

import (
	"strings"

	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/session"
)

// Route is one entry of the location table. Pattern segments starting with
// ':' match any single segment.
type Route struct {
	Pattern string
	// Public routes need no session.
	Public bool
	// Roles required when not public. Empty means any session.
	Roles model.RoleSet
	// RedirectTo makes the route an alias.
	RedirectTo string
}

var (
	adminOnly    = model.Roles(model.RoleAdmin)
	adminTeacher = model.Roles(model.RoleAdmin, model.RoleTeacher)
)

// Routes is the application location table.
var Routes = []Route{
	{Pattern: LoginPath, Public: true},
	{Pattern: "/register", Public: true},
	{Pattern: NotFoundPath, Public: true},
	{Pattern: RootPath, RedirectTo: LoginPath},

	{Pattern: "/profile"},

	{Pattern: "/admin/dashboard", Roles: adminOnly},
	{Pattern: "/admin/courses", Roles: adminOnly},
	{Pattern: "/admin/classes", Roles: adminOnly},
	{Pattern: "/admin/users", Roles: adminOnly},

	{Pattern: "/teacher/dashboard", Roles: adminTeacher},
	{Pattern: "/teacher/classes", Roles: adminTeacher},
	{Pattern: "/teacher/attendance", Roles: adminTeacher},
	{Pattern: "/teacher/grading", Roles: adminTeacher},

	{Pattern: "/student/courses"},
	{Pattern: "/student/courses/:id"},
	{Pattern: "/student/schedule"},
	{Pattern: "/student/grades"},
}

// Match finds the route for path. Trailing slashes and query strings are
// ignored.
func Match(path string) (Route, bool) {
	path = normalize(path)
	for _, r := range Routes {
		if matchPattern(r.Pattern, path) {
			return r, true
		}
	}
	return Route{}, false
}

// Resolve applies the route table and the guard to path.
func Resolve(sess *session.Session, path string) Decision {
	r, ok := Match(path)
	switch {
	case !ok:
		return redirect(NotFoundPath)
	case r.RedirectTo != "":
		return redirect(r.RedirectTo)
	case r.Public:
		return allow()
	default:
		return Authorize(sess, r.Roles)
	}
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = RootPath
		}
	}
	return path
}

func matchPattern(pattern, path string) bool {
	ps := strings.Split(pattern, "/")
	xs := strings.Split(path, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
