package guard

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/logger"
	"github.com/wisekey/langcenter/internal/session"
)

// maxRedirects bounds alias and role-home chains.
const maxRedirects = 5

// Navigator tracks the current location and runs every move through the
// guard.
type Navigator struct {
	mu      sync.Mutex
	store   *session.Store
	current string
	log     zerolog.Logger
}

func NewNavigator(store *session.Store, log zerolog.Logger) *Navigator {
	return &Navigator{
		store:   store,
		current: RootPath,
		log:     logger.Component(log, "guard"),
	}
}

// Navigate moves to path, following redirects, and returns where it ended
// up.
func (n *Navigator) Navigate(path string) string {
	sess := n.store.Get()
	target := path
	for range maxRedirects {
		d := Resolve(sess, target)
		if d.Allow {
			break
		}
		n.log.Debug().Str("from", target).Str("to", d.Redirect).Msg("Redirected")
		target = d.Redirect
	}
	target = normalize(target)

	n.mu.Lock()
	n.current = target
	n.mu.Unlock()
	return target
}

// ForceLogin moves to the login location. The HTTP client calls it after
// the session was revoked by the backend.
func (n *Navigator) ForceLogin(context.Context) {
	n.mu.Lock()
	n.current = LoginPath
	n.mu.Unlock()
	n.log.Debug().Str("to", LoginPath).Msg("Forced to login")
}

// Current is the last location reached.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
