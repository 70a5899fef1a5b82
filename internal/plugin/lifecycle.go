package plugin

import (
	"sync"

	"github.com/soyeahso/hookpress/internal/hooks"
)

// Lifecycle tracks a plugin's activation state and owns the hook
// registrations made by its current activation. Plugins embed it to get
// transactional activation and exact revocation on deactivation.
type Lifecycle struct {
	mu    sync.RWMutex
	state State
	group *hooks.Group
}

// State returns the current activation state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Registered returns the number of hook handlers held by the current activation.
func (l *Lifecycle) Registered() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.group == nil {
		return 0
	}
	return l.group.Len()
}

// Activate runs register against a fresh registration group owned by owner.
// If register fails, everything it registered is revoked and the previous
// state and registrations are kept. On success any registrations from an
// earlier activation are revoked and the state becomes StateActive.
//
// When reg is nil the registration step is skipped and the plugin still
// becomes active.
func (l *Lifecycle) Activate(reg *hooks.Registry, owner string, register func(g *hooks.Group) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var next *hooks.Group
	if reg != nil {
		next = hooks.NewGroup(reg, owner)
		if err := register(next); err != nil {
			next.Revoke()
			return err
		}
	}

	if l.group != nil {
		l.group.Revoke()
	}
	l.group = next
	l.state = StateActive
	return nil
}

// Deactivate revokes the registrations of the current activation and sets
// the state to StateInactive. Returns the number of handlers removed.
func (l *Lifecycle) Deactivate() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	if l.group != nil {
		removed = l.group.Revoke()
		l.group = nil
	}
	l.state = StateInactive
	return removed
}
