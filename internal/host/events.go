package host

import (
	"context"
	"sync"

	"github.com/soyeahso/hookpress/internal/plugin"
)

// Event names delivered to subscribers.
const (
	EventConfigApplied   = "config.applied"
	EventSettingsChanged = "settings.changed"
	EventPluginState     = "plugin.state"
)

// Event reports a change that affects rendered output.
type Event struct {
	Name   string `json:"event"`
	Plugin string `json:"plugin,omitempty"`
	State  string `json:"state,omitempty"`
}

type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Event)
}

// Subscribe registers fn to be called after every change. fn runs on the
// goroutine that made the change, after the host has released its lock, so
// it may call back into the host. The returned func unsubscribes.
func (h *Host) Subscribe(fn func(Event)) (cancel func()) {
	h.subs.mu.Lock()
	defer h.subs.mu.Unlock()
	if h.subs.fns == nil {
		h.subs.fns = make(map[int]func(Event))
	}
	id := h.subs.next
	h.subs.next++
	h.subs.fns[id] = fn
	return func() {
		h.subs.mu.Lock()
		defer h.subs.mu.Unlock()
		delete(h.subs.fns, id)
	}
}

func (h *Host) emit(e Event) {
	h.subs.mu.Lock()
	fns := make([]func(Event), 0, len(h.subs.fns))
	for _, fn := range h.subs.fns {
		fns = append(fns, fn)
	}
	h.subs.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Activate activates one plugin by id, refreshing its handlers if it is
// already active.
func (h *Host) Activate(ctx context.Context, id string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errHostClosed
	}
	err := h.plugins.Activate(ctx, id)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	h.emit(Event{Name: EventPluginState, Plugin: id, State: plugin.StateActive.String()})
	return nil
}

// Deactivate deactivates one plugin by id.
func (h *Host) Deactivate(ctx context.Context, id string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errHostClosed
	}
	err := h.plugins.Deactivate(ctx, id)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	h.emit(Event{Name: EventPluginState, Plugin: id, State: plugin.StateInactive.String()})
	return nil
}
