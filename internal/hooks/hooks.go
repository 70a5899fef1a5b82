// Package hooks provides the shared action and filter dispatch table that
// plugins use to augment rendered content.
//
// Handlers registered under the same hook name run in ascending priority
// order; handlers with equal priority run in registration order. Every
// registration returns a Token that removes exactly that handler again.
package hooks

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/soyeahso/hookpress/internal/logging"
)

// Well-known hook names shared by the host and plugins.
const (
	HookHead    = "wp_head"
	HookContent = "the_content"
)

// Priorities used by the bundled plugins. Lower values run earlier.
const (
	PriorityDefault = 10
	PriorityLast    = 99
)

// ShortcodeHook returns the filter hook name for a shortcode tag.
func ShortcodeHook(tag string) string { return "shortcode_" + tag }

// WidgetHook returns the filter hook name for a widget.
func WidgetHook(name string) string { return "widget_" + name }

// Action is a hook handler that performs a side effect.
// Returning an error logs the failure but does not stop dispatch.
type Action interface {
	Run(ctx context.Context) error
}

// Filter is a hook handler that transforms a value. It must depend only on its
// input and its own captured state. A returned error discards the output and
// passes the input on unchanged.
type Filter interface {
	Apply(ctx context.Context, value string) (string, error)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f ActionFunc) Run(ctx context.Context) error { return f(ctx) }

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(ctx context.Context, value string) (string, error)

// Apply calls f(ctx, value).
func (f FilterFunc) Apply(ctx context.Context, value string) (string, error) { return f(ctx, value) }

// Kind distinguishes the two handler shapes.
type Kind int

const (
	KindAction Kind = iota
	KindFilter
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// Token identifies a single registration. The zero Token matches nothing.
type Token struct {
	id   string
	hook string
	kind Kind
}

// ID returns the unique registration id.
func (t Token) ID() string { return t.id }

// Hook returns the hook name the registration was made under.
func (t Token) Hook() string { return t.hook }

// Kind returns the handler kind of the registration.
func (t Token) Kind() Kind { return t.kind }

// IsZero reports whether t is the zero Token.
func (t Token) IsZero() bool { return t.id == "" }

// EntryInfo describes a registered handler for introspection.
type EntryInfo struct {
	ID       string `json:"id"`
	Hook     string `json:"hook"`
	Kind     string `json:"kind"`
	Priority int    `json:"priority"`
	Owner    string `json:"owner,omitempty"`
}

type entry struct {
	token    Token
	priority int
	seq      uint64
	owner    string
	action   Action
	filter   Filter

	// holds counts dispatches whose snapshot contains this entry.
	holds int
}

// Registry is the dispatch table. It is safe for concurrent use. Dispatches
// share a read lock while copying the handler list and run handlers outside
// it, so concurrent dispatches never block each other and handlers may
// register hooks. Removal is exclusive with every dispatch that can still
// call the removed handler: Remove returns only after those dispatches have
// finished. A handler must therefore not remove a handler of a chain it is
// running in.
type Registry struct {
	mu      sync.RWMutex
	actions map[string][]*entry
	filters map[string][]*entry
	byID    map[string]*entry
	seq     uint64
	log     *logging.Logger

	holdMu   sync.Mutex
	released *sync.Cond
}

// NewRegistry creates an empty hook registry.
func NewRegistry(log *logging.Logger) *Registry {
	r := &Registry{
		actions: make(map[string][]*entry),
		filters: make(map[string][]*entry),
		byID:    make(map[string]*entry),
		log:     log.Sub("hooks"),
	}
	r.released = sync.NewCond(&r.holdMu)
	return r
}

// AddAction registers an action under name at the given priority.
func (r *Registry) AddAction(name string, priority int, a Action) Token {
	return r.addAction(name, priority, "", a)
}

// AddFilter registers a filter under name at the given priority.
func (r *Registry) AddFilter(name string, priority int, f Filter) Token {
	return r.addFilter(name, priority, "", f)
}

func (r *Registry) addAction(name string, priority int, owner string, a Action) Token {
	if a == nil {
		panic("hooks: nil action for " + name)
	}
	return r.add(&entry{priority: priority, owner: owner, action: a, token: Token{hook: name, kind: KindAction}})
}

func (r *Registry) addFilter(name string, priority int, owner string, f Filter) Token {
	if f == nil {
		panic("hooks: nil filter for " + name)
	}
	return r.add(&entry{priority: priority, owner: owner, filter: f, token: Token{hook: name, kind: KindFilter}})
}

func (r *Registry) add(e *entry) Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e.seq = r.seq
	e.token.id = uuid.NewString()

	chains := r.chains(e.token.kind)
	chains[e.token.hook] = insertOrdered(chains[e.token.hook], e)
	r.byID[e.token.id] = e

	r.log.Debug().
		Str("hook", e.token.hook).
		Str("kind", e.token.kind.String()).
		Int("priority", e.priority).
		Str("owner", e.owner).
		Msg("hook registered")
	return e.token
}

// insertOrdered places e after every entry with priority <= e.priority.
// Sequence numbers only grow, so equal priorities keep registration order.
func insertOrdered(list []*entry, e *entry) []*entry {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].priority > e.priority
	})
	return slices.Insert(list, i, e)
}

func (r *Registry) chains(k Kind) map[string][]*entry {
	if k == KindAction {
		return r.actions
	}
	return r.filters
}

// Remove unregisters the handler identified by tok.
// Returns false if tok is unknown or already removed.
func (r *Registry) Remove(tok Token) bool {
	if tok.IsZero() {
		return false
	}

	r.mu.Lock()
	e, ok := r.removeLocked(tok)
	r.mu.Unlock()
	if ok {
		r.awaitRelease(e)
	}
	return ok
}

// RemoveAll unregisters every given token and returns how many were removed.
func (r *Registry) RemoveAll(toks ...Token) int {
	r.mu.Lock()
	removed := make([]*entry, 0, len(toks))
	for _, tok := range toks {
		if tok.IsZero() {
			continue
		}
		if e, ok := r.removeLocked(tok); ok {
			removed = append(removed, e)
		}
	}
	r.mu.Unlock()

	r.awaitRelease(removed...)
	return len(removed)
}

// awaitRelease blocks until no running dispatch holds any of entries.
func (r *Registry) awaitRelease(entries ...*entry) {
	r.holdMu.Lock()
	defer r.holdMu.Unlock()
	for _, e := range entries {
		for e.holds > 0 {
			r.released.Wait()
		}
	}
}

func (r *Registry) removeLocked(tok Token) (*entry, bool) {
	e, ok := r.byID[tok.id]
	if !ok {
		return nil, false
	}
	delete(r.byID, tok.id)

	chains := r.chains(e.token.kind)
	list := chains[e.token.hook]
	for i, cur := range list {
		if cur == e {
			list = slices.Delete(list, i, i+1)
			break
		}
	}
	if len(list) == 0 {
		delete(chains, e.token.hook)
	} else {
		chains[e.token.hook] = list
	}

	r.log.Debug().
		Str("hook", e.token.hook).
		Str("kind", e.token.kind.String()).
		Str("owner", e.owner).
		Msg("hook removed")
	return e, true
}

// snapshot copies the chain and marks every entry in it as held until
// release is called, so a concurrent Remove waits for this dispatch.
func (r *Registry) snapshot(k Kind, name string) []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.chains(k)[name]
	if len(list) == 0 {
		return nil
	}
	out := make([]*entry, len(list))
	copy(out, list)

	r.holdMu.Lock()
	for _, e := range out {
		e.holds++
	}
	r.holdMu.Unlock()
	return out
}

func (r *Registry) release(entries []*entry) {
	if len(entries) == 0 {
		return
	}
	r.holdMu.Lock()
	for _, e := range entries {
		e.holds--
	}
	r.holdMu.Unlock()
	r.released.Broadcast()
}

// RunAction invokes every action registered under name. A failing or
// panicking handler is logged and the remaining handlers still run.
func (r *Registry) RunAction(ctx context.Context, name string) {
	list := r.snapshot(KindAction, name)
	defer r.release(list)

	for _, e := range list {
		if err := r.runAction(ctx, e); err != nil {
			r.log.Warn().
				Err(err).
				Str("hook", name).
				Str("owner", e.owner).
				Msg("action handler error")
		}
	}
}

// ApplyFilters threads value through every filter registered under name and
// returns the result. With no filters the value is returned unchanged. A
// failing or panicking filter is skipped: its input flows to the next filter.
func (r *Registry) ApplyFilters(ctx context.Context, name, value string) string {
	list := r.snapshot(KindFilter, name)
	defer r.release(list)

	for _, e := range list {
		out, err := r.applyFilter(ctx, e, value)
		if err != nil {
			r.log.Warn().
				Err(err).
				Str("hook", name).
				Str("owner", e.owner).
				Msg("filter handler error, passing value through")
			continue
		}
		value = out
	}
	return value
}

func (r *Registry) runAction(ctx context.Context, e *entry) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = newHandlerError(e, fmt.Errorf("panic: %v", rec), true)
		}
	}()
	if runErr := e.action.Run(ctx); runErr != nil {
		return newHandlerError(e, runErr, false)
	}
	return nil
}

func (r *Registry) applyFilter(ctx context.Context, e *entry, value string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = value, newHandlerError(e, fmt.Errorf("panic: %v", rec), true)
		}
	}()
	out, applyErr := e.filter.Apply(ctx, value)
	if applyErr != nil {
		return value, newHandlerError(e, applyErr, false)
	}
	return out, nil
}

// Count returns the number of handlers (actions and filters) registered under name.
func (r *Registry) Count(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions[name]) + len(r.filters[name])
}

// Len returns the total number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Hooks returns the sorted names that have at least one handler registered.
func (r *Registry) Hooks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.actions)+len(r.filters))
	for name := range r.actions {
		seen[name] = struct{}{}
	}
	for name := range r.filters {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries describes the handlers registered under name: actions first, then
// filters, each in dispatch order.
func (r *Registry) Entries(name string) []EntryInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []EntryInfo
	for _, list := range [][]*entry{r.actions[name], r.filters[name]} {
		for _, e := range list {
			out = append(out, EntryInfo{
				ID:       e.token.id,
				Hook:     e.token.hook,
				Kind:     e.token.kind.String(),
				Priority: e.priority,
				Owner:    e.owner,
			})
		}
	}
	return out
}
