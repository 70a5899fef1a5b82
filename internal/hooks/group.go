package hooks

import "sync"

// Group records the registrations made on behalf of one owner so they can be
// revoked together, e.g. when a plugin deactivates or fails halfway through
// activation.
type Group struct {
	reg   *Registry
	owner string

	mu     sync.Mutex
	tokens []Token
}

// NewGroup creates a registration group for owner on reg.
func NewGroup(reg *Registry, owner string) *Group {
	return &Group{reg: reg, owner: owner}
}

// Owner returns the name the group registers handlers under.
func (g *Group) Owner() string { return g.owner }

// AddAction registers an action and records its token.
func (g *Group) AddAction(name string, priority int, a Action) Token {
	tok := g.reg.addAction(name, priority, g.owner, a)
	g.record(tok)
	return tok
}

// AddFilter registers a filter and records its token.
func (g *Group) AddFilter(name string, priority int, f Filter) Token {
	tok := g.reg.addFilter(name, priority, g.owner, f)
	g.record(tok)
	return tok
}

func (g *Group) record(tok Token) {
	g.mu.Lock()
	g.tokens = append(g.tokens, tok)
	g.mu.Unlock()
}

// Len returns the number of live registrations held by the group.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tokens)
}

// Tokens returns a copy of the recorded tokens in registration order.
func (g *Group) Tokens() []Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Token, len(g.tokens))
	copy(out, g.tokens)
	return out
}

// Revoke removes every registration made through the group and returns how
// many were still present. The group can be reused afterwards.
func (g *Group) Revoke() int {
	g.mu.Lock()
	toks := g.tokens
	g.tokens = nil
	g.mu.Unlock()

	return g.reg.RemoveAll(toks...)
}
