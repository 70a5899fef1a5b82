package hooks

import "fmt"

// HandlerError reports a single handler failure during dispatch.
type HandlerError struct {
	Hook     string
	Kind     Kind
	Owner    string
	Priority int
	Panicked bool
	Err      error
}

func newHandlerError(e *entry, err error, panicked bool) *HandlerError {
	return &HandlerError{
		Hook:     e.token.hook,
		Kind:     e.token.kind,
		Owner:    e.owner,
		Priority: e.priority,
		Panicked: panicked,
		Err:      err,
	}
}

func (e *HandlerError) Error() string {
	owner := e.Owner
	if owner == "" {
		owner = "anonymous"
	}
	return fmt.Sprintf("%s %q (owner %s, priority %d): %v", e.Kind, e.Hook, owner, e.Priority, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
