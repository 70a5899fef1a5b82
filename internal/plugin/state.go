package plugin

// State represents the activation state of a plugin.
type State int

// Plugin states.
const (
	// StateInactive - handlers are not registered. Every plugin starts here.
	StateInactive State = iota

	// StateActive - handlers are registered with the hook registry.
	StateActive
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}
