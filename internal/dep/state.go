package dep

// State is the lifecycle state of a symbol.
//
// The integer values are part of the serialization format; Valid must stay
// last.
type State int

const (
	// NonBuilt means the symbol has no on-disk artifact yet.
	NonBuilt State = iota
	// Disabled means the symbol has dependencies but its value was written
	// directly, so it is valid yet cannot be regenerated from them.
	Disabled
	// Stale means the on-disk artifact is older than some dependency.
	Stale
	// Invalid is Disabled and Stale at once: not fresh, not rebuildable.
	Invalid
	// Valid means built and up to date.
	Valid
)

func (s State) String() string {
	switch s {
	case NonBuilt:
		return "NONBUILT"
	case Disabled:
		return "DISABLED"
	case Stale:
		return "STALE"
	case Invalid:
		return "INVALID"
	case Valid:
		return "VALID"
	default:
		return "UNKNOWN"
	}
}

// Callback is the action invoked when a symbol is (re)built. Callbacks are
// never serialized.
type Callback func(name, value string) error

// Selector filters symbols during traversal queries. A nil Selector accepts
// everything.
type Selector func(name, value string, state State) bool
