package quiz

// State is the lifecycle state of a Deck
type State int

const (
	// Loading is the state of a deck that has not been initialized.
	Loading State = iota
	// Active means prompts remain in the current pass.
	Active
	// Exhausted means every active prompt has been presented and no retry is pending.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Active:
		return "active"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}
