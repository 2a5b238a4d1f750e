package filter

// SelectionMode is the keyboard autocomplete's state within one run. The
// widget behaves differently once something has been committed, and the two
// states cannot be told apart reliably from the DOM.
type SelectionMode int

const (
	FirstSelection SelectionMode = iota
	SubsequentSelection
)

func (m SelectionMode) String() string {
	switch m {
	case FirstSelection:
		return "first"
	case SubsequentSelection:
		return "subsequent"
	default:
		return "unknown"
	}
}

type selectionTracker struct {
	mode SelectionMode
}

func newSelectionTracker() *selectionTracker {
	return &selectionTracker{mode: FirstSelection}
}

func (t *selectionTracker) Mode() SelectionMode {
	return t.mode
}

// Committed moves to SubsequentSelection. Both paths end here.
func (t *selectionTracker) Committed() {
	t.mode = SubsequentSelection
}
