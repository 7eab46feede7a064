package orchestrator

import (
	"slices"

	"github.com/maastricht-university/patient-pulse/timeline"
)

// SelectionState holds the single highlighted entity and its lines.
type SelectionState struct {
	Selected    *EntityRef
	Highlighted map[timeline.LineNumber]bool
}

// Toggle selects ref, replacing any previous highlight, or clears the
// selection when ref is already selected. It reports whether ref ends up
// selected.
func (s *SelectionState) Toggle(ref EntityRef, lines []timeline.LineNumber) bool {
	if s.Is(ref) {
		s.Clear()
		return false
	}
	s.Selected = &ref
	s.Highlighted = make(map[timeline.LineNumber]bool, len(lines))
	for _, n := range lines {
		s.Highlighted[n] = true
	}
	return true
}

func (s *SelectionState) Clear() {
	s.Selected = nil
	s.Highlighted = nil
}

func (s SelectionState) Is(ref EntityRef) bool {
	return s.Selected != nil && *s.Selected == ref
}

func (s SelectionState) Has(n timeline.LineNumber) bool { return s.Highlighted[n] }

// Lines returns the highlighted line numbers in ascending order.
func (s SelectionState) Lines() []timeline.LineNumber {
	out := make([]timeline.LineNumber, 0, len(s.Highlighted))
	for n := range s.Highlighted {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
