package entities

import (
	"slices"

	"github.com/maastricht-university/patient-pulse/timeline"
)

type Kind string

const (
	Symptoms Kind = "symptoms"
	Drugs    Kind = "drugs"
	Diseases Kind = "diseases"
)

// Kinds lists the panels in display order.
var Kinds = []Kind{Drugs, Symptoms, Diseases}

// Entity is an extracted mention. Lines is never empty.
type Entity struct {
	Name  string                `json:"name"`
	Lines []timeline.LineNumber `json:"lines"`
}

// First is the earliest line the entity occurs on.
func (e Entity) First() timeline.LineNumber { return slices.Min(e.Lines) }

// VisibleAt reports whether the entity has occurred by the active line.
func (e Entity) VisibleAt(active timeline.LineIndex) bool {
	return e.First() <= active.Number()
}

func (e Entity) Has(n timeline.LineNumber) bool { return slices.Contains(e.Lines, n) }

// Set groups entities by kind, each list in extraction order.
type Set map[Kind][]Entity

// Visible derives, from scratch, the entities that have occurred by the
// active line. Every kind in Kinds is present in the result.
func (s Set) Visible(active timeline.LineIndex) Set {
	out := make(Set, len(Kinds))
	for _, k := range Kinds {
		shown := []Entity{}
		for _, e := range s[k] {
			if e.VisibleAt(active) {
				shown = append(shown, e)
			}
		}
		out[k] = shown
	}
	return out
}

// Get returns the i-th entity of kind k.
func (s Set) Get(k Kind, i int) (Entity, bool) {
	list := s[k]
	if i < 0 || i >= len(list) {
		return Entity{}, false
	}
	return list[i], true
}

func (s Set) Count() int {
	n := 0
	for _, list := range s {
		n += len(list)
	}
	return n
}
