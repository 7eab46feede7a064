package timeline

import "sort"

// LineIndex is a zero-based position in a Timeline.
type LineIndex int

// LineNumber is the one-based line number used in transcript markup and by
// the extraction service.
type LineNumber int

// Number converts a zero-based index to its one-based line number.
func (i LineIndex) Number() LineNumber { return LineNumber(i) + 1 }

// Index converts a one-based line number back to its zero-based index.
func (n LineNumber) Index() LineIndex { return LineIndex(n) - 1 }

// Category is one emotion dimension. Index fixes its angular position.
type Category struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Categories numbers names in the order given.
func Categories(names []string) []Category {
	out := make([]Category, len(names))
	for i, n := range names {
		out[i] = Category{Name: n, Index: i}
	}
	return out
}

// Values holds per-category intensities for a line. Missing categories read as 0.
type Values map[string]float64

func (v Values) Get(category string) float64 { return v[category] }

// Vector returns the values in category order.
func (v Values) Vector(cats []Category) []float64 {
	out := make([]float64, len(cats))
	for i, c := range cats {
		out[i] = v.Get(c.Name)
	}
	return out
}

type Line struct {
	Index     LineIndex `json:"index"`
	BeginTime float64   `json:"begin_time"` // sec
	Text      string    `json:"text"`
	Values    Values    `json:"values,omitempty"`
}

// Number is the line's one-based number.
func (l Line) Number() LineNumber { return l.Index.Number() }

// Timeline is the ordered transcript. BeginTime never decreases with index.
type Timeline []Line

// Last returns the index of the final line. The timeline must not be empty.
func (tl Timeline) Last() LineIndex { return LineIndex(len(tl) - 1) }

// ResolveActiveLine returns the greatest index whose BeginTime is <= t, or 0
// when t precedes every line. Ties resolve to the later line.
func ResolveActiveLine(tl Timeline, t float64) LineIndex {
	i := sort.Search(len(tl), func(i int) bool { return tl[i].BeginTime > t })
	if i == 0 {
		return 0
	}
	return LineIndex(i - 1)
}
