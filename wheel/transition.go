package wheel

import "time"

// Snapshot is the value-driven part of the wheel: one outer radius and one
// label opacity per slice.
type Snapshot struct {
	Radii   []float64 `json:"radii"`
	Opacity []float64 `json:"opacity"`
}

// Target computes the snapshot for a category value vector.
func Target(values []float64, radius float64) Snapshot {
	s := Snapshot{Radii: make([]float64, len(values)), Opacity: make([]float64, len(values))}
	for i, v := range values {
		s.Radii[i] = OuterRadius(v, radius)
		s.Opacity[i] = LabelOpacity(v)
	}
	return s
}

// Full is the snapshot drawn before any value arrives: every slice at full
// radius with visible labels.
func Full(n int, radius float64) Snapshot {
	s := Snapshot{Radii: make([]float64, n), Opacity: make([]float64, n)}
	for i := range s.Radii {
		s.Radii[i] = radius
		s.Opacity[i] = 1
	}
	return s
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Radii:   append([]float64(nil), s.Radii...),
		Opacity: append([]float64(nil), s.Opacity...),
	}
}

// Transition eases slice radii from one snapshot to the next. Opacity is
// applied immediately. Retargeting mid-flight starts from wherever the
// animation currently is.
type Transition struct {
	Duration time.Duration

	from, to Snapshot
	start    time.Time
}

func NewTransition(d time.Duration, initial Snapshot) *Transition {
	return &Transition{Duration: d, from: initial.clone(), to: initial.clone()}
}

func (t *Transition) Retarget(to Snapshot, now time.Time) {
	cur := t.At(now)
	if len(cur.Radii) != len(to.Radii) {
		cur = to
	}
	t.from = cur.clone()
	t.to = to.clone()
	t.start = now
}

func (t *Transition) Target() Snapshot { return t.to.clone() }

func (t *Transition) Settled(now time.Time) bool {
	return t.Duration <= 0 || now.Sub(t.start) >= t.Duration
}

// At returns the interpolated snapshot. Once the duration has elapsed it is
// exactly the target.
func (t *Transition) At(now time.Time) Snapshot {
	if t.Settled(now) {
		return t.to.clone()
	}
	p := float64(now.Sub(t.start)) / float64(t.Duration)
	if p < 0 {
		p = 0
	}
	k := easeCubicInOut(p)
	out := t.to.clone()
	for i := range out.Radii {
		out.Radii[i] = t.from.Radii[i] + (t.to.Radii[i]-t.from.Radii[i])*k
	}
	return out
}

func easeCubicInOut(p float64) float64 {
	p *= 2
	if p <= 1 {
		return p * p * p / 2
	}
	p -= 2
	return (p*p*p + 2) / 2
}
