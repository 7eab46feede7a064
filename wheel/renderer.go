package wheel

import (
	"time"

	"github.com/maastricht-university/patient-pulse/timeline"
)

// State is everything needed to draw the wheel at one instant.
type State struct {
	Options Options   `json:"-"`
	Slices  []Slice   `json:"slices"`
	Radii   []float64 `json:"radii"`
	Labels  []Label   `json:"labels"`
	Settled bool      `json:"settled"`
}

// Renderer keeps the fixed layout and the last requested snapshot so that
// successive updates animate instead of jumping. It is not safe for
// concurrent use.
type Renderer struct {
	opts   Options
	cats   []timeline.Category
	slices []Slice
	labels []Label
	anim   *Transition
}

func NewRenderer(cats []timeline.Category, opts Options, transition time.Duration) *Renderer {
	slices := Layout(cats, opts)
	return &Renderer{
		opts:   opts,
		cats:   cats,
		slices: slices,
		labels: Labels(slices, opts),
		anim:   NewTransition(transition, Full(len(slices), opts.Radius)),
	}
}

func (r *Renderer) Categories() []timeline.Category { return r.cats }

// Update starts animating toward the given line's values.
func (r *Renderer) Update(values timeline.Values, now time.Time) {
	r.anim.Retarget(Target(values.Vector(r.cats), r.opts.Radius), now)
}

// Target is the state the wheel settles on, without animation.
func (r *Renderer) Target() State {
	return r.compose(r.anim.Target(), true)
}

func (r *Renderer) State(now time.Time) State {
	return r.compose(r.anim.At(now), r.anim.Settled(now))
}

func (r *Renderer) compose(snap Snapshot, settled bool) State {
	labels := make([]Label, len(r.labels))
	copy(labels, r.labels)
	for i := range labels {
		labels[i].Opacity = snap.Opacity[i]
	}
	return State{
		Options: r.opts,
		Slices:  r.slices,
		Radii:   snap.Radii,
		Labels:  labels,
		Settled: settled,
	}
}
