package orchestrator

import (
	"strings"
	"time"

	"github.com/maastricht-university/patient-pulse/entities"
	"github.com/maastricht-university/patient-pulse/timeline"
	"github.com/maastricht-university/patient-pulse/wheel"
)

// Synchronizer turns transport time signals into Frames. It owns the
// playback cursor and the selection; the timeline and entities are read-only.
// Calls must not overlap.
type Synchronizer struct {
	tl    timeline.Timeline
	ents  entities.Set
	wheel *wheel.Renderer
	now   func() time.Time

	cursor  PlaybackCursor
	sel     SelectionState
	started bool
}

// NewSynchronizer requires a non-empty timeline.
func NewSynchronizer(tl timeline.Timeline, ents entities.Set, r *wheel.Renderer, now func() time.Time) *Synchronizer {
	if now == nil {
		now = time.Now
	}
	return &Synchronizer{tl: tl, ents: ents, wheel: r, now: now}
}

// Advance handles one time signal. The wheel is only retargeted when the
// active line changes, so repeating a time changes nothing.
func (s *Synchronizer) Advance(t float64) Frame {
	active := timeline.ResolveActiveLine(s.tl, t)
	if !s.started || active != s.cursor.Active {
		s.wheel.Update(s.tl[active].Values, s.now())
		s.started = true
	}
	s.cursor = PlaybackCursor{CurrentTime: t, Active: active}
	return s.Frame()
}

// Select toggles the highlight for an entity currently shown in a panel.
func (s *Synchronizer) Select(ref EntityRef) (Frame, error) {
	for _, e := range s.ents.Visible(s.cursor.Active)[ref.Kind] {
		if e.Name == ref.Name {
			s.sel.Toggle(ref, e.Lines)
			return s.Frame(), nil
		}
	}
	return Frame{}, ErrUnknownEntity
}

func (s *Synchronizer) Cursor() PlaybackCursor { return s.cursor }

func (s *Synchronizer) Selection() SelectionState { return s.sel }

func (s *Synchronizer) Wheel() wheel.State { return s.wheel.State(s.now()) }

// Frame renders the views for the current cursor.
func (s *Synchronizer) Frame() Frame {
	active := s.cursor.Active
	line := s.tl[active]

	spans := make([]Span, 0, active+1)
	for _, l := range s.tl[:active+1] {
		spans = append(spans, Span{
			Line:        l.Number(),
			Text:        l.Text,
			Active:      l.Index == active,
			Highlighted: s.sel.Has(l.Number()),
		})
	}

	visible := s.ents.Visible(active)
	panels := make([]Panel, 0, len(entities.Kinds))
	for _, k := range entities.Kinds {
		p := Panel{Kind: k, Title: strings.ToUpper(string(k)), Items: []PanelItem{}}
		for _, e := range visible[k] {
			p.Items = append(p.Items, PanelItem{
				Name:     e.Name,
				Lines:    e.Lines,
				Selected: s.sel.Is(EntityRef{Kind: k, Name: e.Name}),
			})
		}
		panels = append(panels, p)
	}

	cats := s.wheel.Categories()
	vec := line.Values.Vector(cats)
	emotions := make(map[string]float64, len(cats))
	for i, c := range cats {
		emotions[c.Name] = vec[i]
	}

	return Frame{
		Time:       s.cursor.CurrentTime,
		Active:     active,
		Line:       active.Number(),
		Transcript: spans,
		Panels:     panels,
		Emotions:   emotions,
		Wheel:      s.wheel.State(s.now()),
	}
}
