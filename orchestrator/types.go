package orchestrator

import (
	"github.com/maastricht-university/patient-pulse/entities"
	"github.com/maastricht-university/patient-pulse/timeline"
	"github.com/maastricht-university/patient-pulse/wheel"
)

// PlaybackCursor is the latest transport time and the line it resolved to.
// Only the Synchronizer writes it.
type PlaybackCursor struct {
	CurrentTime float64            `json:"current_time"` // sec
	Active      timeline.LineIndex `json:"active_line_index"`
}

type EntityRef struct {
	Kind entities.Kind `json:"kind"`
	Name string        `json:"name"`
}

// Span is one rendered transcript line.
type Span struct {
	Line        timeline.LineNumber `json:"line"`
	Text        string              `json:"text"`
	Active      bool                `json:"active,omitempty"`
	Highlighted bool                `json:"highlighted,omitempty"`
}

type PanelItem struct {
	Name     string                `json:"name"`
	Lines    []timeline.LineNumber `json:"lines"`
	Selected bool                  `json:"selected,omitempty"`
}

// Panel is a full replacement of one entity list.
type Panel struct {
	Kind  entities.Kind `json:"kind"`
	Title string        `json:"title"`
	Items []PanelItem   `json:"items"`
}

// Frame is everything the views show for one time signal. All parts derive
// from the same active line.
type Frame struct {
	Time       float64             `json:"time"`
	Active     timeline.LineIndex  `json:"active_line_index"`
	Line       timeline.LineNumber `json:"active_line"`
	Transcript []Span              `json:"transcript"`
	Panels     []Panel             `json:"panels"`
	Emotions   map[string]float64  `json:"emotions"`
	Wheel      wheel.State         `json:"wheel"`
}
