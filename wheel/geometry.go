// Package wheel lays out the radial emotion diagram. Angles are in degrees in
// screen space: 0 points to 3 o'clock and angles grow clockwise, so -90 is
// 12 o'clock.
package wheel

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/maastricht-university/patient-pulse/timeline"
)

const (
	startAngle  = -90.0
	radiusFloor = 0.1
)

type Options struct {
	Radius      float64 `mapstructure:"radius"`
	PadAngle    float64 `mapstructure:"pad_angle"` // degrees between slices
	LabelMargin float64 `mapstructure:"label_margin"`
	Canvas      float64 `mapstructure:"canvas"`
	FontSize    float64 `mapstructure:"font_size"`
}

func DefaultOptions() Options {
	return Options{
		Radius:      500,
		PadAngle:    0.01 * 180 / math.Pi,
		LabelMargin: 10,
		Canvas:      1080,
		FontSize:    36,
	}
}

type Slice struct {
	Category   timeline.Category `json:"category"`
	StartAngle float64           `json:"start_angle"`
	EndAngle   float64           `json:"end_angle"`
	Fill       string            `json:"fill"`
}

func (s Slice) MidAngle() float64 { return (s.StartAngle + s.EndAngle) / 2 }

// Layout splits the full circle into equal slices, one per category, starting
// at 12 o'clock. The layout does not depend on any values.
func Layout(cats []timeline.Category, opts Options) []Slice {
	n := len(cats)
	if n == 0 {
		return nil
	}
	sweep := 360 / float64(n)
	pad := opts.PadAngle
	if pad < 0 || pad >= sweep {
		pad = 0
	}
	out := make([]Slice, n)
	for i, c := range cats {
		a0 := startAngle + float64(i)*sweep + pad/2
		out[i] = Slice{
			Category:   c,
			StartAngle: a0,
			EndAngle:   a0 + sweep - pad,
			Fill:       colorful.Hsl(360*float64(i)/float64(n), 0.7, 0.6).Hex(),
		}
	}
	return out
}

// OuterRadius maps a value to a slice radius. Values are floored at 0.1 and
// doubled, so anything from 0.5 up reaches the full radius.
func OuterRadius(v, radius float64) float64 {
	return radius * math.Min(1, 2*math.Max(radiusFloor, v))
}

// LabelOpacity is 2v capped at 1. Unlike the radius there is no floor.
func LabelOpacity(v float64) float64 {
	return math.Max(0, math.Min(1, 2*v))
}

type Label struct {
	Text    string  `json:"text"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Rotate  float64 `json:"rotate"`
	Anchor  string  `json:"anchor"`
	Opacity float64 `json:"opacity"`
}

// Labels places one label per slice at its mid-angle, just inside the rim.
// Labels on the left half are turned 180 degrees to stay upright and anchored
// at their start so the text runs toward the center.
func Labels(slices []Slice, opts Options) []Label {
	r := opts.Radius - opts.LabelMargin
	out := make([]Label, len(slices))
	for i, s := range slices {
		theta := s.MidAngle()
		rad := theta * math.Pi / 180
		flip := theta <= -90 || theta > 90
		l := Label{
			Text:    s.Category.Name,
			X:       r * math.Cos(rad),
			Y:       r * math.Sin(rad),
			Rotate:  theta,
			Anchor:  "end",
			Opacity: 1,
		}
		if flip {
			l.Rotate += 180
			l.Anchor = "start"
		}
		out[i] = l
	}
	return out
}
