package wheel

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
)

// SVG draws the state as a standalone SVG document.
func SVG(s State) string {
	c := s.Options.Canvas
	if c <= 0 {
		c = 2 * s.Options.Radius
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s">`, num(c), num(c))
	b.WriteByte('\n')

	fmt.Fprintf(&b, `<g class="slices" transform="translate(%s, %s)">`, num(c/2), num(c/2))
	b.WriteByte('\n')
	for i, sl := range s.Slices {
		fmt.Fprintf(&b, `<path data-category="%s" d="%s" fill="%s" stroke="#fff" stroke-width="2"/>`,
			html.EscapeString(sl.Category.Name), arcPath(sl, s.Radii[i]), sl.Fill)
		b.WriteByte('\n')
	}
	b.WriteString("</g>\n")

	fmt.Fprintf(&b, `<g class="labels" transform="translate(%s, %s)">`, num(c/2), num(c/2))
	b.WriteByte('\n')
	for _, l := range s.Labels {
		fmt.Fprintf(&b, `<text transform="translate(%s, %s) rotate(%s)" text-anchor="%s" dominant-baseline="middle" font-size="%spx" style="opacity: %s">%s</text>`,
			num(l.X), num(l.Y), num(l.Rotate), l.Anchor, num(s.Options.FontSize), num(l.Opacity), html.EscapeString(l.Text))
		b.WriteByte('\n')
	}
	b.WriteString("</g>\n</svg>\n")
	return b.String()
}

// arcPath is a pie wedge from the center out to radius r.
func arcPath(s Slice, r float64) string {
	span := s.EndAngle - s.StartAngle
	if span >= 360-1e-9 {
		// a full circle cannot be drawn with a single arc command
		return fmt.Sprintf("M%s,0A%s,%s 0 1 1 %s,0A%s,%s 0 1 1 %s,0Z",
			num(r), num(r), num(r), num(-r), num(r), num(r), num(r))
	}
	x0, y0 := polar(r, s.StartAngle)
	x1, y1 := polar(r, s.EndAngle)
	large := 0
	if span > 180 {
		large = 1
	}
	return fmt.Sprintf("M0,0L%s,%sA%s,%s 0 %d 1 %s,%sZ",
		num(x0), num(y0), num(r), num(r), large, num(x1), num(y1))
}

func polar(r, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return r * math.Cos(rad), r * math.Sin(rad)
}

func num(f float64) string {
	f = math.Round(f*1000) / 1000
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
