package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/maastricht-university/patient-pulse/orchestrator"
	"github.com/maastricht-university/patient-pulse/wheel"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	highlightStyle = lipgloss.NewStyle().Background(lipgloss.Color("58"))
	panelStyle     = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("135"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	focusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

const (
	barWidth    = 30
	labelWidth  = 12
	detailLimit = 400
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	switch {
	case m.info.ID == "":
	case m.info.Status == orchestrator.StatusFailed:
		b.WriteString(renderError(m.info.Error))
	case !m.ready:
		fmt.Fprintf(&b, "%s extracting entities from %q...", m.spinner.View(), m.info.Title)
	default:
		b.WriteString(m.body())
	}

	b.WriteString("\n\n")
	if m.notice != "" {
		b.WriteString(dimStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) header() string {
	title := titleStyle.Render("Patient Pulse")
	if m.info.ID == "" {
		return title
	}
	return title + dimStyle.Render(fmt.Sprintf("  demo %d: %s  [%s]", m.info.Demo+1, m.info.Title, m.info.Status))
}

func (m Model) body() string {
	height := m.height - 12
	if height < 5 {
		height = 5
	}
	width := m.width / 2
	if width < 30 {
		width = 30
	}

	transcript := boxStyle.Width(width).Render(strings.Join(renderTranscript(m.frame.Transcript, height, width-4), "\n"))
	panels := boxStyle.Render(renderPanels(m.frame.Panels, m.focus))
	top := lipgloss.JoinHorizontal(lipgloss.Top, transcript, " ", panels)

	state := "▶"
	if !m.playing {
		state = "⏸"
	}
	scrub := fmt.Sprintf("%s %s / %s  line %d of %d", state, clock(m.t), clock(m.end()), m.frame.Line, m.info.Lines)
	return top + "\n" + renderWheel(m.frame.Wheel, barWidth) + "\n" + dimStyle.Render(scrub)
}

// renderTranscript shows the last height spans, which always end at the
// active line.
func renderTranscript(spans []orchestrator.Span, height, width int) []string {
	if len(spans) > height {
		spans = spans[len(spans)-height:]
	}
	lines := make([]string, 0, len(spans))
	for _, s := range spans {
		text := fmt.Sprintf("%3d  %s", s.Line, s.Text)
		if width > 0 && lipgloss.Width(text) > width {
			text = truncate(text, width)
		}
		style := lipgloss.NewStyle()
		if s.Active {
			style = activeStyle
		}
		if s.Highlighted {
			style = style.Inherit(highlightStyle)
		}
		lines = append(lines, style.Render(text))
	}
	return lines
}

// renderPanels lists entities under upper-case headers. focus indexes the
// entities across all panels in order.
func renderPanels(panels []orchestrator.Panel, focus int) string {
	var b strings.Builder
	n := 0
	for i, p := range panels {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(panelStyle.Render(p.Title))
		b.WriteString("\n")
		if len(p.Items) == 0 {
			b.WriteString(dimStyle.Render("  none yet"))
			b.WriteString("\n")
		}
		for _, it := range p.Items {
			cursor := "  "
			if n == focus {
				cursor = focusStyle.Render("› ")
			}
			name := it.Name
			if it.Selected {
				name = selectedStyle.Render(name)
			}
			fmt.Fprintf(&b, "%s%s %s\n", cursor, name, dimStyle.Render(lineList(it.Lines)))
			n++
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderWheel draws each slice as a bar whose length follows its outer
// radius, in the slice's fill color.
func renderWheel(st wheel.State, width int) string {
	r := st.Options.Radius
	if r <= 0 {
		r = wheel.DefaultOptions().Radius
	}
	var b strings.Builder
	for i, s := range st.Slices {
		var radius, opacity float64
		if i < len(st.Radii) {
			radius = st.Radii[i]
		}
		if i < len(st.Labels) {
			opacity = st.Labels[i].Opacity
		}
		label := fmt.Sprintf("%-*s", labelWidth, truncate(s.Category.Name, labelWidth))
		if opacity < 0.5 {
			label = dimStyle.Render(label)
		}
		n := int(radius / r * float64(width))
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Fill)).Render(strings.Repeat("█", n))
		b.WriteString(label + " " + bar + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderError(info *orchestrator.ErrorInfo) string {
	if info == nil {
		return errorStyle.Render("load failed")
	}
	out := errorStyle.Render(info.Kind+": "+info.Message)
	if info.Detail != "" {
		out += "\n" + dimStyle.Render(truncate(info.Detail, detailLimit))
	}
	return out
}

func lineList[T ~int](lines []T) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprint(int(l))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
