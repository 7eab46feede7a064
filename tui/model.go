// Package tui is a terminal player for a demo session. A simulated
// transport clock drives the same Manager the HTTP server uses.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/patient-pulse/orchestrator"
)

const seekStep = 5.0 // sec

// loadedMsg reports the end of a demo load.
type loadedMsg struct {
	id   string
	info orchestrator.Info
	err  error
}

// tickMsg advances the transport clock. seq identifies the play run that
// scheduled it so that ticks from a paused run or an old session are ignored.
type tickMsg struct {
	seq int
}

type Model struct {
	mgr   *orchestrator.Manager
	token string
	step  time.Duration
	tail  float64 // sec of playback after the last line begins
	log   logrus.FieldLogger

	demo    int
	info    orchestrator.Info
	frame   orchestrator.Frame
	ready   bool
	playing bool
	seq     int
	t       float64
	focus   int
	notice  string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	width   int
	height  int
}

// New builds a player that starts on demo. step is the transport tick and
// tail how long playback continues once the last line has begun.
func New(mgr *orchestrator.Manager, token string, demo int, step, tail time.Duration, log logrus.FieldLogger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return Model{
		mgr:     mgr,
		token:   token,
		step:    step,
		tail:    max(0, tail.Seconds()),
		log:     log,
		demo:    demo,
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return selectMsg{demo: m.demo} }
}

type selectMsg struct{ demo int }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case selectMsg:
		return m.selectDemo(msg.demo)

	case loadedMsg:
		if msg.id != m.info.ID {
			return m, nil
		}
		if msg.info.ID != "" {
			m.info = msg.info
		}
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("session", msg.id).Warn("demo failed")
			if m.info.Error == nil {
				m.info.Status = orchestrator.StatusFailed
				m.info.Error = &orchestrator.ErrorInfo{Kind: orchestrator.KindLoadFailed, Message: msg.err.Error()}
			}
			return m, nil
		}
		m.ready = true
		return m.seek(0), nil

	case tickMsg:
		if msg.seq != m.seq || !m.playing {
			return m, nil
		}
		m = m.seek(m.t + m.step.Seconds())
		if m.t >= m.end() {
			m.playing = false
			return m, nil
		}
		return m, m.scheduleTick()

	case spinner.TickMsg:
		if m.ready || m.info.Status == orchestrator.StatusFailed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Demo):
		n := len(m.mgr.Catalog().Demos)
		if n == 0 {
			return m, nil
		}
		return m.selectDemo((m.demo + 1) % n)
	}
	if !m.ready {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Play):
		m.playing = !m.playing
		m.seq++
		if m.playing {
			if m.t >= m.end() {
				m = m.seek(0)
			}
			return m, m.scheduleTick()
		}
	case key.Matches(msg, m.keys.Back):
		m = m.seek(m.t - seekStep)
	case key.Matches(msg, m.keys.Forward):
		m = m.seek(m.t + seekStep)
	case key.Matches(msg, m.keys.Next):
		m.focus = wrap(m.focus+1, len(focusables(m.frame)))
	case key.Matches(msg, m.keys.Prev):
		m.focus = wrap(m.focus-1, len(focusables(m.frame)))
	case key.Matches(msg, m.keys.Toggle):
		refs := focusables(m.frame)
		if m.focus >= len(refs) {
			return m, nil
		}
		f, err := m.mgr.Toggle(refs[m.focus])
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.frame = f
	case key.Matches(msg, m.keys.Export):
		path, err := m.mgr.Export()
		if err != nil {
			m.notice = "export failed: " + err.Error()
			return m, nil
		}
		m.notice = "exported " + path
	}
	return m, nil
}

func (m Model) selectDemo(demo int) (tea.Model, tea.Cmd) {
	info, err := m.mgr.Select(demo, m.token)
	if err != nil {
		m.notice = err.Error()
		if errors.Is(err, orchestrator.ErrAuthRequired) {
			m.notice = "not logged in: set services.identity.token or PULSE_SERVICES_IDENTITY_TOKEN"
		}
		return m, nil
	}
	m.demo, m.info = demo, info
	m.frame = orchestrator.Frame{}
	m.ready, m.playing = false, false
	m.seq++
	m.t, m.focus, m.notice = 0, 0, ""
	return m, tea.Batch(m.spinner.Tick, m.wait(info.ID))
}

func (m Model) wait(id string) tea.Cmd {
	mgr := m.mgr
	return func() tea.Msg {
		info, err := mgr.Wait(context.Background(), id)
		return loadedMsg{id: id, info: info, err: err}
	}
}

func (m Model) scheduleTick() tea.Cmd {
	seq := m.seq
	return tea.Tick(m.step, func(time.Time) tea.Msg { return tickMsg{seq: seq} })
}

// seek moves the transport to t, clamped to the recording.
func (m Model) seek(t float64) Model {
	t = max(0, min(t, m.end()))
	f, err := m.mgr.Tick(t)
	if err != nil {
		m.notice = err.Error()
		return m
	}
	m.t, m.frame = t, f
	if n := len(focusables(f)); m.focus >= n {
		m.focus = max(0, n-1)
	}
	return m
}

// end is where the transport stops.
func (m Model) end() float64 { return m.info.End + m.tail }

// focusables lists the visible entities in panel order.
func focusables(f orchestrator.Frame) []orchestrator.EntityRef {
	var refs []orchestrator.EntityRef
	for _, p := range f.Panels {
		for _, it := range p.Items {
			refs = append(refs, orchestrator.EntityRef{Kind: p.Kind, Name: it.Name})
		}
	}
	return refs
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// clock formats seconds as mm:ss.s.
func clock(sec float64) string {
	return fmt.Sprintf("%02d:%04.1f", int(sec)/60, math.Mod(sec, 60))
}
