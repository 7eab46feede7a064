package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/patient-pulse/catalog"
	"github.com/maastricht-university/patient-pulse/entities"
	"github.com/maastricht-university/patient-pulse/timeline"
	"github.com/maastricht-university/patient-pulse/wheel"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

type Options struct {
	Wheel      wheel.Options
	Transition time.Duration
	Outputs    string
	Now        func() time.Time
}

// Session is one demo selection, from loading to teardown.
type Session struct {
	ID        uuid.UUID
	DemoIndex int
	Demo      catalog.Demo
	Status    Status
	Err       error
	Timeline  timeline.Timeline
	Entities  entities.Set

	sync *Synchronizer
	done chan struct{}
}

// Info is a snapshot of a session for display.
type Info struct {
	ID       string     `json:"id"`
	Demo     int        `json:"demo"`
	Title    string     `json:"title"`
	Audio    string     `json:"audio"`
	Status   Status     `json:"status"`
	Lines    int        `json:"lines,omitempty"`
	End      float64    `json:"end,omitempty"` // begin time of the last line
	Entities int        `json:"entities,omitempty"`
	Error    *ErrorInfo `json:"error,omitempty"`
}

func (s *Session) info() Info {
	var end float64
	if len(s.Timeline) > 0 {
		end = s.Timeline[s.Timeline.Last()].BeginTime
	}
	return Info{
		ID:       s.ID.String(),
		Demo:     s.DemoIndex,
		Title:    s.Demo.Title,
		Audio:    s.Demo.Audio,
		Status:   s.Status,
		Lines:    len(s.Timeline),
		End:      end,
		Entities: s.Entities.Count(),
		Error:    describe(s.Err),
	}
}

// Manager owns the active session. Every signal, whether a time update, a
// click or a new selection, is applied under one lock and in arrival order.
type Manager struct {
	mu     sync.Mutex
	loader Loader
	cat    *catalog.Catalog
	opts   Options
	log    logrus.FieldLogger

	cur    *Session
	cancel context.CancelFunc
	loads  sync.WaitGroup
}

func NewManager(loader Loader, cat *catalog.Catalog, opts Options, log logrus.FieldLogger) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{loader: loader, cat: cat, opts: opts, log: log}
}

func (m *Manager) Catalog() *catalog.Catalog { return m.cat }

// Select starts loading a demo and makes it the active session. Any
// in-flight load for an earlier session is cancelled and its result dropped.
func (m *Manager) Select(demo int, token string) (Info, error) {
	if token == "" {
		return Info{}, ErrAuthRequired
	}
	d, err := m.cat.Demo(demo)
	if err != nil {
		return Info{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        uuid.New(),
		DemoIndex: demo,
		Demo:      d,
		Status:    StatusLoading,
		done:      make(chan struct{}),
	}
	m.cur, m.cancel = s, cancel
	m.log.WithFields(logrus.Fields{"session": s.ID, "demo": d.Title}).Info("demo selected")

	m.loads.Add(1)
	go m.load(ctx, s, token)
	return s.info(), nil
}

func (m *Manager) load(ctx context.Context, s *Session, token string) {
	defer m.loads.Done()
	tl, set, err := m.loader.Load(ctx, s.Demo, m.cat.Emotions, token)
	m.finish(s, tl, set, err)
}

func (m *Manager) finish(s *Session, tl timeline.Timeline, set entities.Set, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer close(s.done)

	log := m.log.WithField("session", s.ID)
	if m.cur != s {
		log.Info("dropping result of replaced session")
		s.Status, s.Err = StatusFailed, ErrStaleSession
		return
	}
	if err != nil {
		s.Status, s.Err = StatusFailed, err
		log.WithError(err).Warn("demo failed to load")
		return
	}
	r := wheel.NewRenderer(m.cat.Categories(), m.opts.Wheel, m.opts.Transition)
	s.Timeline, s.Entities = tl, set
	s.sync = NewSynchronizer(tl, set, r, m.opts.Now)
	s.Status = StatusReady
	log.Info("session ready")
}

// Wait blocks until session id has finished loading.
func (m *Manager) Wait(ctx context.Context, id string) (Info, error) {
	m.mu.Lock()
	s := m.cur
	m.mu.Unlock()
	if s == nil || s.ID.String() != id {
		return Info{}, ErrStaleSession
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		return Info{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur != s {
		return Info{}, ErrStaleSession
	}
	return s.info(), s.Err
}

func (m *Manager) Info() (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return Info{}, ErrNoSession
	}
	return m.cur.info(), nil
}

// ready returns the active session if it can take playback signals.
func (m *Manager) ready() (*Session, error) {
	switch {
	case m.cur == nil:
		return nil, ErrNoSession
	case m.cur.Status == StatusLoading:
		return nil, ErrNotReady
	case m.cur.Status == StatusFailed:
		return nil, m.cur.Err
	}
	return m.cur, nil
}

// Tick applies a transport time signal.
func (m *Manager) Tick(t float64) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.ready()
	if err != nil {
		return Frame{}, err
	}
	return s.sync.Advance(t), nil
}

// Toggle applies an entity click.
func (m *Manager) Toggle(ref EntityRef) (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.ready()
	if err != nil {
		return Frame{}, err
	}
	return s.sync.Select(ref)
}

// Frame re-renders the current cursor without a new signal.
func (m *Manager) Frame() (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.ready()
	if err != nil {
		return Frame{}, err
	}
	return s.sync.Frame(), nil
}

func (m *Manager) Wheel() (wheel.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.ready()
	if err != nil {
		return wheel.State{}, err
	}
	return s.sync.Wheel(), nil
}

// Export writes the active session to the outputs directory.
func (m *Manager) Export() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.ready()
	if err != nil {
		return "", err
	}
	cur := s.sync.Cursor()
	path, err := persist(m.opts.Outputs, Bundle{
		SessionID:   s.ID.String(),
		Demo:        s.Demo,
		GeneratedAt: m.opts.Now(),
		Time:        cur.CurrentTime,
		ActiveLine:  cur.Active.Number(),
		Lines:       len(s.Timeline),
		Entities:    s.Entities,
		Highlighted: s.sync.Selection().Lines(),
	})
	if err != nil {
		return "", err
	}
	m.log.WithFields(logrus.Fields{"session": s.ID, "path": path}).Info("session exported")
	return path, nil
}

// Close tears down the active session and waits for every load it
// started, so nothing touches the loader's resources afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.cur, m.cancel = nil, nil
	m.mu.Unlock()
	m.loads.Wait()
}
