package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/patient-pulse/catalog"
	"github.com/maastricht-university/patient-pulse/entities"
	"github.com/maastricht-university/patient-pulse/timeline"
	"github.com/maastricht-university/patient-pulse/wheel"
)

type loadResult struct {
	tl  timeline.Timeline
	set entities.Set
	err error
}

// gatedLoader blocks each Load until the test releases that demo.
type gatedLoader struct {
	mu    sync.Mutex
	gates map[string]chan loadResult
}

func newGatedLoader(titles ...string) *gatedLoader {
	g := &gatedLoader{gates: map[string]chan loadResult{}}
	for _, t := range titles {
		g.gates[t] = make(chan loadResult, 1)
	}
	return g
}

func (g *gatedLoader) release(title string, r loadResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gates[title] <- r
}

func (g *gatedLoader) Load(ctx context.Context, demo catalog.Demo, _ []string, _ string) (timeline.Timeline, entities.Set, error) {
	g.mu.Lock()
	gate := g.gates[demo.Title]
	g.mu.Unlock()
	// a cancelled load still reports whatever it was given, like a late response
	r := <-gate
	return r.tl, r.set, r.err
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Demos: []catalog.Demo{
			{Title: "first", Audio: "first.mp3", Prosody: "first.csv"},
			{Title: "second", Audio: "second.mp3", Prosody: "second.csv"},
		},
		Emotions: []string{"sad", "joy"},
	}
}

func newManager(t *testing.T, loader Loader) (*Manager, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	m := NewManager(loader, testCatalog(), Options{
		Wheel:      wheel.DefaultOptions(),
		Transition: 0,
		Outputs:    t.TempDir(),
		Now:        func() time.Time { return time.Unix(2000, 0) },
	}, log)
	t.Cleanup(m.Close)
	return m, hook
}

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestManagerLifecycle(t *testing.T) {
	loader := newGatedLoader("first")
	m, _ := newManager(t, loader)

	_, err := m.Tick(1)
	assert.ErrorIs(t, err, ErrNoSession)

	info, err := m.Select(0, "tok")
	require.NoError(t, err)
	assert.Equal(t, StatusLoading, info.Status)
	assert.Equal(t, "first.mp3", info.Audio)

	_, err = m.Tick(1)
	assert.ErrorIs(t, err, ErrNotReady)

	loader.release("first", loadResult{tl: scenarioTimeline(), set: scenarioEntities()})
	info, err = m.Wait(waitCtx(t), info.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, info.Status)
	assert.Equal(t, 3, info.Lines)
	assert.Equal(t, 3, info.Entities)

	f, err := m.Tick(3)
	require.NoError(t, err)
	assert.Equal(t, timeline.LineIndex(1), f.Active)

	f, err = m.Toggle(EntityRef{Kind: entities.Drugs, Name: "aspirin"})
	require.NoError(t, err)
	assert.True(t, f.Transcript[1].Highlighted)

	st, err := m.Wheel()
	require.NoError(t, err)
	assert.Len(t, st.Slices, 2)

	f, err = m.Frame()
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.Time)
}

func TestManagerRequiresCredential(t *testing.T) {
	m, _ := newManager(t, newGatedLoader())
	_, err := m.Select(0, "")
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = m.Info()
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Select(7, "tok")
	assert.Error(t, err)
}

func TestManagerDropsStaleResult(t *testing.T) {
	loader := newGatedLoader("first", "second")
	m, hook := newManager(t, loader)

	first, err := m.Select(0, "tok")
	require.NoError(t, err)
	second, err := m.Select(1, "tok")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = m.Wait(waitCtx(t), first.ID)
	assert.ErrorIs(t, err, ErrStaleSession)

	// the old request answers late; it must not become the active session
	late := timeline.Timeline{{Index: 0, BeginTime: 0, Text: "stale"}}
	loader.release("first", loadResult{tl: late, set: entities.Set{}})
	assert.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "dropping result of replaced session" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	info, err := m.Info()
	require.NoError(t, err)
	assert.Equal(t, second.ID, info.ID)
	assert.Equal(t, StatusLoading, info.Status)

	loader.release("second", loadResult{tl: scenarioTimeline(), set: scenarioEntities()})
	_, err = m.Wait(waitCtx(t), second.ID)
	require.NoError(t, err)
	f, err := m.Tick(0)
	require.NoError(t, err)
	assert.Equal(t, "Hi", f.Transcript[0].Text)
}

func TestManagerFailedSession(t *testing.T) {
	loader := newGatedLoader("first")
	m, _ := newManager(t, loader)

	info, err := m.Select(0, "tok")
	require.NoError(t, err)
	loader.release("first", loadResult{err: &ExtractionParseError{Err: errors.New("unexpected token"), Raw: "<html>"}})

	info, err = m.Wait(waitCtx(t), info.ID)
	var pe *ExtractionParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StatusFailed, info.Status)
	require.NotNil(t, info.Error)
	assert.Equal(t, KindParseFailed, info.Error.Kind)
	assert.Equal(t, "unexpected token", info.Error.Message)
	assert.Equal(t, "<html>", info.Error.Detail)

	_, err = m.Tick(1)
	assert.True(t, errors.As(err, &pe))
}

func TestManagerExport(t *testing.T) {
	loader := newGatedLoader("first")
	m, _ := newManager(t, loader)
	info, err := m.Select(0, "tok")
	require.NoError(t, err)
	loader.release("first", loadResult{tl: scenarioTimeline(), set: scenarioEntities()})
	_, err = m.Wait(waitCtx(t), info.ID)
	require.NoError(t, err)

	_, err = m.Tick(6)
	require.NoError(t, err)
	_, err = m.Toggle(EntityRef{Kind: entities.Symptoms, Name: "pain"})
	require.NoError(t, err)

	path, err := m.Export()
	require.NoError(t, err)
	assert.Equal(t, "session_"+info.ID, filepath.Base(filepath.Dir(path)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var b Bundle
	require.NoError(t, json.Unmarshal(raw, &b))
	assert.Equal(t, info.ID, b.SessionID)
	assert.Equal(t, timeline.LineNumber(3), b.ActiveLine)
	assert.Equal(t, []timeline.LineNumber{2, 3}, b.Highlighted)
	assert.Equal(t, "aspirin", b.Entities[entities.Drugs][0].Name)
}

func TestDescribe(t *testing.T) {
	assert.Nil(t, describe(nil))
	assert.Equal(t, KindAuthRequired, describe(&AuthError{LoginURL: "x"}).Kind)
	d := describe(&ExtractionRequestError{Status: "500 Internal Server Error", Code: 500, Body: "boom"})
	assert.Equal(t, KindRequestFailed, d.Kind)
	assert.Equal(t, "boom", d.Detail)
	assert.Equal(t, KindLoadFailed, describe(errors.New("disk")).Kind)
}

// slowLoader returns only after its context is cancelled and a short delay.
type slowLoader struct {
	returned atomic.Bool
}

func (l *slowLoader) Load(ctx context.Context, _ catalog.Demo, _ []string, _ string) (timeline.Timeline, entities.Set, error) {
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	l.returned.Store(true)
	return nil, nil, ctx.Err()
}

func TestManagerCloseWaitsForLoads(t *testing.T) {
	loader := &slowLoader{}
	m, _ := newManager(t, loader)
	_, err := m.Select(0, "tok")
	require.NoError(t, err)
	_, err = m.Select(1, "tok")
	require.NoError(t, err)

	m.Close()
	assert.True(t, loader.returned.Load())
	_, err = m.Info()
	assert.ErrorIs(t, err, ErrNoSession)
}
