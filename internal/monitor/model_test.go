package monitor

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/rbnvfd/internal/display"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
	"github.com/rileyhilliard/rbnvfd/internal/rbn"
	"github.com/rileyhilliard/rbnvfd/internal/spot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStation struct {
	mu          sync.Mutex
	snap        Snapshot
	connects    int
	disconnects int
	reopens     int
	reopenErr   error
	forceIdle   bool
	tuned       []spot.AggregatedSpot
	tuneErr     error
}

func (f *fakeStation) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.snap
	s.ForceIdle = f.forceIdle
	return s
}

func (f *fakeStation) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return nil
}

func (f *fakeStation) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakeStation) ReopenDisplay() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reopens++
	return f.reopenErr
}

func (f *fakeStation) SetForceIdle(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forceIdle = on
}

func (f *fakeStation) Tune(s spot.AggregatedSpot) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tuneErr != nil {
		return "", f.tuneErr
	}
	f.tuned = append(f.tuned, s)
	return "Tuned " + s.Call, nil
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testSpots(calls ...string) []spot.AggregatedSpot {
	out := make([]spot.AggregatedSpot, len(calls))
	for i, c := range calls {
		f := 7000.0 + float64(i)*5
		out[i] = spot.AggregatedSpot{
			Call:         c,
			FrequencyKHz: f,
			CenterKHz:    spot.CenterKHz(f),
			HighestSNR:   10 + i,
			Mode:         "CW",
			LastSeen:     t0,
		}
	}
	return out
}

func newTestModel(st *fakeStation) Model {
	return NewModel(st, time.Second, nil)
}

// update applies msg and returns the concrete model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	require.True(t, ok)
	return mm, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := NewModel(&fakeStation{}, 0, nil)
	assert.Equal(t, DefaultInterval, m.interval)
	_, ok := m.SelectedSpot()
	assert.False(t, ok)
	assert.NotNil(t, m.Init())
}

func TestModel_SnapshotFillsTable(t *testing.T) {
	m := newTestModel(&fakeStation{})
	m, _ = update(t, m, snapshotMsg(Snapshot{Time: t0, Spots: testSpots("W6JSV", "K9LC")}))

	assert.Len(t, m.table.Rows(), 2)
	s, ok := m.SelectedSpot()
	require.True(t, ok)
	assert.Equal(t, "W6JSV", s.Call)
}

func TestModel_SelectionFollowsStation(t *testing.T) {
	m := newTestModel(&fakeStation{})
	m, _ = update(t, m, snapshotMsg(Snapshot{Time: t0, Spots: testSpots("A1A", "B2B", "C3C")}))
	m, _ = update(t, m, key("down"))

	s, _ := m.SelectedSpot()
	require.Equal(t, "B2B", s.Call)

	// A new station sorts in ahead; the cursor stays on B2B.
	next := append(testSpots("Z9Z"), testSpots("A1A", "B2B", "C3C")...)
	next[0].FrequencyKHz, next[0].CenterKHz = 6990, 6990
	m, _ = update(t, m, snapshotMsg(Snapshot{Time: t0, Spots: next}))

	s, _ = m.SelectedSpot()
	assert.Equal(t, "B2B", s.Call)
}

func TestModel_SelectionClampsWhenListShrinks(t *testing.T) {
	m := newTestModel(&fakeStation{})
	m, _ = update(t, m, snapshotMsg(Snapshot{Time: t0, Spots: testSpots("A1A", "B2B", "C3C")}))
	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("down"))

	m, _ = update(t, m, snapshotMsg(Snapshot{Time: t0, Spots: testSpots("X1X")}))
	s, ok := m.SelectedSpot()
	require.True(t, ok)
	assert.Equal(t, "X1X", s.Call)
}

func TestModel_ConnectDisconnectReopen(t *testing.T) {
	st := &fakeStation{snap: Snapshot{Addr: "rbn.example:7000"}}
	m := newTestModel(st)
	m, _ = update(t, m, snapshotMsg(st.Snapshot()))

	m, cmd := update(t, m, key(KeyConnect))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	msg, isErr := m.Message()
	assert.Equal(t, "Connecting to rbn.example:7000", msg)
	assert.False(t, isErr)

	m, cmd = update(t, m, key(KeyDisconnect))
	m, _ = update(t, m, cmd())
	msg, _ = m.Message()
	assert.Equal(t, "Disconnected", msg)

	st.reopenErr = errors.New("device absent\nmore detail")
	m, cmd = update(t, m, key(KeyReopen))
	m, _ = update(t, m, cmd())
	msg, isErr = m.Message()
	assert.Equal(t, "device absent", msg)
	assert.True(t, isErr)

	assert.Equal(t, 1, st.connects)
	assert.Equal(t, 1, st.disconnects)
	assert.Equal(t, 1, st.reopens)
}

func TestModel_ToggleIdle(t *testing.T) {
	st := &fakeStation{}
	m := newTestModel(st)

	m, cmd := update(t, m, key(KeyIdle))
	assert.True(t, st.forceIdle)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.True(t, m.snap.ForceIdle)

	_, _ = update(t, m, key(KeyIdle))
	assert.False(t, st.forceIdle)
}

func TestModel_TuneSelected(t *testing.T) {
	st := &fakeStation{}
	m := newTestModel(st)

	_, cmd := update(t, m, key(KeyTune))
	assert.Nil(t, cmd, "nothing to tune without spots")

	m, _ = update(t, m, snapshotMsg(Snapshot{Time: t0, Spots: testSpots("W6JSV", "K9LC")}))
	m, _ = update(t, m, key("down"))
	m, cmd = update(t, m, key("enter"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	require.Len(t, st.tuned, 1)
	assert.Equal(t, "K9LC", st.tuned[0].Call)
	msg, _ := m.Message()
	assert.Equal(t, "Tuned K9LC", msg)

	st.tuneErr = errors.New("radio not connected")
	m, cmd = update(t, m, key(KeyTune))
	m, _ = update(t, m, cmd())
	msg, isErr := m.Message()
	assert.Equal(t, "radio not connected", msg)
	assert.True(t, isErr)
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(&fakeStation{})
	m, cmd := update(t, m, key(KeyQuit))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_HelpOverlay(t *testing.T) {
	m := newTestModel(&fakeStation{})
	m, _ = update(t, m, key(KeyToggleHelp))
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = update(t, m, key("esc"))
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
}

func TestModel_TickSchedulesRefresh(t *testing.T) {
	m := newTestModel(&fakeStation{})
	_, cmd := update(t, m, tickMsg(t0))
	assert.NotNil(t, cmd)
}

func TestModel_WindowSize(t *testing.T) {
	m := newTestModel(&fakeStation{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Equal(t, 40-(2+4+2+2+logLines), m.tableHeight())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 5})
	assert.Equal(t, 3, m.tableHeight())
}

func TestView_Dashboard(t *testing.T) {
	frame := display.FrameOf(testSpots("W6JSV", "K9LC")...)
	logs := logger.NewTailLogger(5)
	logs.Warn("display write failed")

	m := NewModel(&fakeStation{}, time.Second, logs.Messages)
	m, _ = update(t, m, snapshotMsg(Snapshot{
		Time:       t0,
		Callsign:   "W6JSV",
		Conn:       rbn.Status{State: rbn.Streaming},
		Spots:      testSpots("W6JSV", "K9LC"),
		Frame:      frame,
		Mode:       display.ModeStatic,
		DevicePath: "/dev/ttyUSB0",
		DeviceOpen: true,
		Radio:      "rigctld",
	}))

	view := m.View()
	assert.Contains(t, view, "rbnvfd")
	assert.Contains(t, view, "streaming")
	assert.Contains(t, view, frame.Row(0))
	assert.Contains(t, view, frame.Row(1))
	assert.Contains(t, view, "/dev/ttyUSB0")
	assert.Contains(t, view, "static")
	assert.Contains(t, view, "display write failed")
	assert.Contains(t, view, "q quit")
}

func TestView_Empty(t *testing.T) {
	m := newTestModel(&fakeStation{})
	view := m.View()
	assert.Contains(t, view, "No spots yet")
	assert.Contains(t, view, "no callsign")
	assert.Contains(t, view, "no display port")
	assert.True(t, strings.Contains(view, strings.Repeat(" ", display.Cols)), "blank glass before the first frame")
}

func TestView_ShowsErrors(t *testing.T) {
	m := newTestModel(&fakeStation{})
	m, _ = update(t, m, snapshotMsg(Snapshot{
		Time:       t0,
		Conn:       rbn.Status{State: rbn.Disconnected, LastError: errors.New("No login prompt from rbn")},
		DevicePath: "/dev/ttyUSB0",
	}))
	assert.Contains(t, m.View(), "No login prompt from rbn")
}
