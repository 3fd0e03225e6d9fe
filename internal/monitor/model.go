package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/rbnvfd/internal/display"
	"github.com/rileyhilliard/rbnvfd/internal/logger"
	"github.com/rileyhilliard/rbnvfd/internal/rbn"
	"github.com/rileyhilliard/rbnvfd/internal/spot"
	"github.com/rileyhilliard/rbnvfd/internal/ui"
)

// Station is what the dashboard observes and controls.
type Station interface {
	Snapshot() Snapshot
	Connect() error
	Disconnect()
	ReopenDisplay() error
	SetForceIdle(on bool)
	// Tune sends the radio to a spot and returns a line describing what it did.
	Tune(s spot.AggregatedSpot) (string, error)
}

// Snapshot is everything one dashboard frame draws.
type Snapshot struct {
	Time     time.Time
	Callsign string
	Addr     string

	Conn  rbn.Status
	Stats rbn.Stats

	Spots     []spot.AggregatedSpot
	Frame     display.Frame
	Mode      display.Mode
	ForceIdle bool

	DevicePath string
	DeviceOpen bool
	DeviceErr  error

	Radio          string
	RadioConnected bool
}

// DefaultInterval is the dashboard refresh rate.
const DefaultInterval = 250 * time.Millisecond

// logLines is how many recent log messages the footer shows.
const logLines = 3

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	station  Station
	logs     func() []logger.LogMessage
	interval time.Duration

	snap  Snapshot
	rates *RateHistory
	table table.Model

	width      int
	height     int
	showHelp   bool
	quitting   bool
	message    string
	messageErr bool
}

// tickMsg signals a periodic refresh.
type tickMsg time.Time

// snapshotMsg carries fresh station state.
type snapshotMsg Snapshot

// actionMsg reports the result of a key action that touched the network or
// the device.
type actionMsg struct {
	text string
	err  error
}

// NewModel creates a dashboard for station. logs may be nil.
func NewModel(station Station, interval time.Duration, logs func() []logger.LogMessage) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := ui.NewTable(ui.SpotColumns, nil, 10)
	t.Focus()
	return Model{
		station:  station,
		logs:     logs,
		interval: interval,
		rates:    NewRateHistory(DefaultHistorySize),
		table:    t,
	}
}

// Init starts the tick timer and takes the first snapshot.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tickCmd())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		var tcmd tea.Cmd
		m.table, tcmd = m.table.Update(msg)
		return m, tcmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(m.tableHeight())

	case tickMsg:
		return m, tea.Batch(m.tickCmd(), m.refreshCmd())

	case snapshotMsg:
		m.applySnapshot(Snapshot(msg))

	case actionMsg:
		if msg.err != nil {
			m.message, m.messageErr = firstLine(msg.err.Error()), true
		} else {
			m.message, m.messageErr = msg.text, false
		}
		return m, m.refreshCmd()
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	st := m.station
	return func() tea.Msg {
		return snapshotMsg(st.Snapshot())
	}
}

func actionCmd(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := fn()
		return actionMsg{text: text, err: err}
	}
}

// applySnapshot replaces the table rows, keeping the cursor on the same
// station when it is still listed.
func (m *Model) applySnapshot(s Snapshot) {
	selected, hadSelection := m.SelectedSpot()

	m.snap = s
	m.rates.Push(s.Stats.Spots, s.Time)
	m.table.SetRows(ui.SpotRows(s.Spots, s.Time))

	if hadSelection {
		for i, sp := range s.Spots {
			if sp.Key() == selected.Key() {
				m.table.SetCursor(i)
				return
			}
		}
	}
	if m.table.Cursor() >= len(s.Spots) && len(s.Spots) > 0 {
		m.table.SetCursor(len(s.Spots) - 1)
	}
}

// SelectedSpot returns the spot under the table cursor.
func (m Model) SelectedSpot() (spot.AggregatedSpot, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snap.Spots) {
		return spot.AggregatedSpot{}, false
	}
	return m.snap.Spots[i], true
}

// Message returns the status line and whether it reports an error.
func (m Model) Message() (string, bool) {
	return m.message, m.messageErr
}

// tableHeight is what is left after the header, VFD preview, status and
// footer.
func (m Model) tableHeight() int {
	const chrome = 2 + 4 + 2 + 2 + logLines
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	return h
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
