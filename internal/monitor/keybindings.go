package monitor

import tea "github.com/charmbracelet/bubbletea"

// Key bindings as constants for consistency.
const (
	KeyQuit       = "q"
	KeyQuitAlt    = "ctrl+c"
	KeyConnect    = "c"
	KeyDisconnect = "d"
	KeyReopen     = "r"
	KeyIdle       = "i"
	KeyTune       = "t"
	KeyTuneAlt    = "enter"
	KeyCollapse   = "esc"
	KeyToggleHelp = "?"
)

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise. Unhandled keys go to
// the spot table for navigation.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// Help toggle takes priority
	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyConnect:
		st, addr := m.station, m.snap.Addr
		return true, actionCmd(func() (string, error) {
			if err := st.Connect(); err != nil {
				return "", err
			}
			return "Connecting to " + addr, nil
		})

	case KeyDisconnect:
		st := m.station
		return true, actionCmd(func() (string, error) {
			st.Disconnect()
			return "Disconnected", nil
		})

	case KeyReopen:
		st := m.station
		return true, actionCmd(func() (string, error) {
			if err := st.ReopenDisplay(); err != nil {
				return "", err
			}
			return "Display reopened", nil
		})

	case KeyIdle:
		on := !m.snap.ForceIdle
		m.station.SetForceIdle(on)
		m.snap.ForceIdle = on
		if on {
			m.message, m.messageErr = "Idle pattern forced on", false
		} else {
			m.message, m.messageErr = "Idle pattern off", false
		}
		return true, m.refreshCmd()

	case KeyTune, KeyTuneAlt:
		s, ok := m.SelectedSpot()
		if !ok {
			return true, nil
		}
		st := m.station
		return true, actionCmd(func() (string, error) {
			return st.Tune(s)
		})
	}

	return false, nil
}
