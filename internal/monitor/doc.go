// Package monitor implements the live terminal dashboard.
//
// The dashboard shows the aggregated spot table, the RBN connection state,
// the display device and a preview of exactly what the 20x2 VFD is showing.
// It is a Bubble Tea program (Model-Update-View):
//
//   - Model: the last Snapshot of the station plus table selection and status line
//   - Update: key presses, periodic tickMsg refreshes and action results
//   - View: renders the header, VFD preview, spot table and footer
//
// The dashboard never owns the pipeline. It reads a Station, which the CLI
// backs with the running client, driver and device.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	c           - Connect to RBN
//	d           - Disconnect
//	r           - Reopen the display port
//	i           - Toggle the forced idle pattern
//	t, Enter    - Tune the radio to the selected spot
//	j/k, ↑/↓    - Move through the spot table
//	?           - Toggle help overlay
package monitor
