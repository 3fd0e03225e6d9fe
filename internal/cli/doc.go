// Package cli implements the rbnvfd command-line interface.
//
// The package is organized around Cobra commands, with each command
// delegating to a Station for the actual work:
//
//   - Command definitions (cobra.Command instances)
//   - Station wiring (client, store, scheduler, display, radio)
//   - Implementation details (in other internal packages)
//
// # Command Structure
//
//	rbnvfd run              - Stream spots to the display, headless
//	rbnvfd monitor          - Full-screen dashboard
//	rbnvfd spots            - Listen for a while and print a table
//	rbnvfd tune <kHz> [mode] - Tune the radio
//	rbnvfd init             - Create rbnvfd.yaml
//	rbnvfd config show|path|set
//
// # Station
//
// NewStation builds the pipeline from config: an rbn.Client feeding a
// spot.Store, and a pipeline.Driver that ticks a display.Scheduler and
// writes frames to the serial VFD and an in-memory preview. Start opens the
// display, serves metrics and logs in; Close undoes all of it.
//
// Nothing reconnects on its own. The dashboard has keys for it, and run
// treats SIGHUP as the request to reconnect and reopen.
//
// # Flag Handling
//
// Global flags (--config, --no-color, --callsign, --metrics-listen) are
// defined on the root command and override the config file and RBNVFD_*
// environment variables.
package cli
