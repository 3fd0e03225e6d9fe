// Command rbnvfd streams Reverse Beacon Network spots to a 20x2 VFD.
package main

import "github.com/rileyhilliard/rbnvfd/internal/cli"

// Set by the release build with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	cli.Execute()
}
