// configgery - device-side client for the configgery configuration service
//
// Keeps a local directory of configuration files converged to the device
// group assigned to this device:
// 1. Fetches the current device group metadata from the server
// 2. Prunes local files the server no longer declares
// 3. Downloads every entry whose content hash does not match
//
// Scheduling is external: run 'configgery sync' from cron, a systemd
// timer, or your own loop.
package main

import (
	"fmt"
	"os"

	"github.com/configgery/configgery-go/internal/commands"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
