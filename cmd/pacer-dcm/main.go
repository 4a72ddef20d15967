// Command pacer-dcm is the Device Control Monitor: an interactive terminal
// for configuring a pacer device and reading back its telemetry.
//
// Usage:
//
//	pacer-dcm [flags]
//
// Flags:
//
//	-connect string   Device address (host:port); skips discovery
//	-profiles string  Profile directory (default "$HOME/.pacer-dcm/profiles")
//
// Commands inside the shell: discover, connect, info, telemetry, get, set,
// mode, clock, events, profile, help, exit.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openpacer/pacer-go/pkg/profile"
)

func main() {
	connectAddr := flag.String("connect", "", "device address (host:port)")
	profileDir := flag.String("profiles", "", "profile directory")
	flag.Parse()

	dir := *profileDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".pacer-dcm", "profiles")
	}

	shell, err := newShell(profile.NewStore(dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "pacer-dcm: %v\n", err)
		os.Exit(1)
	}
	defer shell.Close()

	if *connectAddr != "" {
		if err := shell.connect(*connectAddr); err != nil {
			fmt.Fprintf(os.Stderr, "pacer-dcm: %v\n", err)
		}
	}

	shell.Run()
}
