//go:build windows

package commands

import (
	"os"

	"golang.org/x/sys/windows"
)

// TerminationSignals are the signals that cancel a running build.
func TerminationSignals() []os.Signal {
	return []os.Signal{
		os.Interrupt,
		windows.SIGTERM,
		windows.SIGHUP,
	}
}
