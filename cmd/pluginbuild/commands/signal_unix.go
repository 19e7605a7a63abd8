//go:build !windows

package commands

import (
	"os"

	"golang.org/x/sys/unix"
)

// TerminationSignals are the signals that cancel a running build.
func TerminationSignals() []os.Signal {
	return []os.Signal{
		os.Interrupt,
		unix.SIGTERM,
		unix.SIGHUP,
		unix.SIGQUIT,
	}
}
