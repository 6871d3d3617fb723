//go:build unix

package extsort

import "golang.org/x/sys/unix"

// probeOpenFileLimit reads RLIMIT_NOFILE so the orchestrator can clamp the
// configured fan-in F to a safe fraction of what the OS will actually let
// one process hold open at once.
func probeOpenFileLimit() (int, bool) {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, false
	}
	return int(limit.Cur), true
}
