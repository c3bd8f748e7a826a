package process

// Notes:
// - KillProcessGroup is only called with PIDs that cannot belong to a live
//   process. Real kills happen when a rasterizer closes its browser, which
//   the rasterizer integration tests cover.
// - PID 0 must be a no-op: syscall.Kill(-0, SIGKILL) would kill the test's
//   own process group.

import "testing"

// ---------------------------------------------------------------------------
// TestKillProcessGroup - Invalid PID Handling
// ---------------------------------------------------------------------------

func TestKillProcessGroup(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{0, -1, 999999999} {
		KillProcessGroup(pid)
	}
}
