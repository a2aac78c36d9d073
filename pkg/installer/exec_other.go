//go:build !windows

package installer

import "os/exec"

// launchHidden exists on non-Windows platforms only so the NSIS/MSI
// strategies compile everywhere; it is never exercised off Windows,
// since those formats only ever target windows platforms.
func launchHidden(path string, args []string) error {
	cmd := exec.Command(path, args...)
	return cmd.Start()
}
