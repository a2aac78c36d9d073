//go:build windows

package installer

import (
	"os/exec"
	"syscall"
)

// launchHidden starts path with args and returns without waiting for
// it to exit, suppressing the console window the vendor installer
// would otherwise pop up — HideWindow only exists in SysProcAttr on
// Windows, hence this file's build tag.
func launchHidden(path string, args []string) error {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
	return cmd.Start()
}
