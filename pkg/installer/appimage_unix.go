//go:build !windows

package installer

import (
	"os"
	"syscall"

	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

// relaunchAppImage execve's the updated AppImage in place, inheriting
// the environment and file descriptors so the update is invisible to
// whatever supervises the process.
func relaunchAppImage(executablePath string) error {
	args := append([]string{executablePath}, os.Args[1:]...)
	if err := syscall.Exec(executablePath, args, os.Environ()); err != nil {
		return selferrors.Wrap(selferrors.Spawn, "failed to relaunch AppImage", err)
	}
	return nil
}
