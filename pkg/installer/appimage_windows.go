//go:build windows

package installer

import selferrors "github.com/flanksource/selfupdate/pkg/errors"

// relaunchAppImage never runs on Windows; AppImages are a Linux-only
// artifact format.
func relaunchAppImage(executablePath string) error {
	return selferrors.New(selferrors.UnsupportedPlatform, "AppImage relaunch is not supported on this platform")
}
