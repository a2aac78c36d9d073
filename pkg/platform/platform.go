// Package platform resolves the OS/architecture pair the engine is
// currently running under, and the on-disk path of the executable that
// should be replaced by an installed update.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

// Platform is the "<os>-<arch>" pair used as the key into a release
// manifest's per-platform map and substituted into endpoint templates.
type Platform struct {
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`
}

// String renders the platform as its manifest key, e.g. "linux-x86_64".
func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// AllowSymlinkMacOS gates whether resolving the current executable on
// macOS is permitted to traverse a symlink. Defaults to false: refusing
// symlinks prevents relaunching an attacker-controlled binary placed at
// a predictable symlink target. Callers flip it explicitly when they
// trust their own install layout.
var AllowSymlinkMacOS = false

// Current detects the running OS and architecture using Go's
// runtime.GOOS/GOARCH, normalized to the vocabulary the manifest and
// endpoint templates use: {linux, windows, macos} x {x86_64, i686,
// aarch64, armv7}.
func Current() (Platform, error) {
	osName, err := currentOS()
	if err != nil {
		return Platform{}, err
	}
	arch, err := currentArch()
	if err != nil {
		return Platform{}, err
	}
	return Platform{OS: osName, Arch: arch}, nil
}

func currentOS() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "linux", nil
	case "windows":
		return "windows", nil
	case "darwin":
		return "macos", nil
	default:
		return "", selferrors.New(selferrors.UnsupportedPlatform, fmt.Sprintf("unsupported OS: %s", runtime.GOOS))
	}
}

func currentArch() (string, error) {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64", nil
	case "386":
		return "i686", nil
	case "arm64":
		return "aarch64", nil
	case "arm":
		return "armv7", nil
	default:
		return "", selferrors.New(selferrors.UnsupportedPlatform, fmt.Sprintf("unsupported architecture: %s", runtime.GOARCH))
	}
}

// IsWindows reports whether the platform is a Windows target.
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}

// ExecutableOptions controls how ResolveExecutable picks the current
// executable, mirroring the relevant subset of Configuration's fields.
type ExecutableOptions struct {
	// Override, when set, is used verbatim (after real-path
	// resolution) instead of probing the OS.
	Override string
}

// ResolveExecutable applies the resolution order: an explicit
// override, then (on Linux, when APPIMAGE is set) that path, then the
// OS's "current executable" primitive — always passed through the
// host's real-path resolver.
func ResolveExecutable(plat Platform, opts ExecutableOptions) (string, error) {
	candidate := opts.Override

	if candidate == "" && plat.OS == "linux" {
		if appImage := os.Getenv("APPIMAGE"); appImage != "" {
			candidate = appImage
		}
	}

	if candidate == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", selferrors.Wrap(selferrors.Config, "failed to resolve current executable", err)
		}
		candidate = exe
	}

	return realPath(candidate, plat)
}

// realPath canonicalizes candidate through the host's symlink resolver.
// On macOS, traversing a symlink fails closed unless AllowSymlinkMacOS
// has been explicitly enabled.
func realPath(candidate string, plat Platform) (string, error) {
	if plat.OS == "macos" && !AllowSymlinkMacOS {
		info, err := os.Lstat(candidate)
		if err != nil {
			return "", selferrors.Wrap(selferrors.Io, "failed to stat executable path", err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return "", selferrors.New(selferrors.Config, fmt.Sprintf("refusing to resolve executable through symlink %s (enable AllowSymlinkMacOS to override)", candidate))
		}
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", selferrors.Wrap(selferrors.Io, fmt.Sprintf("failed to resolve real path of %s", candidate), err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", selferrors.Wrap(selferrors.Io, fmt.Sprintf("failed to make path absolute: %s", resolved), err)
	}
	return abs, nil
}
