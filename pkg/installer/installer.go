// Package installer applies a downloaded, verified artifact in place,
// using the strategy that matches its Format: replace
// a macOS .app bundle, swap a Linux AppImage, or run a Windows
// NSIS/WiX installer. Every strategy is given the already-verified
// bytes and the path of the bundle or executable currently running —
// none of them perform network I/O or signature checks themselves.
package installer

import (
	"fmt"
	"os"
	"time"

	"github.com/flanksource/clicky/task"
	selferrors "github.com/flanksource/selfupdate/pkg/errors"
	"github.com/flanksource/selfupdate/pkg/manifest"
)

// InstallMode is the Windows installer's UI-level flag: Passive
// shows a progress UI with no prompts, BasicUi runs the installer's
// default UI, and Quiet suppresses all UI.
type InstallMode string

const (
	Passive InstallMode = "passive"
	BasicUi InstallMode = "basic_ui"
	Quiet   InstallMode = "quiet"
)

// Options configures how an artifact is applied. Zero value is not
// ready to use; build one with DefaultOptions().
type Options struct {
	TmpDir      string
	WindowsMode InstallMode
	WindowsArgs []string
	Relaunch    bool
	DryRun      bool
	Debug       bool
}

// Option is a functional option for Options, following the same
// pattern as the rest of the configuration surface.
type Option func(*Options)

func WithTmpDir(dir string) Option {
	return func(o *Options) { o.TmpDir = dir }
}

func WithWindowsMode(mode InstallMode) Option {
	return func(o *Options) { o.WindowsMode = mode }
}

func WithWindowsArgs(args []string) Option {
	return func(o *Options) { o.WindowsArgs = args }
}

func WithRelaunch(relaunch bool) Option {
	return func(o *Options) { o.Relaunch = relaunch }
}

func WithDryRun(dryRun bool) Option {
	return func(o *Options) { o.DryRun = dryRun }
}

func WithDebug(debug bool) Option {
	return func(o *Options) { o.Debug = debug }
}

// DefaultOptions returns the options used when the caller supplies
// none: silent install, no relaunch, system temp dir.
func DefaultOptions() Options {
	return Options{
		TmpDir:      os.TempDir(),
		WindowsMode: Quiet,
		Relaunch:    false,
		DryRun:      false,
		Debug:       false,
	}
}

// Artifact is the verified payload handed to a strategy: the raw bytes
// fetched from the endpoint and the format declared by the manifest
// entry that described it.
type Artifact struct {
	Format manifest.Format
	Data   []byte
}

// strategy is implemented once per manifest.Format. executablePath is
// the real, symlink-resolved path to the currently running bundle or
// binary, as produced by pkg/platform.ResolveExecutable.
type strategy interface {
	Install(artifact Artifact, executablePath string, opts Options, t *task.Task) error
}

// Install dispatches to the strategy matching artifact.Format. It is
// the single entry point the root orchestrator calls once an artifact
// has been downloaded and its signature verified.
func Install(artifact Artifact, executablePath string, opts Options, t *task.Task) error {
	var s strategy
	switch artifact.Format {
	case manifest.FormatApp:
		s = appStrategy{}
	case manifest.FormatAppImage:
		s = appImageStrategy{}
	case manifest.FormatNsis:
		s = nsisStrategy{}
	case manifest.FormatWix:
		s = msiStrategy{}
	default:
		return selferrors.New(selferrors.UnsupportedPlatform, fmt.Sprintf("no install strategy for format %q", artifact.Format))
	}
	return s.Install(artifact, executablePath, opts, t)
}

// uniqueSibling builds a sibling path for dir named after the current
// time, used for the two-phase rename the macOS strategy performs. The
// name only needs to avoid colliding with a real bundle name in the
// same parent directory.
func uniqueSibling(path string, suffix string) string {
	return fmt.Sprintf("%s.%s-%d", path, suffix, time.Now().UnixNano())
}
