package installer

import (
	"os"

	"github.com/flanksource/clicky/task"
	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

// nsisStrategy runs a Windows NSIS installer. The
// artifact is a zip containing a single ".exe". The installer is
// launched hidden and the current process exits immediately after,
// without waiting for it to finish — NSIS's uninstaller step waits
// for locked files, so the overlap is safe.
type nsisStrategy struct{}

func (nsisStrategy) Install(artifact Artifact, executablePath string, opts Options, t *task.Task) (err error) {
	extractDir, err := os.MkdirTemp(opts.TmpDir, "selfupdate-nsis-*")
	if err != nil {
		return selferrors.Wrap(selferrors.Io, "failed to create extraction directory", err)
	}
	cm := newCleanupManager(opts.Debug, t)
	cm.addDirectory(extractDir)
	defer func() { cm.cleanup(err != nil) }()

	if err := extractZip(artifact.Data, extractDir); err != nil {
		return err
	}

	installerPath, err := findSingleFile(extractDir, ".exe")
	if err != nil {
		return err
	}

	args := nsisModeArgs(opts.WindowsMode)
	args = append(args, "--updater")
	args = append(args, opts.WindowsArgs...)

	if opts.DryRun {
		t.Infof("dry run: would run %s %v", installerPath, args)
		return nil
	}

	t.Infof("launching NSIS installer %s", installerPath)
	if err := launchHidden(installerPath, args); err != nil {
		return selferrors.Wrap(selferrors.Spawn, "failed to launch NSIS installer", err)
	}

	os.Exit(0)
	return nil
}

// nsisModeArgs maps an InstallMode to the flag the generated NSIS
// installer recognizes: Passive → /P, BasicUi → none
// (the installer's default UI), Quiet → /S.
func nsisModeArgs(mode InstallMode) []string {
	switch mode {
	case Passive:
		return []string{"/P"}
	case Quiet:
		return []string{"/S"}
	default:
		return nil
	}
}
