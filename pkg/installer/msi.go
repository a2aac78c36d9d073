package installer

import (
	"os"

	"github.com/flanksource/clicky/task"
	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

// msiStrategy runs a Windows MSI package via msiexec.
// The artifact is a zip containing a single ".msi". Like the NSIS
// strategy, msiexec is launched hidden and the current process exits
// without waiting for it.
type msiStrategy struct{}

func (msiStrategy) Install(artifact Artifact, executablePath string, opts Options, t *task.Task) (err error) {
	extractDir, err := os.MkdirTemp(opts.TmpDir, "selfupdate-msi-*")
	if err != nil {
		return selferrors.Wrap(selferrors.Io, "failed to create extraction directory", err)
	}
	cm := newCleanupManager(opts.Debug, t)
	cm.addDirectory(extractDir)
	defer func() { cm.cleanup(err != nil) }()

	if err := extractZip(artifact.Data, extractDir); err != nil {
		return err
	}

	msiPath, err := findSingleFile(extractDir, ".msi")
	if err != nil {
		return err
	}

	args := append([]string{"/i", msiPath}, msiModeArgs(opts.WindowsMode)...)
	args = append(args, "/promptrestart")
	args = append(args, opts.WindowsArgs...)

	if opts.DryRun {
		t.Infof("dry run: would run msiexec %v", args)
		return nil
	}

	t.Infof("launching MSI installer %s", msiPath)
	if err := launchHidden("msiexec", args); err != nil {
		return selferrors.Wrap(selferrors.Spawn, "failed to launch msiexec", err)
	}

	os.Exit(0)
	return nil
}

// msiModeArgs maps an InstallMode to the msiexec UI-level flag
// Passive → /passive, BasicUi → /qb, Quiet →
// /quiet.
func msiModeArgs(mode InstallMode) []string {
	switch mode {
	case Passive:
		return []string{"/passive"}
	case BasicUi:
		return []string{"/qb"}
	case Quiet:
		return []string{"/quiet"}
	default:
		return nil
	}
}
