package installer

import (
	"os"
	"path/filepath"

	"github.com/flanksource/clicky/task"
	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

// appImageStrategy replaces a Linux AppImage. The
// artifact is a gzipped tar containing a single ".AppImage" file.
// Unlike the macOS bundle swap, a single os.Rename is already atomic
// here because both the old and new files are single regular files on
// the same filesystem — no rollback phase is required.
type appImageStrategy struct{}

func (appImageStrategy) Install(artifact Artifact, executablePath string, opts Options, t *task.Task) (err error) {
	// Staging the new image in the same directory as the running
	// AppImage keeps the final rename on one filesystem.
	sameDir := filepath.Dir(executablePath)

	extractDir, err := os.MkdirTemp(opts.TmpDir, "selfupdate-appimage-*")
	if err != nil {
		return selferrors.Wrap(selferrors.Io, "failed to create extraction directory", err)
	}
	cm := newCleanupManager(opts.Debug, t)
	cm.addDirectory(extractDir)
	defer func() { cm.cleanup(err != nil) }()

	if err := extractTarGz(artifact.Data, extractDir); err != nil {
		return err
	}

	newImage, err := findSingleFile(extractDir, ".appimage")
	if err != nil {
		return err
	}

	if err := os.Chmod(newImage, 0o755); err != nil {
		return selferrors.Wrap(selferrors.Io, "failed to make extracted AppImage executable", err)
	}

	if opts.DryRun {
		t.Infof("dry run: would replace %s with %s", executablePath, newImage)
		return nil
	}

	staged := filepath.Join(sameDir, ".selfupdate-staged-"+filepath.Base(executablePath))
	if err := copyFile(newImage, staged, 0o755); err != nil {
		return err
	}
	cm.addFile(staged)

	if err := os.Rename(staged, executablePath); err != nil {
		return selferrors.Wrap(selferrors.Io, "failed to install new AppImage", err)
	}
	t.Infof("installed new AppImage at %s", executablePath)

	if opts.Relaunch {
		return relaunchAppImage(executablePath)
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return selferrors.Wrap(selferrors.Io, "failed to read extracted artifact", err)
	}
	if err := os.WriteFile(dst, data, mode); err != nil {
		return selferrors.Wrap(selferrors.Io, "failed to stage artifact for install", err)
	}
	return nil
}
