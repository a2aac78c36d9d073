package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flanksource/clicky/task"
	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

// appStrategy replaces a macOS .app bundle. The
// artifact is a gzipped tar containing a single top-level "*.app"
// directory. The running bundle is located by walking up from the
// resolved executable path to its ".app" ancestor, then swapped for
// the extracted one with atomicReplaceDir.
type appStrategy struct{}

func (appStrategy) Install(artifact Artifact, executablePath string, opts Options, t *task.Task) (err error) {
	bundleRoot, err := findAppBundleRoot(executablePath)
	if err != nil {
		return err
	}

	extractDir, err := os.MkdirTemp(opts.TmpDir, "selfupdate-app-*")
	if err != nil {
		return selferrors.Wrap(selferrors.Io, "failed to create extraction directory", err)
	}
	cm := newCleanupManager(opts.Debug, t)
	cm.addDirectory(extractDir)
	defer func() { cm.cleanup(err != nil) }()

	if err := extractTarGz(artifact.Data, extractDir); err != nil {
		return err
	}

	newBundle, err := findSingleAppEntry(extractDir)
	if err != nil {
		return err
	}
	if err := validateAppBundle(newBundle); err != nil {
		return err
	}

	if opts.DryRun {
		t.Infof("dry run: would replace %s with %s", bundleRoot, newBundle)
		return nil
	}

	if err := atomicReplaceDir(bundleRoot, newBundle); err != nil {
		return err
	}
	t.Infof("installed new application bundle at %s", bundleRoot)

	if opts.Relaunch {
		return relaunchApp(bundleRoot, executablePath)
	}
	return nil
}

// findAppBundleRoot walks up from the executable path looking for the
// nearest ancestor directory named "*.app" — the bundle root that
// contains Contents/MacOS/<binary>.
func findAppBundleRoot(executablePath string) (string, error) {
	dir := filepath.Dir(executablePath)
	for {
		if strings.HasSuffix(dir, ".app") {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", selferrors.New(selferrors.Extract, fmt.Sprintf("could not locate a .app bundle above %s", executablePath))
		}
		dir = parent
	}
}

// findSingleAppEntry returns the single top-level "*.app" directory
// extracted into dir.
func findSingleAppEntry(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", selferrors.Wrap(selferrors.Io, "failed to list extracted contents", err)
	}
	var found string
	for _, e := range entries {
		if e.IsDir() && strings.HasSuffix(e.Name(), ".app") {
			if found != "" {
				return "", selferrors.New(selferrors.Extract, "archive contains more than one .app bundle")
			}
			found = filepath.Join(dir, e.Name())
		}
	}
	if found == "" {
		return "", selferrors.New(selferrors.Extract, "archive does not contain a .app bundle")
	}
	return found, nil
}

func validateAppBundle(bundlePath string) error {
	if _, err := os.Stat(filepath.Join(bundlePath, "Contents", "Info.plist")); err != nil {
		return selferrors.Wrap(selferrors.Extract, "extracted bundle is missing Contents/Info.plist", err)
	}
	return nil
}

// relaunchApp opens the newly installed bundle with "open" and exits
// the current process, mirroring how a macOS user would relaunch the
// app after an update. executablePath is not used here — the new
// process is located by bundle path, not by pid.
func relaunchApp(bundleRoot, executablePath string) error {
	_ = executablePath
	args := []string{"-n", bundleRoot}
	proc, err := os.StartProcess("/usr/bin/open", append([]string{"open"}, args...), &os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	if err != nil {
		return selferrors.Wrap(selferrors.Spawn, "failed to relaunch application bundle", err)
	}
	_ = proc.Release()
	os.Exit(0)
	return nil
}
