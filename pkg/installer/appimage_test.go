package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flanksource/clicky/task"
	selferrors "github.com/flanksource/selfupdate/pkg/errors"
	"github.com/flanksource/selfupdate/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppImageStrategy_ReplacesFile(t *testing.T) {
	dir := t.TempDir()
	executablePath := filepath.Join(dir, "MyApp.AppImage")
	require.NoError(t, os.WriteFile(executablePath, []byte("old contents"), 0o755))

	archive := buildTarGz(t, map[string]string{"MyApp.AppImage": "new contents"})

	opts := DefaultOptions()
	opts.TmpDir = t.TempDir()
	err := Install(Artifact{Format: manifest.FormatAppImage, Data: archive}, executablePath, opts, &task.Task{})
	require.NoError(t, err)

	got, err := os.ReadFile(executablePath)
	require.NoError(t, err)
	assert.Equal(t, "new contents", string(got))

	info, err := os.Stat(executablePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestAppImageStrategy_MultipleEntriesFails(t *testing.T) {
	dir := t.TempDir()
	executablePath := filepath.Join(dir, "MyApp.AppImage")
	require.NoError(t, os.WriteFile(executablePath, []byte("old"), 0o755))

	archive := buildTarGz(t, map[string]string{
		"MyApp.AppImage":    "new",
		"Other.AppImage":    "other",
	})

	opts := DefaultOptions()
	tmpDir := t.TempDir()
	opts.TmpDir = tmpDir
	err := Install(Artifact{Format: manifest.FormatAppImage, Data: archive}, executablePath, opts, &task.Task{})
	require.Error(t, err)
	assert.True(t, selferrors.Is(err, selferrors.Extract))

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "temp extraction directory should be retained on failure")
}

func TestAppImageStrategy_DryRunLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	executablePath := filepath.Join(dir, "MyApp.AppImage")
	require.NoError(t, os.WriteFile(executablePath, []byte("old contents"), 0o755))

	archive := buildTarGz(t, map[string]string{"MyApp.AppImage": "new contents"})

	opts := DefaultOptions()
	opts.TmpDir = t.TempDir()
	opts.DryRun = true
	err := Install(Artifact{Format: manifest.FormatAppImage, Data: archive}, executablePath, opts, &task.Task{})
	require.NoError(t, err)

	got, err := os.ReadFile(executablePath)
	require.NoError(t, err)
	assert.Equal(t, "old contents", string(got))
}
