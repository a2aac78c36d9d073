package installer

import (
	"testing"

	"github.com/flanksource/clicky/task"
	"github.com/flanksource/selfupdate/pkg/manifest"
	"github.com/stretchr/testify/require"
)

func TestNsisStrategy_DryRunDoesNotInvokeInstaller(t *testing.T) {
	archive := buildZip(t, map[string]string{"setup.exe": "fake installer bytes"})

	opts := DefaultOptions()
	opts.TmpDir = t.TempDir()
	opts.DryRun = true
	err := Install(Artifact{Format: manifest.FormatNsis, Data: archive}, `C:\Program Files\Example\example.exe`, opts, &task.Task{})
	require.NoError(t, err)
}

func TestNsisModeArgs(t *testing.T) {
	require.Equal(t, []string{"/P"}, nsisModeArgs(Passive))
	require.Equal(t, []string{"/S"}, nsisModeArgs(Quiet))
	require.Nil(t, nsisModeArgs(BasicUi))
}

func TestMsiModeArgs(t *testing.T) {
	require.Equal(t, []string{"/passive"}, msiModeArgs(Passive))
	require.Equal(t, []string{"/qb"}, msiModeArgs(BasicUi))
	require.Equal(t, []string{"/quiet"}, msiModeArgs(Quiet))
}

func TestMsiStrategy_DryRunDoesNotInvokeInstaller(t *testing.T) {
	archive := buildZip(t, map[string]string{"setup.msi": "fake installer bytes"})

	opts := DefaultOptions()
	opts.TmpDir = t.TempDir()
	opts.DryRun = true
	err := Install(Artifact{Format: manifest.FormatWix, Data: archive}, `C:\Program Files\Example\example.exe`, opts, &task.Task{})
	require.NoError(t, err)
}
