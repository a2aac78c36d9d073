package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selfupdate.yaml")
	contents := `
endpoints:
  - https://dl.example.com/{{current_version}}/check.json
pubkey: YWJjZA==
timeout: 45s
windows_install_mode: quiet
tool_name: example-app
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://dl.example.com/{{current_version}}/check.json"}, f.Endpoints)
	assert.Equal(t, "YWJjZA==", f.Pubkey)
	assert.Equal(t, "quiet", f.WindowsInstallMode)
	assert.Equal(t, "example-app", f.ToolName)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
