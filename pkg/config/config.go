// Package config loads a selfupdate.Config from an on-disk YAML file,
// so the CLI doesn't need every setting spelled out as a flag.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultFile = "selfupdate.yaml"

// File is the on-disk shape of a selfupdate configuration file. Fields
// mirror selfupdate.Config; callers translate File into Config options
// themselves to avoid an import cycle back into the root package.
type File struct {
	Endpoints            []string          `yaml:"endpoints"`
	Pubkey               string            `yaml:"pubkey"`
	Headers              map[string]string `yaml:"headers,omitempty"`
	Timeout              time.Duration     `yaml:"timeout,omitempty"`
	ExecutablePath       string            `yaml:"executable,omitempty"`
	WindowsInstallMode   string            `yaml:"windows_install_mode,omitempty"`
	WindowsInstallerArgs []string          `yaml:"windows_installer_args,omitempty"`
	ToolName             string            `yaml:"tool_name,omitempty"`
}

// Load reads and parses a selfupdate config file. An empty path defaults
// to DefaultFile. A file that cannot be read, at the default path or
// any other, is returned as an error; skipping a missing default file
// is left to the caller.
func Load(path string) (*File, error) {
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &f, nil
}
