package cmd

import (
	"github.com/flanksource/clicky"
)

type VersionOptions struct{}

type VersionReport struct {
	Version  string `json:"version"`
	Commit   string `json:"commit,omitempty"`
	Date     string `json:"date,omitempty"`
	Platform string `json:"platform"`
}

func init() {
	clicky.AddCommand(rootCmd, VersionOptions{}, func(opts VersionOptions) (any, error) {
		return GetVersion(), nil
	})
}

func GetVersion() VersionReport {
	return VersionReport{
		Version:  currentVersionString(),
		Commit:   versionInfo.Commit,
		Date:     versionInfo.Date,
		Platform: currentPlatformString(),
	}
}
