package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"

	"github.com/flanksource/selfupdate"
	"github.com/flanksource/selfupdate/pkg/config"
	"github.com/flanksource/selfupdate/pkg/platform"
)

var (
	endpoints        []string
	pubkey           string
	headerFlags      []string
	timeout          time.Duration
	execPathOverride string
	toolName         string
	windowsMode      string
	windowsArgs      []string
	showVersion      bool
	versionInfo      VersionInfo
	configFile       string
)

type VersionInfo struct {
	Version string
	Commit  string
	Date    string
	Dirty   string
}

func SetVersion(version, commit, date, dirty string) {
	versionInfo = VersionInfo{Version: version, Commit: commit, Date: date, Dirty: dirty}
}

func GetVersionInfo() VersionInfo {
	return versionInfo
}

var rootCmd = &cobra.Command{
	Use:   "selfupdate",
	Short: "Check for and install updates to this application's own bundle",
	Long: `selfupdate discovers newer releases of the running application across
one or more JSON endpoints, verifies the release's minisign-style Ed25519
signature while streaming the download, and installs it using the strategy
matching the running bundle's format (.app, AppImage, NSIS .exe, or WiX .msi).`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			printVersion()
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if showVersion {
			printVersion()
			os.Exit(0)
		}
		clicky.Flags.UseFlags()
	},
}

func printVersion() {
	dirtyStr := ""
	if versionInfo.Dirty == "true" {
		dirtyStr = " (dirty)"
	}
	fmt.Printf("selfupdate version %s\n", versionInfo.Version)
	fmt.Printf("  commit: %s%s\n", versionInfo.Commit, dirtyStr)
	fmt.Printf("  built: %s\n", versionInfo.Date)
	fmt.Printf("  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func Execute() error {
	return rootCmd.Execute()
}

// currentVersionString returns the version baked into the binary via
// SetVersion, falling back to a zero version for unreleased builds.
func currentVersionString() string {
	if versionInfo.Version == "" {
		return "0.0.0"
	}
	return versionInfo.Version
}

// currentPlatformString reports the normalized "<os>-<arch>" platform
// key, falling back to the raw runtime values if detection fails.
func currentPlatformString() string {
	plat, err := platform.Current()
	if err != nil {
		return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
	}
	return plat.String()
}

// buildConfig assembles a selfupdate.Config starting from an optional
// --config YAML file and layering the persistent flags on top of it
// (flags win when the user actually set them), finishing with the
// tool's own version info as the User-Agent identity.
func buildConfig() selfupdate.Config {
	cfg := selfupdate.DefaultConfig()

	if file, err := loadConfigFile(); err == nil && file != nil {
		cfg.Endpoints = file.Endpoints
		cfg.Pubkey = file.Pubkey
		cfg.Headers = file.Headers
		cfg.ExecutablePath = file.ExecutablePath
		cfg.ToolName = file.ToolName
		cfg.WindowsInstallerArgs = file.WindowsInstallerArgs
		if file.Timeout > 0 {
			cfg.Timeout = file.Timeout
		}
		if file.WindowsInstallMode != "" {
			cfg.WindowsInstallMode = selfupdate.InstallMode(file.WindowsInstallMode)
		}
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("endpoint") {
		cfg.Endpoints = endpoints
	}
	if flags.Changed("pubkey") {
		cfg.Pubkey = pubkey
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("executable") {
		cfg.ExecutablePath = execPathOverride
	}
	if flags.Changed("tool-name") {
		cfg.ToolName = toolName
	}
	if flags.Changed("windows-mode") {
		cfg.WindowsInstallMode = selfupdate.InstallMode(windowsMode)
	}
	if flags.Changed("windows-arg") {
		cfg.WindowsInstallerArgs = windowsArgs
	}
	if flags.Changed("header") {
		headers := make(map[string]string, len(headerFlags))
		for _, h := range headerFlags {
			k, v, ok := strings.Cut(h, ":")
			if !ok {
				continue
			}
			headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		cfg.Headers = headers
	}

	if cfg.ToolName == "" {
		cfg.ToolName = rootCmd.Use
	}
	cfg.ToolVersion = currentVersionString()

	logger.Debugf("Using endpoints: %v (%s, %s/%s)", cfg.Endpoints, cfg.ToolName, runtime.GOOS, runtime.GOARCH)

	return cfg
}

// loadConfigFile reads --config (or the default selfupdate.yaml) if
// present. A missing default file is not an error: the CLI falls back
// to flags entirely.
func loadConfigFile() (*config.File, error) {
	path := configFile
	if path == "" {
		path = config.DefaultFile
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}
	return config.Load(path)
}

func init() {
	clicky.BindAllFlags(rootCmd.PersistentFlags(), "tasks", "!format")

	rootCmd.PersistentFlags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.PersistentFlags().StringSliceVar(&endpoints, "endpoint", nil, "Update-check endpoint URL template (may be repeated; tried in order)")
	rootCmd.PersistentFlags().StringVar(&pubkey, "pubkey", "", "Base64-encoded minisign-style Ed25519 public key blob")
	rootCmd.PersistentFlags().StringSliceVar(&headerFlags, "header", nil, "Extra HTTP header to send as Key:Value (may be repeated)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for endpoint and artifact requests")
	rootCmd.PersistentFlags().StringVar(&execPathOverride, "executable", "", "Override the detected path of the running bundle")
	rootCmd.PersistentFlags().StringVar(&toolName, "tool-name", "", "Identity sent as the User-Agent product name (default: selfupdate)")
	rootCmd.PersistentFlags().StringVar(&windowsMode, "windows-mode", string(selfupdate.Passive), "Windows installer UI level: passive, basic_ui, or quiet")
	rootCmd.PersistentFlags().StringSliceVar(&windowsArgs, "windows-arg", nil, "Extra argument forwarded to the Windows installer (may be repeated)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a selfupdate.yaml config file (default: ./selfupdate.yaml if present)")
}
