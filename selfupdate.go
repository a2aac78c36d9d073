// Package selfupdate is the public facade of the update engine:
// discover a newer release across one or more endpoints, verify its
// signature while streaming the download, and install it with the
// strategy matching the running bundle's format.
package selfupdate

import (
	"context"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/flanksource/clicky/task"

	selferrors "github.com/flanksource/selfupdate/pkg/errors"
	"github.com/flanksource/selfupdate/pkg/fetch"
	"github.com/flanksource/selfupdate/pkg/installer"
	"github.com/flanksource/selfupdate/pkg/manifest"
	"github.com/flanksource/selfupdate/pkg/platform"
	"github.com/flanksource/selfupdate/pkg/signature"
	"github.com/flanksource/selfupdate/pkg/template"
)

// Re-export installer's install-mode vocabulary so callers never need
// to import pkg/installer directly.
type (
	InstallMode   = installer.InstallMode
	InstallOption = installer.Option
)

const (
	Passive = installer.Passive
	BasicUi = installer.BasicUi
	Quiet   = installer.Quiet
)

var (
	WithTmpDir      = installer.WithTmpDir
	WithWindowsMode = installer.WithWindowsMode
	WithWindowsArgs = installer.WithWindowsArgs
	WithRelaunch    = installer.WithRelaunch
	WithDryRun      = installer.WithDryRun
	WithDebug       = installer.WithDebug
)

// Config is the caller-constructed, immutable-for-the-check
// configuration for a single update check.
type Config struct {
	Endpoints            []string
	Pubkey               string
	Headers              map[string]string
	Timeout              time.Duration
	ExecutablePath       string
	WindowsInstallMode   InstallMode
	WindowsInstallerArgs []string
	ToolName             string
	ToolVersion          string
}

// Option configures a Config via the functional-options pattern used
// throughout this engine's configuration surfaces.
type Option func(*Config)

func WithEndpoints(endpoints ...string) Option {
	return func(c *Config) { c.Endpoints = endpoints }
}

func WithPubkey(pubkey string) Option {
	return func(c *Config) { c.Pubkey = pubkey }
}

func WithHeaders(headers map[string]string) Option {
	return func(c *Config) { c.Headers = headers }
}

func WithTimeoutOption(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

func WithExecutablePath(path string) Option {
	return func(c *Config) { c.ExecutablePath = path }
}

func WithWindowsInstallMode(mode InstallMode) Option {
	return func(c *Config) { c.WindowsInstallMode = mode }
}

func WithWindowsInstallerArgs(args ...string) Option {
	return func(c *Config) { c.WindowsInstallerArgs = args }
}

func WithToolIdentity(name, version string) Option {
	return func(c *Config) {
		c.ToolName = name
		c.ToolVersion = version
	}
}

// DefaultConfig returns the zero-value-safe defaults every Config
// starts from before options are applied.
func DefaultConfig() Config {
	return Config{
		WindowsInstallMode: Passive,
		Timeout:            30 * time.Second,
		ToolName:           "selfupdate",
		ToolVersion:        "0.0.0",
	}
}

func validate(c Config) error {
	if len(c.Endpoints) == 0 {
		return selferrors.New(selferrors.Config, "at least one endpoint is required")
	}
	if c.Pubkey == "" {
		return selferrors.New(selferrors.Config, "a public key is required")
	}
	return nil
}

// State is the orchestrator's current position in the state machine
// the orchestrator moves through.
type State string

const (
	StateIdle        State = "idle"
	StateChecking    State = "checking"
	StateNoUpdate    State = "no_update"
	StateReady       State = "ready"
	StateDownloading State = "downloading"
	StateVerified    State = "verified"
	StateInstalling  State = "installing"
	StateInstalled   State = "installed"
	StateFailed      State = "failed"
)

// EndpointAttempt records the outcome of probing a single configured
// endpoint during check_for_update, so callers can see why earlier
// endpoints in the list were skipped.
type EndpointAttempt struct {
	Endpoint string
	Err      error
}

// Update represents a discovered newer release. It is the only type
// the caller drives downstream via Download/Install/DownloadAndInstall.
type Update struct {
	Record         manifest.ReleaseRecord
	CurrentVersion *semver.Version
	Platform       platform.Platform
	ExecutablePath string
	config         Config
	state          State
	verified       []byte
}

// State reports the Update's current position in the state machine.
func (u *Update) State() State {
	return u.state
}

// CheckResult is returned by CheckForUpdate: either an Update (a newer
// release was found), or Attempts recording why every endpoint
// declined.
type CheckResult struct {
	Update   *Update
	Attempts []EndpointAttempt
}

// New is a convenience constructor bundling the current version string
// (tolerating a leading v/V) with a Config built from opts.
func New(currentVersion string, opts ...Option) (*semver.Version, Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validate(cfg); err != nil {
		return nil, cfg, err
	}
	version, err := manifest.ParseVersion(currentVersion)
	if err != nil {
		return nil, cfg, selferrors.Wrap(selferrors.Version, "failed to parse current version", err)
	}
	return version, cfg, nil
}

// CheckForUpdate iterates the configured endpoints
// in order; the first endpoint returning a usable ReleaseRecord wins.
// A NoUpdateAvailable result, or an endpoint template that does not
// expand to an absolute URL, is recorded in Attempts and iteration
// continues; any other failure aborts immediately with that error.
func CheckForUpdate(ctx context.Context, currentVersion *semver.Version, cfg Config, t *task.Task) (CheckResult, error) {
	if err := validate(cfg); err != nil {
		return CheckResult{}, err
	}

	plat, err := platform.Current()
	if err != nil {
		return CheckResult{}, err
	}
	execPath, err := platform.ResolveExecutable(plat, platform.ExecutableOptions{Override: cfg.ExecutablePath})
	if err != nil {
		return CheckResult{}, err
	}

	client := fetch.NewClient(cfg.ToolName, cfg.ToolVersion, cfg.Headers, cfg.Timeout)

	urls, expandErrs := template.ExpandAll(cfg.Endpoints, currentVersion.Original(), plat)

	var attempts []EndpointAttempt
	for i, tmpl := range cfg.Endpoints {
		if expandErrs[i] != nil {
			attempts = append(attempts, EndpointAttempt{Endpoint: tmpl, Err: expandErrs[i]})
			continue
		}
		u := urls[i]

		status, body, err := client.GetJSON(ctx, u.String())
		if err != nil {
			return CheckResult{}, err
		}

		outcome, err := manifest.Parse(status, body, plat, currentVersion)
		if err != nil {
			return CheckResult{}, err
		}
		if outcome.NoUpdate {
			attempts = append(attempts, EndpointAttempt{Endpoint: tmpl})
			continue
		}

		return CheckResult{Update: &Update{
			Record:         *outcome.Record,
			CurrentVersion: currentVersion,
			Platform:       plat,
			ExecutablePath: execPath,
			config:         cfg,
			state:          StateReady,
		}}, nil
	}

	return CheckResult{Attempts: attempts}, nil
}

// Download fetches and verifies the release artifact in a single
// network read: the body is streamed into the signature verifier, whose
// buffer is kept as the verified artifact, so it is never buffered
// twice. Returns only once verification has succeeded.
func (u *Update) Download(ctx context.Context, progress fetch.ProgressFunc, t *task.Task) error {
	u.state = StateDownloading

	verifier, err := signature.NewVerifier(u.config.Pubkey, u.Record.Signature)
	if err != nil {
		u.state = StateFailed
		return err
	}

	client := fetch.NewClient(u.config.ToolName, u.config.ToolVersion, u.config.Headers, u.config.Timeout)
	if err := client.Fetch(ctx, u.Record.URL, progress, verifier); err != nil {
		u.state = StateFailed
		return err
	}

	if err := verifier.Verify(); err != nil {
		u.state = StateFailed
		return err
	}

	u.verified = verifier.Bytes()
	u.state = StateVerified
	return nil
}

// Install dispatches to the strategy
// matching the release's format. Download must have completed first.
func (u *Update) Install(t *task.Task) error {
	if u.state != StateVerified {
		return selferrors.New(selferrors.Config, "Install called before a verified download was available")
	}
	u.state = StateInstalling

	opts := installer.DefaultOptions()
	opts.WindowsMode = u.config.WindowsInstallMode
	opts.WindowsArgs = u.config.WindowsInstallerArgs

	artifact := installer.Artifact{Format: u.Record.Format, Data: u.verified}
	if err := installer.Install(artifact, u.ExecutablePath, opts, t); err != nil {
		u.state = StateFailed
		return err
	}

	u.state = StateInstalled
	return nil
}

// InstallWithOptions is like Install but lets the caller override
// installer.Options beyond what Config carries (DryRun, Relaunch,
// TmpDir, Debug).
func (u *Update) InstallWithOptions(t *task.Task, opts ...InstallOption) error {
	if u.state != StateVerified {
		return selferrors.New(selferrors.Config, "Install called before a verified download was available")
	}
	u.state = StateInstalling

	options := installer.DefaultOptions()
	options.WindowsMode = u.config.WindowsInstallMode
	options.WindowsArgs = u.config.WindowsInstallerArgs
	for _, opt := range opts {
		opt(&options)
	}

	artifact := installer.Artifact{Format: u.Record.Format, Data: u.verified}
	if err := installer.Install(artifact, u.ExecutablePath, options, t); err != nil {
		u.state = StateFailed
		return err
	}

	u.state = StateInstalled
	return nil
}

// DownloadAndInstall is a convenience combinator of Download and Install.
func (u *Update) DownloadAndInstall(ctx context.Context, progress fetch.ProgressFunc, t *task.Task) error {
	if err := u.Download(ctx, progress, t); err != nil {
		return err
	}
	return u.Install(t)
}
