package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/spf13/cobra"

	"github.com/flanksource/selfupdate"
)

var checkVerbose bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configured endpoints for a newer release",
	Long: `Check iterates the configured --endpoint templates in order and reports
the first release newer than the running version, or why every endpoint
declined.

Examples:
  selfupdate check --endpoint https://dl.example.com/{{current_version}}/check.json --pubkey <base64>
  selfupdate check --verbose`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkVerbose, "verbose", false, "When no newer release is found, also list every endpoint that was skipped")
}

func runCheck(cmd *cobra.Command, args []string) error {
	var checkErr error
	task.StartTask("check-for-update", func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
		checkErr = runCheckWithTask(ctx, t)
		return nil, checkErr
	})
	return checkErr
}

func runCheckWithTask(ctx context.Context, t *task.Task) error {
	cfg := buildConfig()

	version, cfg, err := selfupdate.New(currentVersionString(), configOptions(cfg)...)
	if err != nil {
		return err
	}

	result, err := selfupdate.CheckForUpdate(ctx, version, cfg, t)
	if err != nil {
		return fmt.Errorf("checking for update: %w", err)
	}

	if result.Update == nil {
		fmt.Println("Already running the latest version.")
		if checkVerbose {
			printAttempts(result.Attempts)
		}
		return nil
	}

	u := result.Update
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Current\tAvailable\tFormat\tURL")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.CurrentVersion.Original(), u.Record.Version.Original(), u.Record.Format, u.Record.URL)
	w.Flush()

	if checkVerbose {
		printAttempts(result.Attempts)
	}
	return nil
}

func printAttempts(attempts []selfupdate.EndpointAttempt) {
	if len(attempts) == 0 {
		return
	}
	fmt.Println("\nSkipped endpoints:")
	for _, a := range attempts {
		if a.Err != nil {
			fmt.Printf("  %s: %v\n", a.Endpoint, a.Err)
		} else {
			fmt.Printf("  %s: no update\n", a.Endpoint)
		}
	}
}

// configOptions replays an already-built Config through selfupdate.New's
// options so New's validation and version parsing run uniformly for both
// the check and update commands.
func configOptions(cfg selfupdate.Config) []selfupdate.Option {
	opts := []selfupdate.Option{
		selfupdate.WithEndpoints(cfg.Endpoints...),
		selfupdate.WithPubkey(cfg.Pubkey),
		selfupdate.WithTimeoutOption(cfg.Timeout),
		selfupdate.WithWindowsInstallMode(cfg.WindowsInstallMode),
		selfupdate.WithWindowsInstallerArgs(cfg.WindowsInstallerArgs...),
		selfupdate.WithToolIdentity(cfg.ToolName, cfg.ToolVersion),
	}
	if cfg.ExecutablePath != "" {
		opts = append(opts, selfupdate.WithExecutablePath(cfg.ExecutablePath))
	}
	if cfg.Headers != nil {
		opts = append(opts, selfupdate.WithHeaders(cfg.Headers))
	}
	return opts
}
