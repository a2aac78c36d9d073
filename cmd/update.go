package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/spf13/cobra"

	"github.com/flanksource/selfupdate"
)

var (
	updateYes    bool
	updateDryRun bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for, download, verify, and install a newer release",
	Long: `Update checks the configured endpoints and, if a newer release is found,
downloads and signature-verifies the artifact before installing it with the
strategy matching the running bundle's format.

On macOS and Linux, a successful install replaces the bundle or AppImage in
place. On Windows, the downloaded installer is launched and this process
exits immediately afterwards.

Examples:
  selfupdate update --endpoint https://dl.example.com/{{current_version}}/check.json --pubkey <base64>
  selfupdate update --yes
  selfupdate update --dry-run`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&updateYes, "yes", false, "Install without prompting for confirmation")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Verify the artifact but do not replace or launch anything")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	var updateErr error
	task.StartTask("update", func(ctx flanksourceContext.Context, t *task.Task) (interface{}, error) {
		updateErr = runUpdateWithTask(ctx, t)
		return nil, updateErr
	})
	return updateErr
}

func runUpdateWithTask(ctx context.Context, t *task.Task) error {
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
		return nil
	}

	u := result.Update
	fmt.Printf("Update available: %s -> %s\n", u.CurrentVersion.Original(), u.Record.Version.Original())

	if !updateYes && !updateDryRun {
		confirmed, err := promptYesNo(fmt.Sprintf("Install version %s now?", u.Record.Version.Original()))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Update cancelled.")
			return nil
		}
	}

	t.Infof("downloading %s", u.Record.URL)
	if err := u.Download(ctx, nil, t); err != nil {
		return fmt.Errorf("downloading update: %w", err)
	}

	if updateDryRun {
		fmt.Println("Dry run: artifact verified, skipping install.")
		return nil
	}

	if err := u.Install(t); err != nil {
		return fmt.Errorf("installing update: %w", err)
	}

	fmt.Println("Update installed.")
	return nil
}

func promptYesNo(prompt string) (bool, error) {
	fmt.Printf("%s (y/N): ", prompt)
	var response string
	if _, err := fmt.Scanln(&response); err != nil && response == "" {
		return false, nil
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
