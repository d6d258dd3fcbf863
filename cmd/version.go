package cmd

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const repoSlug = "s0up4200/grister"

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records the build information reported by "gry version"
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = v
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the gry version",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"offline": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(stdout, "gry %s (built %s, %s/%s)\n", version, buildTime, runtime.GOOS, runtime.GOARCH)
	},
}

var updateCmd = &cobra.Command{
	Use:         "update",
	Short:       "Update gry to the latest release",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"offline": "true"},
	RunE:        runUpdate,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	current, err := semver.ParseTolerant(version)
	if err != nil {
		return fmt.Errorf("cannot update a %q build: %w", version, err)
	}

	ctx := cmd.Context()
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return fmt.Errorf("error detecting latest release: %w", err)
	}
	if !found {
		return errors.New("no release found for this platform")
	}

	target, err := semver.ParseTolerant(latest.Version())
	if err != nil {
		return fmt.Errorf("invalid release version %q: %w", latest.Version(), err)
	}
	if target.LTE(current) {
		fmt.Fprintf(stdout, "gry %s is up to date\n", version)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	logger.Info().Str("from", current.String()).Str("to", target.String()).Msg("Updating")
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("error updating binary: %w", err)
	}

	fmt.Fprintf(stdout, "%s gry updated to %s\n", doneStyle.Render("Done."), target)
	return nil
}
