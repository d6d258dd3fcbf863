package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/spf13/cobra"

	"github.com/s0up4200/grister/apicall"
	"github.com/s0up4200/grister/config"
)

var showAPIKey bool

var confCmd = &cobra.Command{
	Use:   "conf",
	Short: "Print the current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConf,
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run a quick check of the configuration against the server",
	Args:  cobra.NoArgs,
	RunE:  runTest,
}

func init() {
	confCmd.Flags().BoolVarP(&showAPIKey, "show-apikey", "K", false, "show the API key in full")

	rootCmd.AddCommand(confCmd)
	rootCmd.AddCommand(testCmd)
}

func runConf(cmd *cobra.Command, args []string) error {
	cfg := client.Settings().Config()
	if !showAPIKey {
		cfg[config.KeyAPIKey] = config.MaskAPIKey(cfg[config.KeyAPIKey])
	}
	if quiet {
		return nil
	}
	if verbose > 0 {
		printJSON(cfg)
		return nil
	}

	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	t := newTable("key", "value")
	for _, k := range keys {
		t.add(k, cfg[k])
	}
	fmt.Fprint(stdout, t.String())
	return nil
}

// runTest checks the connection, then the configured team, workspace and document
func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	results := []struct{ name, result string }{
		{"connection", "skipped"},
		{"default team", "skipped"},
		{"default ws", "skipped"},
		{"default doc", "skipped"},
	}

	out, err := client.GetTeam(ctx)
	switch {
	case err != nil:
		results[0].result = err.Error()
	case out.Err != nil:
		results[0].result = out.Err.Error()
	case out.Status == http.StatusUnauthorized:
		results[0].result = out.Body.String()
	default:
		results[0].result = "ok"
		results[1].result = checkResult(out)

		out, err = client.GetWorkspace(ctx)
		results[2].result = checkResult(out, err)

		if results[1].result == "ok" {
			out, err = client.GetDoc(ctx)
			results[3].result = checkResult(out, err)
		}
	}

	logger.Debug().Str("server", client.Server()).Int("calls", client.Calls()).Msg("Configuration test finished")

	t := newTable("test", "result")
	for _, r := range results {
		t.add(r.name, r.result)
	}
	if !quiet {
		fmt.Fprint(stdout, t.String())
	}
	return nil
}

func checkResult(out apicall.Outcome, errs ...error) string {
	if err := errors.Join(errs...); err != nil {
		return err.Error()
	}
	if out.Status == http.StatusOK {
		return "ok"
	}
	return out.Body.String()
}
