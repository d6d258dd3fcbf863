package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/grister/apicall"
	"github.com/s0up4200/grister/config"
	"github.com/s0up4200/grister/grist"
)

const (
	// exitBadCall is the exit code of a call that returned an error status
	exitBadCall = 3

	localConfigFile = "gryconf.json"
	keyTimeout      = "GRIST_GRY_TIMEOUT"
	defaultTimeout  = "60"
)

var (
	logger zerolog.Logger
	client *grist.Client

	// Global flags
	logLevel string
	quiet    bool
	verbose  int
	inspect  bool

	// Scope flags
	teamID      string
	workspaceID int
	docID       string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gry",
	Short: "A command line client for the Grist API",
	Long: `gry talks to the Grist REST API: team sites, workspaces, documents,
tables, columns, records, attachments, webhooks and SQL queries.

Configuration is read from ~/.gristapi/config.json, then ./gryconf.json, then
GRIST_* environment variables. Run "gry conf" to see the result.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if client != nil {
		client.CloseSession()
	}
	if err == nil {
		return
	}

	var bad *badCallError
	if errors.As(err, &bad) {
		os.Exit(exitBadCall)
	}
	if !quiet {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "print the decoded response (-vv for status and body)")
	rootCmd.PersistentFlags().BoolVarP(&inspect, "inspect", "i", false, "print request and response details")
}

// addScopeFlags registers the flags selecting the team, workspace or document
func addScopeFlags(cmd *cobra.Command, team, workspace, doc bool) {
	if team {
		cmd.Flags().StringVarP(&teamID, "team", "t", "", "team site id (default from configuration)")
	}
	if workspace {
		cmd.Flags().IntVarP(&workspaceID, "workspace", "w", 0, "workspace id (default from configuration)")
	}
	if doc {
		cmd.Flags().StringVarP(&docID, "document", "d", "", "document id (default from configuration)")
	}
}

// scope turns the scope flags into per-call options
func scope() []grist.ScopeOption {
	var opts []grist.ScopeOption
	if teamID != "" {
		opts = append(opts, grist.WithTeam(teamID))
	}
	if workspaceID != 0 {
		opts = append(opts, grist.WithWorkspace(workspaceID))
	}
	if docID != "" {
		opts = append(opts, grist.WithDoc(docID))
	}
	return opts
}

// initializeApp sets up logging and, unless the command opts out, the client
func initializeApp(cmd *cobra.Command, args []string) error {
	logger = setupLogger(logLevel)

	if cmd.Annotations["offline"] == "true" || !needsClient(cmd) {
		return nil
	}

	var err error
	client, err = newClient()
	return err
}

// needsClient is false for cobra's built-in help and completion commands
func needsClient(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == cobra.ShellCompRequestCmd || c.Name() == "completion" {
			return false
		}
	}
	return true
}

// newClient builds a client with the CLI configuration rules: a local
// gryconf.json, a transport timeout, and errors reported instead of raised
func newClient() (*grist.Client, error) {
	configOpts := []config.Option{
		config.WithLogger(logger),
		config.WithLocalFile(localConfigFile),
		config.WithDefaults(map[string]string{keyTimeout: defaultTimeout}),
		config.WithForced(map[string]string{
			config.KeyRaiseError: config.No,
			config.KeySafeMode:   config.No,
		}),
	}

	settings, err := config.New(nil, configOpts...)
	if err != nil {
		return nil, err
	}
	seconds, err := strconv.Atoi(settings.Get(keyTimeout))
	if err != nil || seconds <= 0 {
		return nil, fmt.Errorf("%s must be a positive number of seconds, got %q", keyTimeout, settings.Get(keyTimeout))
	}

	return grist.NewClient(nil,
		grist.WithLogger(logger),
		grist.WithConfigOptions(configOpts...),
		grist.WithCallerOptions(apicall.WithTimeout(time.Duration(seconds)*time.Second)),
	)
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	lvl := zerolog.WarnLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(lvl)

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
