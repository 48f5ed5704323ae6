package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tengjizhang/reader/internal/config"
	"github.com/tengjizhang/reader/internal/store"
)

// Execute loads the layered configuration and runs the command tree
// against os.Args.
func Execute() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return NewRootCmd(cfg).Execute()
}

func NewRootCmd(cfg config.Config) *cobra.Command {
	var dbPath string
	var driver string
	var output string
	var verbose bool
	var outFmt OutputFormat
	var app *App

	dbPath = cfg.DBPath
	driver = cfg.DBDriver
	output = string(OutputTable)

	getApp := func() *App { return app }
	getOutput := func() OutputFormat { return outFmt }

	cmd := &cobra.Command{
		Use:           "reader",
		Short:         "Local RSS reader",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			parsedFmt, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			outFmt = parsedFmt
			if !requiresApp(cmd) {
				return nil
			}
			if app != nil {
				return nil
			}
			runCfg := cfg
			runCfg.DBPath = dbPath
			if runCfg.DBDriver, err = parseDriver(driver); err != nil {
				return err
			}
			if verbose {
				runCfg.LogLevel = "debug"
			}
			a, err := NewApp(runCfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				_ = app.Close()
				app = nil
			}
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", dbPath, "Database path (sqlite) or DSN (postgres)")
	cmd.PersistentFlags().StringVar(&driver, "driver", driver, "Database driver: sqlite, postgres")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", output, "Output format: table, json, wide")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log fetch and sync details to stderr")

	cmd.AddCommand(newAddCmd(getApp, getOutput))
	cmd.AddCommand(newRefreshCmd(getApp, getOutput))
	cmd.AddCommand(newGetCmd(getApp, getOutput))
	cmd.AddCommand(newImportCmd(getApp, getOutput))
	cmd.AddCommand(newExportCmd(getApp))

	return cmd
}

func parseOutputFormat(raw string) (OutputFormat, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch OutputFormat(s) {
	case OutputTable, OutputJSON, OutputWide:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("%w: invalid output format %q (expected table|json|wide)", store.ErrInvalidInput, raw)
	}
}

func parseDriver(raw string) (string, error) {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "", config.DriverSQLite:
		return config.DriverSQLite, nil
	case config.DriverPostgres, "postgresql":
		return config.DriverPostgres, nil
	default:
		return "", fmt.Errorf("%w: invalid driver %q (expected sqlite|postgres)", store.ErrInvalidInput, raw)
	}
}

func requiresApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		name := c.Name()
		if name == "help" || name == "completion" {
			return false
		}
	}
	return true
}
