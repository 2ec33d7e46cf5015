// Package cli provides the dbagent command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/koustreak/dbagent/internal/config"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// options are the global flags that are not config keys.
type options struct {
	configFile string
	cfg        *config.Config
}

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "dbagent",
		Short: "Run metadata actions against SQL backends",
		Long: `dbagent lists schemas, edits table and column comments, runs queries and
extracts foreign-key ontologies on Snowflake, PostgreSQL, MySQL and SQLite.
Every action takes a JSON payload that carries its own connection.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(opts.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	pf.String("log-level", "info", "log level (debug|info|warn|error|disabled)")
	pf.String("log-format", "json", "log format (json|console)")
	pf.String("catalog-dir", "", "directory of <dialect>/queries.json catalogs (default: built-in)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newQueriesCmd(opts))
	return root
}

// Execute runs the CLI and exits with a status derived from the error kind.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return 0
}

// exitCode is 2 for caller mistakes and 1 for everything else.
func exitCode(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindInvalidInput, errs.ErrKindUnknownAction,
		errs.ErrKindUnsafeIdentifier, errs.ErrKindMissingColumn:
		return 2
	}
	return 1
}
