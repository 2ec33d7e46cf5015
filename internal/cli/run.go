package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		action  string
		payload string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one action and print its JSON result",
		Example: `  dbagent run --action list_schema --payload '{"conn":{"type":"sqlite","path":"shop.db"}}'
  dbagent run --action execute_query --payload @query.json --output table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "json" && output != "table" {
				return errs.Newf(errs.ErrKindInvalidInput, "--output must be json or table, got %q", output)
			}
			body, err := readPayload(payload, cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			out, err := a.dispatcher(opts.cfg.Guard.ReadOnly, nil).Run(cmd.Context(), action, body)
			if err != nil {
				return err
			}
			if output == "table" {
				return renderTable(cmd.OutOrStdout(), out)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	names := make([]string, 0, len(args.Actions()))
	for _, a := range args.Actions() {
		names = append(names, string(a))
	}

	f := cmd.Flags()
	f.StringVarP(&action, "action", "a", "", "action to run ("+strings.Join(names, "|")+")")
	f.StringVarP(&payload, "payload", "p", "", "JSON payload, @file to read a file, or - for stdin")
	f.StringVarP(&output, "output", "o", "json", "output format (json|table)")
	f.Bool("read-only", false, "allow only single read-only statements in execute_query")
	_ = cmd.MarkFlagRequired("action")
	_ = cmd.MarkFlagRequired("payload")

	_ = cmd.RegisterFlagCompletionFunc("action", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "table"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// readPayload resolves the --payload value.
func readPayload(v string, stdin io.Reader) ([]byte, error) {
	switch {
	case v == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read payload from stdin", err)
		}
		return b, nil
	case strings.HasPrefix(v, "@"):
		b, err := os.ReadFile(v[1:])
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read payload file", err)
		}
		return b, nil
	default:
		return []byte(v), nil
	}
}
