package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/dbagent/internal/catalog"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/spf13/cobra"
)

func newQueriesCmd(opts *options) *cobra.Command {
	var placeholders bool

	cmd := &cobra.Command{
		Use:       "queries <dialect>",
		Short:     "List the query names in a dialect's template catalog",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"snowflake", "postgres", "mysql", "sqlite"},
		RunE: func(cmd *cobra.Command, argv []string) error {
			a, err := newApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			ctx := cmd.Context()
			dialect := argv[0]
			names, err := a.queries.Names(ctx, dialect)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, n := range names {
				line := n
				if placeholders {
					line += "\t" + describeTemplate(ctx, a.queries, dialect, n)
				}
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&placeholders, "placeholders", false, "also print each query's placeholder names")
	return cmd
}

// describeTemplate lists the placeholders of one query, "-" when it has none.
func describeTemplate(ctx context.Context, store *catalog.Store, dialect, name string) string {
	t, err := store.Template(ctx, dialect, name)
	if err != nil {
		if errs.KindOf(err) == errs.ErrKindInvalidTemplateFormat {
			return "(malformed)"
		}
		return "(" + err.Error() + ")"
	}
	if ph := t.Placeholders(); len(ph) > 0 {
		return strings.Join(ph, ",")
	}
	return "-"
}
