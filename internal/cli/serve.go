package cli

import (
	"os/signal"
	"syscall"

	"github.com/koustreak/dbagent/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve actions over HTTP",
		Long: `Serve exposes every action as POST /v1/actions/{action} with the payload as
the request body, plus GET /healthz and GET /metrics. It stops on SIGINT or
SIGTERM after in-flight requests finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			return server.New(server.Config{
				Addr:     opts.cfg.HTTP.Addr,
				Runner:   a.dispatcher(opts.cfg.Guard.ReadOnly, reg),
				Log:      a.log,
				Gatherer: reg,
			}).Serve(ctx)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Bool("read-only", false, "allow only single read-only statements in execute_query")
	return cmd
}
