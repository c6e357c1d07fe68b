package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/EslamHany2002/Feedback-Report/internal/pipeline"
	"github.com/EslamHany2002/Feedback-Report/internal/server"
)

func newServeCmd(o *globalOpts) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the report once and serve it over the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.validConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			flush := pipeline.InstallMetrics(cfg, o.logger)
			defer flush()

			load := func(ctx context.Context) (*pipeline.Result, error) {
				res, err := pipeline.Run(ctx, cfg, o.logger)
				flush()
				return res, err
			}
			initial, err := load(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.New(server.Config{Addr: cfg.Server.Addr}, initial, load, o.logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (env FEEDBACK_SERVER_ADDR, default :8080)")
	return cmd
}
