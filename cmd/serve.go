// File: cmd/serve.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/quizwalk/internal/api"
	"github.com/xkilldash9x/quizwalk/internal/observability"
)

func newServeCmd() *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Accepts quiz requests over HTTP and solves them in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			serverCfg := cfg.Server()
			if addr != "" {
				serverCfg.Addr = addr
			}

			comps, err := buildComponents(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverCfg.ShutdownTimeout)
				defer cancel()
				if err := comps.Close(shutdownCtx); err != nil {
					logger.Error("Error releasing components", zap.Error(err))
				}
			}()

			server := api.NewServer(comps.runner, serverCfg, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.ListenAndServe(gctx)
			})
			if err := g.Wait(); err != nil {
				return fmt.Errorf("quiz front end stopped: %w", err)
			}
			logger.Info("Quiz front end stopped.")
			return nil
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return serveCmd
}
