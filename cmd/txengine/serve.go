package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/txengine/internal/adapter/http"
	"github.com/iho/txengine/internal/adapter/http/handler"
	"github.com/iho/txengine/internal/usecase"
)

func newServeCmd(a *app, opts *runOptions) *cobra.Command {
	port := a.cfg.HTTPPort

	cmd := &cobra.Command{
		Use:   "serve <transactions.csv>",
		Short: "Process a file and serve the resulting accounts over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), args[0], port, *opts)
		},
	}

	cmd.Flags().StringVar(&port, "port", port, "HTTP port")

	return cmd
}

func (a *app) serve(ctx context.Context, path, port string, opts runOptions) error {
	if err := validateSinks(opts.sinks); err != nil {
		return err
	}

	p := a.newPipeline(opts.shards)
	result, err := p.processFile(ctx, path)
	if err != nil {
		return err
	}

	checks := map[string]handler.HealthCheck{}
	if len(opts.sinks) > 0 {
		set, err := a.openSinks(ctx, opts.sinks)
		if err != nil {
			return err
		}
		defer set.Close()

		if err := p.process.Publish(ctx, result.Report, set.sinks...); err != nil {
			return err
		}
		checks = set.checks
	}

	accountUC := usecase.NewAccountUseCase(result, usecase.NewReconciliationUseCase())
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler: handler.NewAccountHandler(accountUC),
		HealthHandler:  handler.NewHealthHandler(result.Report.RunID, checks),
		Logger:         a.logger,
		Metrics:        p.metrics,
		Gatherer:       p.registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      router,
		ReadTimeout:  a.cfg.HTTPReadTimeout,
		WriteTimeout: a.cfg.HTTPWriteTimeout,
		IdleTimeout:  a.cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("port", port).Str("run_id", result.Report.RunID).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		a.logger.Info().Msg("server stopped")
		return nil
	})

	return g.Wait()
}
