package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/canvasflow/internal/cli"
	"github.com/aretw0/canvasflow/internal/presentation/tui"
	httpAdapter "github.com/aretw0/canvasflow/pkg/adapters/http"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Serves the node catalog, validation, ordering and run control as a JSON API, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := loggerFromFlags(cmd)
		if err != nil {
			return err
		}
		engineOpts, err := engineOptions(cmd)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)
		engineOpts.Hooks = domain.MergeHooks(metrics.Hooks(), observability.LogHooks(logger))

		eng, closeEngine, err := cli.NewEngine(engineOpts, logger)
		if err != nil {
			return err
		}
		defer closeEngine()

		srv := &http.Server{
			Addr: ":" + port,
			Handler: httpAdapter.NewHandler(eng.Runner(),
				httpAdapter.WithLogger(logger),
				httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		out := cmd.OutOrStdout()
		tui.PrintBanner(out)

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(out, "Starting canvasflow server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			fmt.Fprintf(out, "\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Fprintf(out, "Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				_ = srv.Close()
			}
			if err := eng.Runner().Shutdown(ctx); err != nil {
				logger.Warn("runs still active at shutdown", "err", err)
			}
			fmt.Fprintln(out, "canvasflow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addEngineFlags(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
