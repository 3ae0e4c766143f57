package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cascadehq/cascade"
	httpadapter "github.com/cascadehq/cascade/pkg/adapters/http"
	"github.com/cascadehq/cascade/pkg/adapters/memory"
	redisadapter "github.com/cascadehq/cascade/pkg/adapters/redis"
	"github.com/cascadehq/cascade/pkg/observability"
	"github.com/cascadehq/cascade/pkg/pipeline"
	"github.com/cascadehq/cascade/pkg/ports"
	"github.com/cascadehq/cascade/pkg/suspend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pipeline HTTP server",
	Long:  `Starts an HTTP server that runs pipelines per request and accepts resume callbacks for suspended executions.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for the suspension store (empty uses in-memory)")
	serveCmd.Flags().Duration("resume-ttl", 10*time.Minute, "How long a suspension may wait before it is failed")
}

func serve(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("pipelines")
	port, _ := cmd.Flags().GetString("port")
	redisAddr, _ := cmd.Flags().GetString("redis")
	resumeTTL, _ := cmd.Flags().GetDuration("resume-ttl")
	logger := newLogger(cmd)

	pipelines, err := pipeline.Load(path)
	if err != nil {
		return err
	}

	var store ports.SuspensionStore = memory.NewStore()
	if redisAddr != "" {
		redisStore := redisadapter.New(redisAddr, "", 0, redisadapter.WithTTL(resumeTTL))
		defer redisStore.Close() //nolint:errcheck
		store = redisStore
	}

	broker := suspend.NewBroker(store,
		suspend.WithTTL(resumeTTL),
		suspend.WithLogger(logger),
	)

	reg := newRegistry(broker, logger)
	if err := pipelines.Validate(reg); err != nil {
		return err
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	engine := cascade.New(reg,
		cascade.WithLogger(logger),
		cascade.WithLifecycleHooks(metrics.Hooks()),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httpadapter.NewHandler(engine, pipelines, broker,
		httpadapter.WithLogger(logger),
	))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "pipelines", path)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("failed to stop server: %w", err)
			}
		}
		logger.Info("server stopped")
		return nil
	}
}
