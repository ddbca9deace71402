package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	formwork "github.com/formwork-dev/formwork"
	"github.com/formwork-dev/formwork/internal/logging"
	"github.com/formwork-dev/formwork/internal/presentation/tui"
	httpadapter "github.com/formwork-dev/formwork/pkg/adapters/http"
	"github.com/formwork-dev/formwork/pkg/observability"
	"github.com/formwork-dev/formwork/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the form session HTTP server",
	Long:  `Starts the session server, exposing form state, mutation and SSE endpoints over a JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		logger := newLogger(cmd)

		tui.PrintBanner(formwork.Version)

		registry := prometheus.NewRegistry()
		collector := observability.NewCollector(registry)

		sessions := session.NewManager(session.WithLogger(logger))
		handler := httpadapter.NewHandler(sessions,
			httpadapter.WithLogger(logger),
			httpadapter.WithMetrics(collector, registry),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting formwork server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("formwork server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return logging.Default(level)
}
