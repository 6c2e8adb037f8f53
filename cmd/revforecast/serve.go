package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aouyang1/revforecast/server"
	"github.com/aouyang1/revforecast/telemetry"
	"github.com/spf13/cobra"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&flagListen, "listen", "l", "", "Listen address, overriding the config")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if flagListen != "" {
		cfg.Server.Listen = flagListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, cfg.Telemetry.Tracing(version))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
			logger.Error("unable to flush traces", "err", err)
		}
	}()

	srv := server.New(cfg.Server, cfg.Forecast.Horizon(), logger)
	srv.Factory = cfg.Forecast.Factory()
	return srv.Run(ctx)
}
