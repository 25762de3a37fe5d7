package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"parceltrack/cmd"
	httpin "parceltrack/internal/adapters/in/http"
	"parceltrack/internal/adapters/out/postgres"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:          "parceltrack",
		Short:        "Parcel tracking and dispatch service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file; environment variables take precedence")
	root.AddCommand(serveCommand(), migrateCommand())

	if err := root.Execute(); err != nil {
		log.Fatalf("parceltrack: %v", err)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the realtime stream and the scheduled jobs",
		RunE: func(_ *cobra.Command, _ []string) error {
			configs, err := cmd.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			logger := newLogger(configs)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := cmd.NewCompositionRoot(ctx, configs, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("shutdown", "error", err)
				}
			}()

			app.Run(ctx)

			jobManager := app.CreateJobManager()
			if err = jobManager.StartAll(); err != nil {
				return err
			}
			defer jobManager.StopAll()

			return startWebServer(ctx, app, configs.HTTPPort, logger)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(c *cobra.Command, _ []string) error {
			configs, err := cmd.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			logger := newLogger(configs)

			db, err := cmd.OpenDatabase(configs)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err = postgres.Migrate(c.Context(), db); err != nil {
				return err
			}
			logger.Info("schema is up to date", "database", configs.DBName)
			return nil
		},
	}
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port string, logger *slog.Logger) error {
	server := httpin.NewServer(app.CreateHTTPHandlers(), app.Hub(), logger)
	e, err := httpin.NewRouter(server, logger)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			e.Logger.Error(err)
		}
	}()

	logger.Info("http server listening", "port", port)
	if err = e.Start(fmt.Sprintf("0.0.0.0:%s", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(configs cmd.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(configs.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(configs.LogFormat, "text") {
		handler = slog.NewTextHandler(os.Stdout, options)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, options)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
