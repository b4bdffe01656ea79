// Package cli wires the command line interface of the shortener: the HTTP
// server, schema migrations and a handful of store maintenance commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/httplog/v2"
	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/ttl-shortener/internal/app"
	"github.com/vadimbarashkov/ttl-shortener/internal/config"
	"github.com/vadimbarashkov/ttl-shortener/internal/usecase"
)

const serviceName = "ttl-shortener"

type rootOptions struct {
	configPath string
}

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "URL shortener with expiring links and click analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to the YAML config file")

	cmd.AddCommand(
		newServeCmd(o),
		newMigrateCmd(o),
		newShortenCmd(o),
		newSweepCmd(o),
		newStatsCmd(o),
		newClearCmd(o),
	)

	return cmd
}

// Execute runs the root command until ctx is done.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *rootOptions) load() (*config.Config, error) {
	if o.configPath == "" {
		return nil, fmt.Errorf("config path is not set: use --config or CONFIG_PATH")
	}

	return config.Load(o.configPath)
}

func newLogger(cfg *config.Config, cmd *cobra.Command) *httplog.Logger {
	opts := httplog.Options{
		LogLevel:       slog.LevelInfo,
		JSON:           true,
		RequestHeaders: true,
		Writer:         cmd.ErrOrStderr(),
	}

	if cfg.Env == config.EnvDev {
		opts.LogLevel = slog.LevelDebug
		opts.JSON = false
		opts.Concise = true
	}

	return httplog.NewLogger(serviceName, opts)
}

// withUseCase opens the configured storage for the duration of fn.
func (o *rootOptions) withUseCase(cmd *cobra.Command, fn func(uc *usecase.URLUseCase) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}

	storage, err := app.OpenStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	return fn(app.NewURLUseCase(cfg, storage, newLogger(cfg, cmd)))
}
