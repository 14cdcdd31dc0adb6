// Package cmd defines and implements the CLI commands for the extractor
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/api"
	"github.com/sivamaran/reddit-scraper/internal/app"
	"github.com/sivamaran/reddit-scraper/internal/config"
	"github.com/sivamaran/reddit-scraper/internal/logging"
	"github.com/sivamaran/reddit-scraper/internal/store"
)

var cfgFile string

type appKeyType string

const appKey appKeyType = "app"

// App is the service container the commands use. Tests inject fakes through
// newApp.
type App interface {
	Close()
	Logger() *zap.Logger
	Config() config.Config
	Extractor() api.Extractor
	Store() store.Upserter
	IDs() api.IDGenerator
}

type appAdapter struct {
	*app.App
}

func (a appAdapter) Extractor() api.Extractor { return a.Orchestrator() }
func (a appAdapter) IDs() api.IDGenerator     { return a.App.IDs() }

var newApp = func(ctx context.Context, path string) (App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return appAdapter{App: a}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reddit-extractor",
		Short: "Extracts structured Reddit post records with two reconciled strategies.",
		Long: `reddit-extractor renders each post in a stealth headless browser and
fetches it again as static HTML, then merges both partial records into one
document per URL. Documents can be written to a JSON file, stored in Postgres
or Redis, or served over HTTP.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")

	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signalContext()
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		zap.L().Error("command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
