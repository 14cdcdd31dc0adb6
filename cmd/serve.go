package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/api"
	"github.com/sivamaran/reddit-scraper/internal/server"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves on-demand extraction over HTTP",
		Long: `Starts the HTTP API: POST /v1/extract runs one batch per request,
GET /healthz reports liveness and GET /metrics exposes Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.Config()
			if port <= 0 {
				port = cfg.Server.Port
			}
			apiServer := api.NewServer(
				appInstance.Extractor(),
				appInstance.Store(),
				appInstance.IDs(),
				api.Config{
					RequestTimeout: cfg.Server.RequestTimeout,
					MaxURLs:        cfg.Server.MaxURLs,
					MaxBodyBytes:   cfg.Server.MaxBodyBytes,
				},
				appInstance.Logger(),
			)
			addr := fmt.Sprintf(":%d", port)
			appInstance.Logger().Info("serving extraction api", zap.String("addr", addr))
			return server.Serve(cmd.Context(), addr, apiServer.Handler(), appInstance.Logger())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default server.port)")
	return cmd
}
