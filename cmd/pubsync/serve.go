package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/IRL-CT/IRL-CT.github.io/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cache as a read-only JSON API",
	Long: `Serve exposes the cached publications over HTTP:

  GET /health
  GET /api/cache
  GET /api/publications[?year=2024]
  GET /api/publications/{doi}

The server only reads the cache document, so it can run alongside sync.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from serve.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = app.cfg.Serve.Addr
	}

	srv := server.New(newStore(app.cfg), server.Options{
		TTL:     app.cfg.Cache.TTL,
		Version: version,
		Logger:  app.logger,
	})

	app.logger.Info("serving publication cache", zap.String("addr", addr), zap.String("cache", app.cfg.Cache.Path))
	return srv.Run(cmd.Context(), addr)
}
