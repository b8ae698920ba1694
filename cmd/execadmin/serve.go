package main

import (
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/greg-hellings/execadmin/pkg/server"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API for browser front ends",
		Long: strings.TrimSpace(`
Serve executive search, export, record validation and classification
selector sessions over HTTP until interrupted. The listen address and the
allowed CORS origins come from the server section of the configuration.`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			addr := a.cfg.Server.Address
			if serveAddr != "" {
				addr = serveAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Options{
				Searcher:       a.executives,
				Lookup:         a.prompts,
				Sizes:          a.store,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				Logger:         slog.Default(),
			})
			return srv.Run(ctx, addr)
		},
	}
	c.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.address)")
	return c
}
