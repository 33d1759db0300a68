package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spboyer/kansan/internal/scheme"
	"github.com/spboyer/kansan/internal/schemefile"
	"github.com/spboyer/kansan/internal/schemeservice"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	host           string
	port           int
	schemesFile    string
	allowedOrigins []string
}

func newServeCommand() *cobra.Command {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a scheme service",
		Long: `Run a scheme service that publishes grading schemes and converts scores.

Schemes are read from --schemes, from server.schemes_file in .kansan.yaml,
or from the built-in sample catalog. Send SIGHUP to reload the schemes
file without restarting; a file that fails to load keeps the previous
catalog in service.

Endpoints:
  GET  /health
  GET  /schemes
  GET  /schemes/{key}
  POST /convert`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, so)
		},
	}

	cmd.Flags().StringVar(&so.host, "host", "", "Host to bind to (default from config or 127.0.0.1)")
	cmd.Flags().IntVarP(&so.port, "port", "p", 0, "Port to listen on (default from config or 8000)")
	cmd.Flags().StringVar(&so.schemesFile, "schemes", "", "YAML schemes file (default: built-in sample)")
	cmd.Flags().StringArrayVar(&so.allowedOrigins, "allow-origin", nil, "CORS origin to allow (repeatable, default *)")
	return cmd
}

func runServe(cmd *cobra.Command, so *serveOptions) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	if so.host == "" {
		so.host = cfg.Server.Host
	}
	if so.port == 0 {
		so.port = cfg.Server.Port
	}
	if so.schemesFile == "" {
		so.schemesFile = cfg.SchemesFilePath()
	}
	if len(so.allowedOrigins) == 0 {
		so.allowedOrigins = cfg.Server.AllowedOrigins
	}

	logger := slog.Default()

	cat, err := loadSchemes(so.schemesFile)
	if err != nil {
		return err
	}
	var catalogs scheme.Holder
	catalogs.Replace(cat)

	srv, err := schemeservice.New(schemeservice.Config{
		Host:           so.host,
		Port:           so.port,
		Catalogs:       &catalogs,
		AllowedOrigins: so.allowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Scheme service listening on http://%s\n", srv.Addr())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	if so.schemesFile != "" {
		g.Go(func() error {
			watchReload(ctx, so.schemesFile, &catalogs, logger)
			return nil
		})
	}
	return g.Wait()
}

// loadSchemes reads path, or returns the built-in catalog when path is empty.
func loadSchemes(path string) (*scheme.Catalog, error) {
	if path == "" {
		return schemefile.Default(), nil
	}
	return schemefile.Load(path)
}

// watchReload reloads path into catalogs on every SIGHUP until ctx is done.
func watchReload(ctx context.Context, path string, catalogs *scheme.Holder, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := reloadSchemes(path, catalogs); err != nil {
				logger.Error("Reloading schemes failed, keeping current catalog", "file", path, "error", err)
				continue
			}
			logger.Info("Reloaded schemes", "file", path, "schemes", catalogs.Load().Len())
		}
	}
}

// reloadSchemes replaces the held catalog only when path loads cleanly.
func reloadSchemes(path string, catalogs *scheme.Holder) error {
	cat, err := schemefile.Load(path)
	if err != nil {
		return err
	}
	catalogs.Replace(cat)
	return nil
}
