package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantummeet/quantummeet/internal/auth"
	"github.com/quantummeet/quantummeet/internal/dashboard"
	"github.com/quantummeet/quantummeet/internal/db"
	"github.com/quantummeet/quantummeet/internal/logging"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Long:  "Serves the QuantumMeet dashboard pages and RPC API, and prunes expired sessions in the background.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to QuantumMeet config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	pruner, err := auth.StartPruner(gormDB, cfg.Auth.PruneSchedule, log)
	if err != nil {
		return err
	}
	defer pruner.Stop()

	if port <= 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	log.WithField("port", port).WithField("driver", cfg.Database.Driver).Info("serve: starting dashboard")
	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:          gormDB,
		Port:        port,
		Out:         cmd.OutOrStdout(),
		Logger:      log,
		Auth:        cfg.Auth,
		GetOneDelay: cfg.Debug.GetOneDelay,
	})
}
