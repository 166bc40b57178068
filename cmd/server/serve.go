package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpDelivery "github.com/shopmate/backend/internal/delivery/http"
	"github.com/shopmate/backend/internal/infrastructure/cache"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.cfg
		a.log.WithFields(logrus.Fields{
			"version":     version,
			"environment": cfg.Server.Environment,
			"port":        cfg.Server.Port,
			"metrics":     cfg.Metrics.Type,
			"session_ttl": cfg.Session.TTL,
		}).Info("Starting ShopMate backend")

		sessions := cache.NewSessionStore(a.catalog, cfg.Session.TTL)
		defer sessions.Close()

		handler := httpDelivery.NewHandler(httpDelivery.Services{
			Catalog:   a.catalog,
			Search:    a.search,
			Optimizer: a.optimizer,
			Resolver:  a.resolver,
			Planner:   a.planner,
			Sessions:  sessions,
			Metrics:   a.metrics,
		}, a.log)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:           httpDelivery.SetupRouter(cfg, handler, a.log),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			a.log.WithField("addr", srv.Addr).Info("Server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		a.log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
