/*
main.go - Application entry point

PURPOSE:

	Initializes and starts the HR backend server: configuration, database,
	seed data, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
 1. Load configuration from the environment (.env supported)
 2. Open the SQLite database and migrate the schema
 3. Seed the admin user (and demo data when SEED_DEMO=true)
 4. Wire services, handlers and the router
 5. Start the server with graceful shutdown

GRACEFUL SHUTDOWN:

	On SIGINT/SIGTERM:
	1. Stop accepting new connections
	2. Wait for active requests to complete (30s timeout)
	3. Exit

SEE ALSO:
  - config/config.go: environment variables
  - api/server.go: router configuration
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/hr-backend/api"
	"github.com/warp/hr-backend/config"
	"github.com/warp/hr-backend/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	if err := store.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.WithError(err).Fatal("failed to seed admin user")
	}
	if cfg.SeedDemo {
		if err := store.SeedDemo(db); err != nil {
			log.WithError(err).Warn("failed to seed demo data")
		}
	}

	handler := api.NewHandler(db, log, cfg.DocumentDir)
	auth := api.NewAuth(
		store.NewGormUserRepository(db),
		cfg.SessionSecret,
		time.Duration(cfg.TokenTTLHours)*time.Hour,
		log,
	)
	router := api.NewRouter(handler, auth)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
