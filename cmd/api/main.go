package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/openclinic-br/consultorio-api/internal/config"
	"github.com/openclinic-br/consultorio-api/internal/handler"
	consultationHandler "github.com/openclinic-br/consultorio-api/internal/handler/consultation"
	financeHandler "github.com/openclinic-br/consultorio-api/internal/handler/finance"
	patientHandler "github.com/openclinic-br/consultorio-api/internal/handler/patient"
	"github.com/openclinic-br/consultorio-api/internal/repository/postgres"
	"github.com/openclinic-br/consultorio-api/internal/repository/sqlite"
	"github.com/openclinic-br/consultorio-api/internal/repository/sqlstore"
	"github.com/openclinic-br/consultorio-api/internal/router"
	consultationService "github.com/openclinic-br/consultorio-api/internal/service/consultation"
	financeService "github.com/openclinic-br/consultorio-api/internal/service/finance"
	patientService "github.com/openclinic-br/consultorio-api/internal/service/patient"
	"github.com/openclinic-br/consultorio-api/pkg/logger"
	"github.com/openclinic-br/consultorio-api/pkg/metrics"
)

func main() {
	lg := logger.New(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		lg.Fatal(err, "failed to load configuration")
	}

	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.Log.Level))

	store, err := openStore(cfg)
	if err != nil {
		lg.Fatal(err, "failed to open storage backend")
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		lg.Fatal(err, "failed to migrate schema")
	}

	m := metrics.New("consultorio")

	// The finance service owns the overview cache; the write-path services
	// invalidate it.
	financeSvc := financeService.NewService(store)
	patientSvc := patientService.NewService(store, financeSvc)
	consultationSvc := consultationService.NewService(store, m, financeSvc)

	healthHandler := handler.NewHealthHandler(store)
	patientsHandler := patientHandler.NewHandler(patientSvc)
	consultationsHandler := consultationHandler.NewHandler(consultationSvc)
	financesHandler := financeHandler.NewHandler(financeSvc)

	r := router.NewRouter(cfg, m, healthHandler, patientsHandler, consultationsHandler, financesHandler)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		lg.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Fatal(err, "server forced to shutdown")
	}

	lg.Info("server exited properly")
}

func openStore(cfg *config.Config) (*sqlstore.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return postgres.NewStore(cfg.Storage.Postgres)
	case "sqlite":
		return sqlite.NewStore(cfg.Storage.SQLite)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
