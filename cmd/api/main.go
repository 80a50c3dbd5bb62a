package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"gocausal/adapters/postgres"
	"gocausal/adapters/rng"
	"gocausal/app"
	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/internal/pipeline"
	"gocausal/ports"
	"gocausal/ui"
)

func main() {
	_ = godotenv.Load()
	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration: %v", err)
		os.Exit(1)
	}

	var repo ports.ReportRepository
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(context.Background(), cfg.Database.URL)
		if err != nil {
			logger.Error("database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = postgres.NewReportRepository(db)
		logger.Info("report persistence enabled")
	}

	streams := rng.NewStreamFactory()
	service := app.NewAnalysisService(pipeline.New(nil, nil), streams, repo, logger)
	httpApp := ui.NewApp(service, repo, logger)

	addr := ":" + cfg.Server.Port
	logger.Info("listening on %s", addr)
	if err := http.ListenAndServe(addr, httpApp.Router()); err != nil {
		logger.Error("server: %v", err)
		os.Exit(1)
	}
}
