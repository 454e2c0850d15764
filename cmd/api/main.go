package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"goassay/adapters/postgres"
	"goassay/app"
	"goassay/internal"
	"goassay/internal/calibration"
	"goassay/internal/config"
	"goassay/internal/planner"
	"goassay/ports"
	"goassay/ui"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := internal.NewDefaultLogger()

	cal := calibration.New()
	if _, err := os.Stat(cfg.Paths.CalibratorModel); err == nil {
		if err := cal.Load(cfg.Paths.CalibratorModel); err != nil {
			log.Fatalf("calibrator: %v", err)
		}
		logger.Info("calibrator model loaded from %s", cfg.Paths.CalibratorModel)
	} else {
		logger.Warn("no calibrator artifact at %s; using dev-default model", cfg.Paths.CalibratorModel)
		cal = calibration.NewFromModel(calibration.DefaultModel())
	}

	var archive ports.RunArchivePort
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			log.Fatalf("schema: %v", err)
		}
		archive = postgres.NewRunRepository(db)
		logger.Info("run archive connected")
	} else {
		logger.Warn("DATABASE_URL not set; runs will not be archived")
	}

	searchCfg := plannerConfig(cfg)
	search := app.NewSearchService(cal, archive, logger)

	srv := ui.NewServer(search, archive, searchCfg, logger)
	if err := srv.Start(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func plannerConfig(cfg *config.Config) planner.Config {
	pc := planner.DefaultConfig()
	pc.Steps = cfg.Search.Steps
	pc.BeamWidth = cfg.Search.BeamWidth
	pc.InterventionBudget = cfg.Search.InterventionBudget
	pc.ViabilityFloor = cfg.Search.ViabilityFloor
	return pc
}
