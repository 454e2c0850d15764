package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"goassay/adapters/excel"
	"goassay/app"
	"goassay/domain/core"
	"goassay/internal"
	"goassay/internal/calibration"
	"goassay/internal/planner"
)

func main() {
	_ = godotenv.Load()

	var (
		seed      = flag.Int64("seed", 1, "simulator seed")
		seeds     = flag.Int("sweep", 0, "run a sweep over this many consecutive seeds instead of one search")
		steps     = flag.Int("steps", 8, "episode horizon in timesteps")
		beamWidth = flag.Int("beam", 12, "beam width")
		budget    = flag.Int("budget", 5, "intervention budget")
		floor     = flag.Float64("floor", 0.35, "viability floor (death tolerance)")
		modelPath = flag.String("model", "", "calibrator model artifact (JSON); dev-default when empty")
		report    = flag.String("report", "", "write an .xlsx forensics report to this path")
	)
	flag.Parse()

	logger := internal.NewDefaultLogger()

	cal := calibration.New()
	if *modelPath != "" {
		if err := cal.Load(*modelPath); err != nil {
			log.Fatalf("calibrator: %v", err)
		}
	} else {
		cal = calibration.NewFromModel(calibration.DefaultModel())
	}

	cfg := planner.DefaultConfig()
	cfg.Steps = *steps
	cfg.BeamWidth = *beamWidth
	cfg.InterventionBudget = *budget
	cfg.ViabilityFloor = *floor

	search := app.NewSearchService(cal, nil, logger)
	ctx := context.Background()
	sessionID := core.SessionID(core.NewID())

	if *seeds > 1 {
		sweep := app.NewSweepService(search, 4, logger)
		seedList := make([]int64, *seeds)
		for i := range seedList {
			seedList[i] = *seed + int64(i)
		}
		summary, err := sweep.RunSweep(ctx, sessionID, seedList, cfg)
		if err != nil {
			log.Fatalf("sweep: %v", err)
		}
		fmt.Printf("seeds:         %d (failures %d)\n", summary.Seeds, summary.Failures)
		fmt.Printf("commit rate:   %.2f\n", summary.CommitRate)
		fmt.Printf("reward:        mean %.3f, median %.3f, stdev %.3f\n",
			summary.MeanReward, summary.MedianReward, summary.StdevReward)
		return
	}

	outcome, err := search.RunSearch(ctx, app.SearchRequest{
		SessionID: sessionID,
		Seed:      *seed,
		Config:    cfg,
	})
	if err != nil {
		log.Fatalf("search: %v", err)
	}

	f := outcome.Result.Forensics
	fmt.Printf("final action:  %s\n", f.FinalAction)
	if f.Mechanism != "" {
		fmt.Printf("mechanism:     %s\n", f.Mechanism)
	}
	fmt.Printf("reason:        %s\n", f.Reason)
	fmt.Printf("top posterior: %.3f (gap to commit %.3f)\n", f.TopProbability, f.PosteriorGap)
	fmt.Printf("nuisance:      %.3f (gap to commit %.3f)\n", f.NuisanceProbability, f.NuisanceGap)
	fmt.Printf("schedule:      %s\n", outcome.Result.BestSchedule.String())
	fmt.Printf("reward:        %.3f\n", outcome.Result.BestReward)
	c := outcome.Result.Counters
	fmt.Printf("expanded %d, pruned budget/viability/error %d/%d/%d, cache hits %d\n",
		c.Expanded, c.PrunedBudget, c.PrunedViability, c.PrunedError, c.CacheHits)

	if *report != "" {
		if err := os.MkdirAll(filepath.Dir(*report), 0o755); err != nil {
			log.Fatalf("report dir: %v", err)
		}
		writer := excel.NewReportWriter()
		if err := writer.Write(*report, outcome.Record, outcome.Result.Trajectory); err != nil {
			log.Fatalf("report: %v", err)
		}
		fmt.Printf("report:        %s\n", *report)
	}
}
