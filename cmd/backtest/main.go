package main

import (
	"context"
	"flag"
	"os"

	"courtvision/internal/backtest"
	"courtvision/internal/cfg"
	"courtvision/internal/features"
	"courtvision/internal/predict"
	"courtvision/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		modelPath  = flag.String("model", "", "model artifact path (default: built-in model)")
		outputPath = flag.String("output", "backtest_results", "report output directory")
	)
	flag.Parse()

	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("storage initialization failed")
	}
	defer store.Close()

	games, err := store.Games()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load games")
	}

	model := predict.Default()
	if *modelPath != "" {
		model, err = predict.Load(*modelPath)
		if err != nil {
			log.Fatal().Err(err).Msg("model load failed")
		}
	}

	engine, err := backtest.NewEngine(games, model, features.Params{
		MaxRestDays:     c.MaxRestDays,
		DefaultRestDays: c.DefaultRestDays,
		H2HLookback:     c.H2HLookback,
		StreakLookback:  c.StreakLookback,
	}, predict.Scorer{Floor: c.ConfidenceFloor, Ceiling: c.ConfidenceCeiling})
	if err != nil {
		log.Fatal().Err(err).Msg("backtest setup failed")
	}

	results, err := engine.Run(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}

	reporter := backtest.NewReporter(results, *outputPath)
	if err := reporter.WriteSummary(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("failed to write summary")
	}
	if err := reporter.GenerateReport(); err != nil {
		log.Fatal().Err(err).Msg("failed to generate report")
	}

	log.Info().
		Int("games", results.TotalGames).
		Float64("accuracy", results.Accuracy).
		Float64("brier", results.BrierScore).
		Str("output", *outputPath).
		Msg("backtest complete")
}
