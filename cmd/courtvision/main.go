package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"courtvision/internal/cfg"
	"courtvision/internal/features"
	"courtvision/internal/ingest"
	"courtvision/internal/metrics"
	"courtvision/internal/nba"
	"courtvision/internal/predict"
	"courtvision/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// storeRecorder adapts the storage layer to the prediction server's
// Recorder interface.
type storeRecorder struct {
	store *storage.Store
}

func (r *storeRecorder) Record(res predict.Result) error {
	return r.store.PutPrediction(storage.PredictionRecord{
		HomeTeam:     res.HomeTeam,
		AwayTeam:     res.AwayTeam,
		GameDate:     res.AsOf,
		HomeWinProb:  res.HomeWinProb,
		AwayWinProb:  res.AwayWinProb,
		Margin:       res.Margin,
		Confidence:   res.Confidence,
		ModelVersion: res.ModelVersion,
		GeneratedAt:  time.Now().UTC(),
	})
}

func main() {
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("storage initialization failed")
	}
	defer store.Close()

	// A missing model means the pipeline must not accept requests at all.
	model, err := predict.Load(c.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Msg("model load failed, refusing to serve")
	}
	if info, err := os.Stat(c.ModelPath); err == nil {
		mw.ModelAgeSet(time.Since(info.ModTime()).Seconds())
	}

	predictor, err := predict.NewPredictor(model, mw)
	if err != nil {
		log.Fatal().Err(err).Msg("predictor initialization failed")
	}

	extractor := features.NewExtractor(store, features.Params{
		MaxRestDays:     c.MaxRestDays,
		DefaultRestDays: c.DefaultRestDays,
		H2HLookback:     c.H2HLookback,
		StreakLookback:  c.StreakLookback,
	}, mw)

	pipeline := predict.NewPipeline(extractor, predictor, predict.Scorer{
		Floor:   c.ConfidenceFloor,
		Ceiling: c.ConfidenceCeiling,
	}, mw)

	startMetricsServer(ctx, c.MetricsPort)
	server := startPredictionServer(ctx, pipeline, store, c.ServerPort)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown prediction server")
		}
	}()

	var wg sync.WaitGroup
	startIngestion(ctx, &wg, c, store, mw)

	waitForShutdown(ctx, cancel, &wg)
}

// startMetricsServer serves Prometheus metrics and the liveness endpoint.
func startMetricsServer(ctx context.Context, port int) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// startPredictionServer serves the prediction JSON API.
func startPredictionServer(ctx context.Context, pipeline *predict.Pipeline, store *storage.Store, port int) *predict.Server {
	server := predict.NewServer(pipeline, &storeRecorder{store: store}, port)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("prediction server failed")
		}
	}()
	return server
}

// startIngestion runs the periodic provider sync when an API key is
// configured. Without one the service serves predictions from whatever
// history is already stored.
func startIngestion(ctx context.Context, wg *sync.WaitGroup, c cfg.Settings, store *storage.Store, mw *metrics.Wrapper) {
	if c.APIKey == "" {
		log.Warn().Msg("NBA_API_KEY not set, data ingestion disabled")
		return
	}

	client := nba.NewClient(c.APIKey, c.APIBaseURL, c.RESTTimeout)
	syncer := ingest.NewSyncer(client, store, mw)

	wg.Add(1)
	go func() {
		defer wg.Done()

		runSync(ctx, syncer, c.SyncDaysBack)

		ticker := time.NewTicker(c.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runSync(ctx, syncer, c.SyncDaysBack)
			}
		}
	}()
}

func runSync(ctx context.Context, syncer *ingest.Syncer, daysBack int) {
	if _, err := syncer.SyncTeams(ctx); err != nil {
		log.Error().Err(err).Msg("team sync failed")
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -daysBack)
	if _, err := syncer.SyncGames(ctx, start, end); err != nil {
		log.Error().Err(err).Msg("game sync failed")
	}
}

// waitForShutdown blocks until a signal arrives, then stops all background
// goroutines with a timeout.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("shutdown timeout, forcing exit")
	}
}
