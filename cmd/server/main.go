package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/config"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/gateway"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/infra"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/router"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title           SCM Fulfillment API
// @version         1.0
// @description     Inventory reservation and cross-document fulfillment orchestration.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Pretty console logs in development, JSON in production
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Context cancelled on SIGINT/SIGTERM: drives worker pool, cron and
	// server shutdown together.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	masterDataCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	masterData := gateway.NewMasterDataClient(cfg.MasterDataURL, masterDataCB)

	// Async workers: alert emails and pick-list PDFs
	mailer := infra.NewMailer(cfg)
	ticketRepo := repository.NewTicketRepository(db)
	pipelineRepo := repository.NewPipelineRepository(db)
	dispatcher := worker.NewDispatcher(rdb)

	alertWorker := worker.NewAlertWorker(mailer, cfg.OpsEmail)
	pickListWorker := worker.NewPickListWorker(ticketRepo, masterData, cfg.PickListStoragePath)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.Handler{
		worker.QueueAlert:    alertWorker.Process,
		worker.QueuePickList: pickListWorker.Process,
	})
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		PipelineRepo: pipelineRepo,
		Dispatcher:   dispatcher,
		RDB:          rdb,
	})

	r := router.New(cfg, db, rdb, masterDataCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
