package worker

// retry_cron.go
// Background goroutine that periodically scans for stalled fulfillment
// pipelines (a step failed AND its compensation failed) whose next_retry_at
// is in the past, and escalates them: re-raise the ops alert with exponential
// backoff until someone resolves the pipeline, then park it in the DLQ once
// the escalation budget is exhausted.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10

	// MaxPipelineEscalations bounds how often one stalled pipeline alerts
	// before being parked in the DLQ.
	MaxPipelineEscalations = 5
)

// RetryCronConfig holds all dependencies for the escalation goroutine.
type RetryCronConfig struct {
	PipelineRepo repository.PipelineRepository
	Dispatcher   *Dispatcher
	RDB          *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// escalates due stalled pipelines. It respects the context for graceful
// shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processStalled(ctx, cfg)
			}
		}
	}()
}

func processStalled(ctx context.Context, cfg RetryCronConfig) {
	pipelines, err := cfg.PipelineRepo.ListStalled(ctx, time.Now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query stalled pipelines")
		return
	}
	if len(pipelines) == 0 {
		return
	}

	log.Info().Int("count", len(pipelines)).Msg("retry_cron: escalating stalled pipelines")

	for i := range pipelines {
		p := &pipelines[i]
		retries := p.RetryCount + 1

		if retries > MaxPipelineEscalations {
			// Park in the DLQ and stop re-alerting; the pipeline record
			// itself stays stalled until resolved through the API.
			payload, _ := json.Marshal(map[string]string{"pipeline_id": p.ID.String(), "action": p.Action})
			ParkJob(ctx, cfg.RDB, QueueAlert, "pipeline_escalation", payload,
				fmt.Sprintf("escalation budget (%d) exhausted", MaxPipelineEscalations), p.RetryCount)
			_ = cfg.PipelineRepo.ScheduleRetry(ctx, p.ID, p.RetryCount, nil)
			continue
		}

		failedStep := ""
		if p.FailedStep != nil {
			failedStep = *p.FailedStep
		}
		lastErr := ""
		if p.LastError != nil {
			lastErr = *p.LastError
		}

		alert := AlertJobPayload{
			Subject:    fmt.Sprintf("[scm] stalled pipeline %s (%s, escalation %d)", p.ID, p.Action, retries),
			Body: fmt.Sprintf(
				"Pipeline %s for %s %s stalled at step %q.\nLast error: %s\nCompleted steps are journaled; reconcile manually and resolve via POST /v1/pipelines/%s/resolve.",
				p.ID, p.DocumentType, p.DocumentID, failedStep, lastErr, p.ID),
			PipelineID: p.ID.String(),
		}
		if err := cfg.Dispatcher.EnqueueAlert(ctx, alert); err != nil {
			log.Error().Err(err).Str("pipeline_id", p.ID.String()).Msg("retry_cron: failed to enqueue alert")
			continue
		}

		next := time.Now().Add(computeEscalationBackoff(retries))
		if err := cfg.PipelineRepo.ScheduleRetry(ctx, p.ID, retries, &next); err != nil {
			log.Error().Err(err).Str("pipeline_id", p.ID.String()).Msg("retry_cron: failed to schedule next escalation")
		}

		log.Warn().
			Str("pipeline_id", p.ID.String()).
			Str("action", p.Action).
			Int("escalation", retries).
			Time("next_retry_at", next).
			Msg("retry_cron: stalled pipeline escalated")
	}
}

// computeEscalationBackoff doubles the interval per escalation: 1m, 2m, 4m…
func computeEscalationBackoff(retries int) time.Duration {
	d := time.Minute
	for i := 1; i < retries; i++ {
		d *= 2
	}
	if d > 30*time.Minute {
		d = 30 * time.Minute
	}
	return d
}

// pipelineIsResolvable is a tiny guard shared with tests: only stalled
// pipelines are escalated or resolved.
func pipelineIsResolvable(status string) bool {
	return status == model.PipelineStalled
}
