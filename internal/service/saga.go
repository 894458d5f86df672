package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runTx executes fn inside a database transaction. With a nil db (unit tests
// against stub repositories) fn runs directly with a nil tx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// sagaStep is one unit of an orchestrated action. Run and Undo each execute in
// their own transaction; Undo must reverse Run's effects and be safe to call
// only after Run committed.
type sagaStep struct {
	Name string
	Run  func(tx *gorm.DB) error
	Undo func(tx *gorm.DB) error
}

// sagaRunner drives a multi-step action with a durable journal and reverse
// compensation. Journal writes deliberately run outside the step transactions:
// a step that rolls back must still leave its failure on record.
//
// Outcomes:
//   - all steps commit            -> pipeline "completed"
//   - step fails, undos all ok    -> pipeline "compensated", original error returned
//   - step fails, an undo fails   -> pipeline "stalled", PartialFailureError returned,
//     alert queued and the escalation cron takes over
type sagaRunner struct {
	db         *gorm.DB
	pipelines  repository.PipelineRepository
	dispatcher *worker.Dispatcher
}

func (r *sagaRunner) run(ctx context.Context, actor dto.Actor, action string, docType model.DocumentType, docID uuid.UUID, steps []sagaStep) (*model.FulfillmentPipeline, error) {
	pipeline := &model.FulfillmentPipeline{
		ID:           uuid.New(),
		Action:       action,
		DocumentType: docType,
		DocumentID:   docID,
		Status:       model.PipelineRunning,
		CreatedBy:    actor.UserID,
	}
	if err := r.pipelines.Create(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("saga: create pipeline: %w", err)
	}

	completed := make([]model.PipelineStep, 0, len(steps))

	for i, step := range steps {
		err := runTx(ctx, r.db, step.Run)

		rec := model.PipelineStep{
			ID:         uuid.New(),
			PipelineID: pipeline.ID,
			Seq:        i + 1,
			Name:       step.Name,
			Status:     model.StepCompleted,
		}
		if err != nil {
			msg := err.Error()
			rec.Status = model.StepFailed
			rec.Error = &msg
		}
		if jerr := r.pipelines.AddStep(ctx, &rec); jerr != nil {
			log.Error().Err(jerr).Str("pipeline_id", pipeline.ID.String()).Str("step", step.Name).
				Msg("saga: failed to journal step")
		}

		if err == nil {
			completed = append(completed, rec)
			continue
		}

		return pipeline, r.compensate(ctx, pipeline, steps, completed, step.Name, err)
	}

	if err := r.pipelines.SetStatus(ctx, pipeline.ID, model.PipelineCompleted, nil, nil); err != nil {
		log.Error().Err(err).Str("pipeline_id", pipeline.ID.String()).Msg("saga: failed to mark pipeline completed")
	}
	pipeline.Status = model.PipelineCompleted
	return pipeline, nil
}

// compensate reverses the completed steps in LIFO order, each in its own
// transaction. runErr is the error that aborted the forward run and is what
// the caller ultimately receives when compensation fully restores state.
func (r *sagaRunner) compensate(ctx context.Context, pipeline *model.FulfillmentPipeline, steps []sagaStep, completed []model.PipelineStep, failedStep string, runErr error) error {
	runMsg := runErr.Error()

	for i := len(completed) - 1; i >= 0; i-- {
		rec := completed[i]
		undo := steps[rec.Seq-1].Undo
		if undo == nil {
			continue
		}

		if err := runTx(ctx, r.db, undo); err != nil {
			// Compensation itself failed. The ledger or a document may now
			// disagree with the journal; freeze the pipeline for manual
			// reconciliation and tell the caller exactly what applied.
			undoMsg := fmt.Sprintf("step %q failed: %s; compensating %q failed: %s",
				failedStep, runMsg, rec.Name, err.Error())
			if jerr := r.pipelines.SetStatus(ctx, pipeline.ID, model.PipelineStalled, &failedStep, &undoMsg); jerr != nil {
				log.Error().Err(jerr).Str("pipeline_id", pipeline.ID.String()).Msg("saga: failed to mark pipeline stalled")
			}
			next := time.Now().Add(time.Minute)
			if jerr := r.pipelines.ScheduleRetry(ctx, pipeline.ID, 0, &next); jerr != nil {
				log.Error().Err(jerr).Str("pipeline_id", pipeline.ID.String()).Msg("saga: failed to schedule escalation")
			}

			pf := &apierror.PartialFailureError{
				PipelineID:     pipeline.ID,
				Action:         pipeline.Action,
				FailedStep:     failedStep,
				CompletedSteps: stepNames(completed[:i+1]),
				CompensateErr:  err.Error(),
			}

			if r.dispatcher != nil {
				alert := worker.AlertJobPayload{
					Subject:    fmt.Sprintf("[scm] stalled pipeline %s (%s)", pipeline.ID, pipeline.Action),
					Body:       pf.Error() + "\n\n" + undoMsg,
					PipelineID: pipeline.ID.String(),
				}
				if qerr := r.dispatcher.EnqueueAlert(ctx, alert); qerr != nil {
					log.Error().Err(qerr).Str("pipeline_id", pipeline.ID.String()).Msg("saga: failed to enqueue stall alert")
				}
			}

			log.Error().
				Str("pipeline_id", pipeline.ID.String()).
				Str("action", pipeline.Action).
				Str("failed_step", failedStep).
				Str("stuck_compensation", rec.Name).
				Msg("saga: pipeline stalled, manual reconciliation required")
			return pf
		}

		if jerr := r.pipelines.UpdateStepStatus(ctx, rec.ID, model.StepCompensated, nil); jerr != nil {
			log.Error().Err(jerr).Str("pipeline_id", pipeline.ID.String()).Str("step", rec.Name).
				Msg("saga: failed to journal compensation")
		}
	}

	if jerr := r.pipelines.SetStatus(ctx, pipeline.ID, model.PipelineCompensated, &failedStep, &runMsg); jerr != nil {
		log.Error().Err(jerr).Str("pipeline_id", pipeline.ID.String()).Msg("saga: failed to mark pipeline compensated")
	}

	log.Warn().
		Str("pipeline_id", pipeline.ID.String()).
		Str("action", pipeline.Action).
		Str("failed_step", failedStep).
		Err(runErr).
		Msg("saga: action failed, prior state restored")
	return runErr
}

func stepNames(steps []model.PipelineStep) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}
