package worker

// alert_worker.go
// Sends operational alert emails from QueueAlert. The main producer is the
// fulfillment orchestrator when a pipeline stalls (compensation failed) —
// those alerts carry the pipeline id so ops can pull the journal and
// reconcile by hand.

import (
	"context"
	"encoding/json"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertJobPayload is the job envelope sent to QueueAlert.
type AlertJobPayload struct {
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	PipelineID string `json:"pipeline_id,omitempty"`
}

// AlertWorker delivers alert emails to the configured ops address.
type AlertWorker struct {
	mailer   *infra.Mailer
	opsEmail string
}

func NewAlertWorker(mailer *infra.Mailer, opsEmail string) *AlertWorker {
	return &AlertWorker{mailer: mailer, opsEmail: opsEmail}
}

// Process handles a single alert job. Delivery failures are logged, not
// retried here — the stalled-pipeline cron will raise the alert again on the
// next escalation tick.
func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) {
	var payload AlertJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return
	}

	if err := w.mailer.SendAlert(w.opsEmail, payload.Subject, payload.Body, ""); err != nil {
		log.Error().
			Err(err).
			Str("pipeline_id", payload.PipelineID).
			Msg("alert_worker: failed to send alert email")
		return
	}

	log.Info().
		Str("pipeline_id", payload.PipelineID).
		Str("subject", payload.Subject).
		Msg("alert_worker: alert delivered")
}
