package worker

// Dead-letter lists, one per source queue (dlq:{queue}). The only producer
// today is the escalation cron parking pipelines whose alert budget ran out;
// entries are inspected and replayed by hand through redis-cli. The health
// endpoint reports the combined depth so a growing backlog is visible.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const dlqPrefix = "dlq:"

// ParkedJob is one dead-letter entry, carrying enough context to replay the
// job or trace it back to its pipeline.
type ParkedJob struct {
	Queue    string          `json:"queue"`
	JobType  string          `json:"job_type"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	Attempts int             `json:"attempts"`
	ParkedAt time.Time       `json:"parked_at"`
}

// ParkJob moves a job that will no longer be retried onto the dead-letter
// list for its queue. Best-effort: a Redis failure is logged, not returned,
// since the caller has nothing better to do with it.
func ParkJob(ctx context.Context, rdb *redis.Client, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := ParkedJob{
		Queue:    queue,
		JobType:  jobType,
		Payload:  payload,
		Reason:   reason,
		Attempts: attempts,
		ParkedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal parked job")
		return
	}
	if err := rdb.LPush(ctx, dlqPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to park job")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job parked")
}

// ParkedCount returns how many jobs are parked for a queue.
func ParkedCount(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, dlqPrefix+queue).Result()
}
