package model

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline statuses.
const (
	PipelineRunning     = "running"
	PipelineCompleted   = "completed"
	PipelineCompensated = "compensated" // failed, but compensation restored prior state
	PipelineStalled     = "stalled"     // failed AND compensation failed — needs reconciliation
	PipelineResolved    = "resolved"    // operator reconciled a stalled run by hand
)

// Step statuses.
const (
	StepCompleted   = "completed"
	StepFailed      = "failed"
	StepCompensated = "compensated"
)

// FulfillmentPipeline is the durable journal of one orchestrated action.
// Every step of a confirm/issue/receive/complete records itself here before
// and after running, so a failure partway through is never invisible: the
// reconciliation worker (and operators) can see exactly which steps applied
// and re-attempt or reverse them.
type FulfillmentPipeline struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Action       string       `gorm:"not null"` // confirm | issue | receive | complete_production | ...
	DocumentType DocumentType `gorm:"not null"`
	DocumentID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	Status       string       `gorm:"not null;default:'running';index"`
	FailedStep   *string
	LastError    *string
	RetryCount   int `gorm:"not null;default:0"`
	NextRetryAt  *time.Time `gorm:"index"`
	CreatedBy    uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Steps []PipelineStep `gorm:"foreignKey:PipelineID"`
}

func (FulfillmentPipeline) TableName() string { return "fulfillment_pipelines" }

// PipelineStep is one journaled step of a pipeline run.
type PipelineStep struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PipelineID uuid.UUID `gorm:"type:uuid;not null;index"`
	Seq        int       `gorm:"not null"`
	Name       string    `gorm:"not null"`
	Status     string    `gorm:"not null"`
	Error      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (PipelineStep) TableName() string { return "pipeline_steps" }
