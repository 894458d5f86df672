package worker

import (
	"testing"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestComputeEscalationBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, computeEscalationBackoff(1))
	assert.Equal(t, 2*time.Minute, computeEscalationBackoff(2))
	assert.Equal(t, 4*time.Minute, computeEscalationBackoff(3))
	assert.Equal(t, 16*time.Minute, computeEscalationBackoff(5))
	// Capped so a long-ignored pipeline still alerts twice an hour
	assert.Equal(t, 30*time.Minute, computeEscalationBackoff(6))
	assert.Equal(t, 30*time.Minute, computeEscalationBackoff(12))
}

func TestPipelineIsResolvable(t *testing.T) {
	assert.True(t, pipelineIsResolvable(model.PipelineStalled))
	assert.False(t, pipelineIsResolvable(model.PipelineRunning))
	assert.False(t, pipelineIsResolvable(model.PipelineCompleted))
	assert.False(t, pipelineIsResolvable(model.PipelineCompensated))
	assert.False(t, pipelineIsResolvable(model.PipelineResolved))
}
