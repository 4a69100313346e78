package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingTask struct{ calls int }

func (c *countingTask) PurgeExpired()  { c.calls++ }
func (c *countingTask) RefreshGauges() { c.calls++ }
func (c *countingTask) Sweep()         { c.calls++ }

func TestNewSchedulerRegistersOnlyProvidedJobs(t *testing.T) {
	c := NewScheduler(Deps{}, nil)
	assert.Empty(t, c.Entries())

	task := &countingTask{}
	c = NewScheduler(Deps{SessionJob: task, GaugeJob: task, LimiterJob: task}, zap.NewNop())
	assert.Len(t, c.Entries(), 3)

	for _, entry := range c.Entries() {
		entry.Job.Run()
	}
	assert.Equal(t, 3, task.calls)
}

func TestWrapJobRecoversPanic(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	assert.NotPanics(t, wrapJob("boom", logger, func() { panic("bad job") }))
	assert.Equal(t, 1, logs.FilterMessage("scheduler job panic recovered").Len())
}
