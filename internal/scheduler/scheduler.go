package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	specSessionPurge = "0 */15 * * * *"
	specGaugeRefresh = "0 * * * * *"
	specLimiterSweep = "0 */5 * * * *"
)

type SessionTask interface {
	PurgeExpired()
}

type GaugeTask interface {
	RefreshGauges()
}

type LimiterTask interface {
	Sweep()
}

type Deps struct {
	SessionJob SessionTask
	GaugeJob   GaugeTask
	LimiterJob LimiterTask
}

// NewScheduler registers the board's housekeeping jobs. Nil tasks are skipped.
func NewScheduler(deps Deps, logger *zap.Logger) *cron.Cron {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	if deps.SessionJob != nil {
		addFunc(c, specSessionPurge, "session.purge_expired", logger, deps.SessionJob.PurgeExpired)
	}
	if deps.GaugeJob != nil {
		addFunc(c, specGaugeRefresh, "board.refresh_gauges", logger, deps.GaugeJob.RefreshGauges)
	}
	if deps.LimiterJob != nil {
		addFunc(c, specLimiterSweep, "ratelimit.sweep", logger, deps.LimiterJob.Sweep)
	}

	return c
}

func addFunc(c *cron.Cron, spec string, name string, logger *zap.Logger, fn func()) {
	if c == nil || fn == nil {
		return
	}

	if _, err := c.AddFunc(spec, wrapJob(name, logger, fn)); err != nil {
		logger.Error("register scheduler job failed",
			zap.String("job", name),
			zap.String("spec", spec),
			zap.Error(err),
		)
	}
}

func wrapJob(name string, logger *zap.Logger, fn func()) func() {
	return func() {
		defer recoverJobPanic(name, logger)
		start := time.Now()
		fn()
		logger.Debug("scheduler job finished", zap.String("job", name), zap.Duration("cost", time.Since(start)))
	}
}

func recoverJobPanic(jobName string, logger *zap.Logger) {
	if logger == nil {
		return
	}

	if recovered := recover(); recovered != nil {
		logger.Error("scheduler job panic recovered",
			zap.String("job", jobName),
			zap.Any("panic", recovered),
		)
	}
}
