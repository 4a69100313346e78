package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type GaugeRefresher interface {
	RefreshGauges(ctx context.Context) error
}

type GaugeJob struct {
	dashboard GaugeRefresher
	logger    *zap.Logger
}

func NewGaugeJob(dashboard GaugeRefresher, logger *zap.Logger) *GaugeJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GaugeJob{
		dashboard: dashboard,
		logger:    logger,
	}
}

func (j *GaugeJob) RefreshGauges() {
	if j == nil || j.dashboard == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.dashboard.RefreshGauges(ctx); err != nil {
		j.logger.Warn("board gauge refresh failed", zap.Error(err))
	}
}
