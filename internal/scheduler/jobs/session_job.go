package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/janzenegnisaban/vision-board-sub000/internal/metrics"
)

const jobTimeout = 2 * time.Minute

type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// SessionJob deletes refresh sessions past their expiry.
type SessionJob struct {
	sessions SessionPurger
	logger   *zap.Logger
}

func NewSessionJob(sessions SessionPurger, logger *zap.Logger) *SessionJob {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionJob{
		sessions: sessions,
		logger:   logger,
	}
}

func (j *SessionJob) PurgeExpired() {
	if j == nil || j.sessions == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	purged, err := j.sessions.PurgeExpiredSessions(ctx)
	if err != nil {
		j.logger.Warn("expired session purge failed", zap.Error(err))
		return
	}
	metrics.AddExpiredSessionsPurged(purged)
	if purged > 0 {
		j.logger.Info("expired sessions purged", zap.Int64("count", purged))
	}
}
