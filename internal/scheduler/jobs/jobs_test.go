package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePurger struct {
	count int64
	err   error
	calls int
}

func (f *fakePurger) PurgeExpiredSessions(context.Context) (int64, error) {
	f.calls++
	return f.count, f.err
}

type fakeRefresher struct{ err error }

func (f fakeRefresher) RefreshGauges(context.Context) error { return f.err }

type fakeSweeper struct{ at []time.Time }

func (f *fakeSweeper) Sweep(now time.Time) { f.at = append(f.at, now) }

func TestSessionJobLogsPurgedCount(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	purger := &fakePurger{count: 3}

	NewSessionJob(purger, zap.New(core)).PurgeExpired()

	assert.Equal(t, 1, purger.calls)
	entries := logs.FilterMessage("expired sessions purged").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, int64(3), entries[0].ContextMap()["count"])
	}
}

func TestSessionJobWarnsOnFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	NewSessionJob(&fakePurger{err: errors.New("db down")}, zap.New(core)).PurgeExpired()

	assert.Equal(t, 1, logs.FilterMessage("expired session purge failed").Len())
}

func TestGaugeJobWarnsOnFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	NewGaugeJob(fakeRefresher{}, zap.New(core)).RefreshGauges()
	assert.Zero(t, logs.Len())

	NewGaugeJob(fakeRefresher{err: errors.New("timeout")}, zap.New(core)).RefreshGauges()
	assert.Equal(t, 1, logs.FilterMessage("board gauge refresh failed").Len())
}

func TestLimiterJobSweepsAllLimiters(t *testing.T) {
	a, b := &fakeSweeper{}, &fakeSweeper{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	job := NewLimiterJob(a, nil, b)
	job.now = func() time.Time { return fixed }
	job.Sweep()

	assert.Equal(t, []time.Time{fixed}, a.at)
	assert.Equal(t, []time.Time{fixed}, b.at)
}

func TestNilJobsAreNoops(t *testing.T) {
	var s *SessionJob
	var g *GaugeJob
	var l *LimiterJob
	assert.NotPanics(t, func() {
		s.PurgeExpired()
		g.RefreshGauges()
		l.Sweep()
	})
}
