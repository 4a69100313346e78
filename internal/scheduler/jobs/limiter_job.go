package jobs

import "time"

type Sweeper interface {
	Sweep(now time.Time)
}

// LimiterJob forgets idle rate limiter keys so the maps stay bounded.
type LimiterJob struct {
	limiters []Sweeper
	now      func() time.Time
}

func NewLimiterJob(limiters ...Sweeper) *LimiterJob {
	kept := make([]Sweeper, 0, len(limiters))
	for _, l := range limiters {
		if l != nil {
			kept = append(kept, l)
		}
	}
	return &LimiterJob{limiters: kept, now: time.Now}
}

func (j *LimiterJob) Sweep() {
	if j == nil {
		return
	}
	now := j.now()
	for _, l := range j.limiters {
		l.Sweep(now)
	}
}
