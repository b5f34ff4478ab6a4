package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
)

const defaultSessionIdleTTL = 30 * time.Minute

type idleEvicter interface {
	EvictIdle(ctx context.Context, idleFor time.Duration) int
}

// SessionSweepParams configure the idle session sweep.
type SessionSweepParams struct {
	Sessions idleEvicter
	Logger   *logger.Logger
	IdleTTL  time.Duration
}

// SessionSweepJob releases the in-process state of sessions that have not
// served a request for IdleTTL. Persisted tokens and history stay, so the
// session resumes on its next request.
type SessionSweepJob struct {
	sessions idleEvicter
	logg     *logger.Logger
	idleTTL  time.Duration
}

func NewSessionSweepJob(params SessionSweepParams) (*SessionSweepJob, error) {
	if params.Sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	ttl := params.IdleTTL
	if ttl <= 0 {
		ttl = defaultSessionIdleTTL
	}
	return &SessionSweepJob{sessions: params.Sessions, logg: params.Logger, idleTTL: ttl}, nil
}

func (j *SessionSweepJob) Name() string { return "session_sweep" }

func (j *SessionSweepJob) Run(ctx context.Context) error {
	evicted := j.sessions.EvictIdle(ctx, j.idleTTL)
	if evicted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "evicted", evicted), "idle sessions released")
	}
	return nil
}
