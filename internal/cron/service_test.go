package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

type testJob struct {
	name string
	err  error
	runs atomic.Int32
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs.Add(1)
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Level: logger.ParseLevel("error")})
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	service, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(failure, success),
		Metrics:  metrics.NewJobMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	service.runCycle(context.Background())
	if success.runs.Load() != 1 || failure.runs.Load() != 1 {
		t.Fatalf("expected each job to run once, got success=%d failure=%d", success.runs.Load(), failure.runs.Load())
	}
	if service.interval != defaultInterval {
		t.Fatalf("expected default interval, got %s", service.interval)
	}
}

func TestServiceRunTicksUntilCanceled(t *testing.T) {
	job := &testJob{name: "tick"}
	service, err := NewService(ServiceParams{Logger: testLogger(), Registry: NewRegistry(job), Interval: 2 * time.Millisecond})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	deadline := time.After(time.Second)
	for job.runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("job ran %d times before deadline", job.runs.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewServiceRequiresLogger(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error without logger")
	}
}

type fakeEvicter struct {
	idleFor time.Duration
	evicted int
}

func (f *fakeEvicter) EvictIdle(_ context.Context, idleFor time.Duration) int {
	f.idleFor = idleFor
	return f.evicted
}

func TestSessionSweepJobUsesIdleTTL(t *testing.T) {
	evicter := &fakeEvicter{evicted: 3}
	job, err := NewSessionSweepJob(SessionSweepParams{Sessions: evicter, Logger: testLogger()})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if evicter.idleFor != defaultSessionIdleTTL {
		t.Fatalf("expected default ttl, got %s", evicter.idleFor)
	}
	if _, err := NewSessionSweepJob(SessionSweepParams{}); err == nil {
		t.Fatalf("expected error without registry")
	}
}
