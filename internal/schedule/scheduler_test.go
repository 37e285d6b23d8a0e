package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.calls.Add(1)
	select {
	case <-j.release:
	case <-ctx.Done():
	}
	return j.err
}

func TestAddJob_RejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&blockingJob{}, "every day"))
	require.Error(t, s.AddJob(&blockingJob{}, "*/5 * * * * *"))
}

func TestAddJob_RejectsDuplicateName(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&blockingJob{}, "0 4 * * *"))
	require.Error(t, s.AddJob(&blockingJob{}, "0 5 * * *"))
}

func TestNext(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&blockingJob{}, "0 4 * * *"))
	s.Start(context.Background())
	defer s.Stop()

	next, ok := s.Next("blocking")
	require.True(t, ok)
	require.Equal(t, 4, next.Hour())
	require.Zero(t, next.Minute())

	_, ok = s.Next("missing")
	require.False(t, ok)
}

func TestGuard_SkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler()
	job := &blockingJob{release: make(chan struct{})}
	run := s.guard(job, "@manual")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	require.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	run()
	require.EqualValues(t, 1, job.calls.Load())

	close(job.release)
	<-done
	run()
	require.EqualValues(t, 2, job.calls.Load())
}

func TestGuard_UsesStartContext(t *testing.T) {
	s := NewCronScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
	defer s.Stop()

	job := &blockingJob{release: make(chan struct{}), err: errors.New("boom")}
	s.guard(job, "@manual")()
	require.EqualValues(t, 1, job.calls.Load())
}
