package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dealradar/promo-monitor/internal/collector"
)

type fakeRunner struct {
	runs    int32
	block   chan struct{}
	started chan struct{}
	err     error
}

func (r *fakeRunner) Run(context.Context) (*collector.RunResult, error) {
	atomic.AddInt32(&r.runs, 1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	return &collector.RunResult{}, r.err
}

type fakeLock struct {
	mu       sync.Mutex
	grant    bool
	err      error
	acquires int
	releases int
}

func (l *fakeLock) Acquire(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	return l.grant, l.err
}

func (l *fakeLock) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	return nil
}

func TestStartRunsImmediately(t *testing.T) {
	runner := &fakeRunner{started: make(chan struct{}, 1)}
	s := New(runner, nil, time.Hour)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not fire on startup")
	}
}

func TestOverlappingCycleSkipped(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := New(runner, nil, time.Hour)

	go s.runCycle(context.Background())
	<-runner.started

	// Second tick while the first is still inside Run.
	s.runCycle(context.Background())
	if got := atomic.LoadInt32(&runner.runs); got != 1 {
		t.Fatalf("overlapping cycle must be skipped, runs=%d", got)
	}

	close(runner.block)
	s.wg.Wait()

	// Once the first cycle is done the next tick runs again.
	s.runCycle(context.Background())
	if got := atomic.LoadInt32(&runner.runs); got != 2 {
		t.Fatalf("expected cycle to run after previous finished, runs=%d", got)
	}
}

func TestLockHeldElsewhereSkips(t *testing.T) {
	runner := &fakeRunner{}
	lock := &fakeLock{grant: false}
	s := New(runner, lock, time.Hour)

	s.runCycle(context.Background())

	if atomic.LoadInt32(&runner.runs) != 0 {
		t.Fatal("cycle must not run while another instance holds the lock")
	}
	if lock.acquires != 1 {
		t.Fatalf("expected one acquire attempt, got %d", lock.acquires)
	}
	if lock.releases != 0 {
		t.Fatalf("a lock we never held must not be released, releases=%d", lock.releases)
	}
}

func TestLockAcquiredAndReleased(t *testing.T) {
	runner := &fakeRunner{}
	lock := &fakeLock{grant: true}
	s := New(runner, lock, time.Hour)

	s.runCycle(context.Background())

	if atomic.LoadInt32(&runner.runs) != 1 {
		t.Fatal("cycle should run when the lock is granted")
	}
	if lock.releases != 1 {
		t.Fatalf("lock must be released after the cycle, releases=%d", lock.releases)
	}
}

func TestLockErrorSkipsCycle(t *testing.T) {
	runner := &fakeRunner{}
	lock := &fakeLock{err: errors.New("redis down")}
	s := New(runner, lock, time.Hour)

	s.runCycle(context.Background())

	if atomic.LoadInt32(&runner.runs) != 0 {
		t.Fatal("cycle must not run when lock acquisition errors")
	}
}

func TestRunErrorDoesNotPanic(t *testing.T) {
	runner := &fakeRunner{err: errors.New("gateway down")}
	s := New(runner, nil, time.Hour)

	s.runCycle(context.Background())

	if atomic.LoadInt32(&runner.runs) != 1 {
		t.Fatal("cycle should still have been attempted")
	}
}

func TestStopWaitsForCycle(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := New(runner, nil, time.Hour)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-runner.started

	var finished atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		close(runner.block)
	}()

	s.Stop()
	if !finished.Load() {
		t.Fatal("Stop returned while a cycle was still running")
	}
}
