// Package scheduler wires up the cron job that periodically triggers a full
// polling cycle across the monitored chats.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dealradar/promo-monitor/internal/collector"
	"github.com/dealradar/promo-monitor/internal/pkg/runlock"
)

// Runner executes one polling cycle.
type Runner interface {
	Run(ctx context.Context) (*collector.RunResult, error)
}

// Scheduler wraps robfig/cron and manages the polling loop. Cycles never
// overlap: a tick that arrives while a cycle is still running is skipped,
// and an optional cross-process lock extends the same guarantee across
// monitor instances.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	lock    runlock.Locker
	spec    string
	running int32
	wg      sync.WaitGroup
}

// New creates a Scheduler that fires every interval. lock may be nil, in
// which case only the in-process overlap guard applies.
func New(runner Runner, lock runlock.Locker, interval time.Duration) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		runner: runner,
		lock:   lock,
		spec:   fmt.Sprintf("@every %s", interval),
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so a fresh deployment doesn't idle until the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started, spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runCycle(ctx)

	return nil
}

// Stop shuts down the scheduler and waits for an in-flight cycle to finish,
// so batched writes are never cut off mid-flush.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Println("[scheduler] Cron stopped")
}

// runCycle executes one guarded polling cycle. Skips are logged, never
// queued: a missed tick is made up naturally by the next one because
// fetching always resumes from the stored watermarks.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		log.Println("[scheduler] Previous cycle still running, skipping this tick")
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx)
		if err != nil {
			log.Printf("[scheduler] Acquiring run lock: %v", err)
			return
		}
		if !ok {
			log.Println("[scheduler] Another instance holds the run lock, skipping")
			return
		}
		defer func() {
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.lock.Release(rctx); err != nil {
				log.Printf("[scheduler] Releasing run lock: %v", err)
			}
		}()
	}

	if _, err := s.runner.Run(ctx); err != nil {
		log.Printf("[scheduler] Cycle failed: %v", err)
	}
}
