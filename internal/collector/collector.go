// Package collector drives one polling run end to end: connect the gateway,
// walk each configured chat past its watermark in chronological order,
// classify and persist every new message, and commit watermark progress only
// for batches that were durably flushed.
package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dealradar/promo-monitor/internal/domain"
	"github.com/dealradar/promo-monitor/internal/service/reconcile"
	"github.com/dealradar/promo-monitor/internal/state"
)

// Gateway is the transport surface the collector needs.
type Gateway interface {
	Connect(ctx context.Context) error
	FetchSince(ctx context.Context, chatID, minID int64, limit int) ([]domain.RawMessage, error)
	ResolveName(ctx context.Context, chatID int64) (string, error)
	Disconnect(ctx context.Context) error
}

// Classifier decides what each message is and collects its URLs.
type Classifier interface {
	Classify(ctx context.Context, msg domain.RawMessage) (domain.Extraction, []string)
}

// Reconciler persists one classified message.
type Reconciler interface {
	Reconcile(ctx context.Context, in reconcile.Input) error
}

// WatermarkStore loads and saves the per-chat watermark mapping.
type WatermarkStore interface {
	Load() state.Watermarks
	Save(state.Watermarks) error
}

// Config holds the collector tunables.
type Config struct {
	ChatIDs    []int64
	FetchLimit int // per-fetch message cap
	BatchSize  int // rows buffered before a flush
}

// Collector owns the run loop. One run is strictly sequential: chats one at
// a time, messages in chronological order, no fan-out. Watermark correctness
// depends on that ordering.
type Collector struct {
	gateway    Gateway
	classifier Classifier
	reconciler Reconciler
	store      WatermarkStore

	chats      []int64
	fetchLimit int
	batchSize  int

	// Cumulative counters across runs.
	totalRuns       int64
	totalMessages   int64
	totalPromotions int64
	totalErrors     int64

	mu      sync.RWMutex
	lastRun *RunResult
}

// New creates a collector. BatchSize and FetchLimit fall back to defaults
// when unset.
func New(gateway Gateway, classifier Classifier, reconciler Reconciler, store WatermarkStore, cfg Config) *Collector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 50
	}
	return &Collector{
		gateway:    gateway,
		classifier: classifier,
		reconciler: reconciler,
		store:      store,
		chats:      cfg.ChatIDs,
		fetchLimit: cfg.FetchLimit,
		batchSize:  cfg.BatchSize,
	}
}

// RunResult summarizes one run.
type RunResult struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	ChatsProcessed  int       `json:"chats_processed"`
	ChatErrors      int       `json:"chat_errors"`
	MessagesSeen    int       `json:"messages_seen"`
	MessagesStored  int       `json:"messages_stored"`
	PromotionsFound int       `json:"promotions_found"`
	WatermarkSaved  bool      `json:"watermark_saved"`
	Aborted         bool      `json:"aborted"`
	Error           string    `json:"error,omitempty"`
}

// Run executes one full polling cycle. Only a gateway connection failure is
// returned as an error; everything scoped to a single chat is logged,
// counted, and survived.
func (c *Collector) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.New().String()[:8]
	res := &RunResult{RunID: runID, StartedAt: time.Now()}
	atomic.AddInt64(&c.totalRuns, 1)

	log.Printf("[Collector] Run %s: starting, chats=%d batch_size=%d", runID, len(c.chats), c.batchSize)

	if err := c.gateway.Connect(ctx); err != nil {
		atomic.AddInt64(&c.totalErrors, 1)
		res.Aborted = true
		res.Error = err.Error()
		res.FinishedAt = time.Now()
		c.setLastRun(res)
		return res, fmt.Errorf("connecting gateway: %w", err)
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.gateway.Disconnect(dctx); err != nil {
			log.Printf("[Collector] Run %s: disconnect: %v", runID, err)
		}
	}()

	watermarks := c.store.Load()
	changed := false

	for _, chatID := range c.chats {
		if ctx.Err() != nil {
			res.Aborted = true
			res.Error = ctx.Err().Error()
			break
		}

		before := watermarks[chatID]
		committed, stats, err := c.processChat(ctx, runID, chatID, before)

		res.ChatsProcessed++
		res.MessagesSeen += stats.seen
		res.MessagesStored += stats.stored
		res.PromotionsFound += stats.promotions
		atomic.AddInt64(&c.totalMessages, int64(stats.stored))
		atomic.AddInt64(&c.totalPromotions, int64(stats.promotions))

		if err != nil {
			atomic.AddInt64(&c.totalErrors, 1)
			res.ChatErrors++
			log.Printf("[Collector] Run %s: chat %d: %v", runID, chatID, err)
		}

		if committed > before {
			watermarks[chatID] = committed
			changed = true
			log.Printf("[Collector] Run %s: chat %d watermark %d -> %d", runID, chatID, before, committed)
		}
	}

	// One write for the whole mapping, and only when something moved:
	// an idle cycle leaves the state file byte-identical.
	if changed {
		if err := c.store.Save(watermarks); err != nil {
			atomic.AddInt64(&c.totalErrors, 1)
			res.Error = err.Error()
			log.Printf("[Collector] Run %s: saving watermarks: %v", runID, err)
		} else {
			res.WatermarkSaved = true
		}
	}

	res.FinishedAt = time.Now()
	c.setLastRun(res)
	log.Printf("[Collector] Run %s: done in %s: seen=%d stored=%d promotions=%d chat_errors=%d",
		runID, res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond),
		res.MessagesSeen, res.MessagesStored, res.PromotionsFound, res.ChatErrors)
	return res, nil
}

type chatStats struct {
	seen       int
	stored     int
	promotions int
}

// processChat walks one chat from its watermark. It returns the highest
// message id covered by fully flushed batches; a fetch or flush failure ends
// this chat early with whatever progress was already durable.
func (c *Collector) processChat(ctx context.Context, runID string, chatID, watermark int64) (int64, chatStats, error) {
	var stats chatStats

	name, err := c.gateway.ResolveName(ctx, chatID)
	if err != nil || name == "" {
		if err != nil {
			log.Printf("[Collector] Run %s: resolving chat %d name: %v", runID, chatID, err)
		}
		name = domain.MonitoredChat{ID: chatID}.Label()
	}

	msgs, err := c.gateway.FetchSince(ctx, chatID, watermark, c.fetchLimit)
	if err != nil {
		return watermark, stats, fmt.Errorf("fetching after id %d: %w", watermark, err)
	}
	if len(msgs) == 0 {
		return watermark, stats, nil
	}
	log.Printf("[Collector] Run %s: chat %s: %d new messages after id %d", runID, name, len(msgs), watermark)

	committed := watermark
	batchMax := watermark
	batch := make([]reconcile.Input, 0, c.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		stored, err := c.flushBatch(ctx, batch)
		stats.stored += stored
		if err != nil {
			return err
		}
		if batchMax > committed {
			committed = batchMax
		}
		batch = batch[:0]
		return nil
	}

	for _, msg := range msgs {
		stats.seen++

		ext, urls := c.classifier.Classify(ctx, msg)
		if ext.Type != "" && !ext.PlaceholderOnly() {
			stats.promotions++
		}

		batch = append(batch, reconcile.Input{
			Message:    msg,
			ChatName:   name,
			Extraction: ext,
			URLs:       urls,
		})
		if msg.ID > batchMax {
			batchMax = msg.ID
		}

		if len(batch) >= c.batchSize {
			if err := flush(); err != nil {
				return committed, stats, fmt.Errorf("flushing batch: %w", err)
			}
		}
	}

	if err := flush(); err != nil {
		return committed, stats, fmt.Errorf("flushing remainder: %w", err)
	}
	return committed, stats, nil
}

// flushBatch writes rows one at a time. A row failure doesn't undo rows
// already written, but it marks the whole flush failed so the watermark
// never advances past this batch.
func (c *Collector) flushBatch(ctx context.Context, batch []reconcile.Input) (int, error) {
	failed := 0
	for _, in := range batch {
		if err := c.reconciler.Reconcile(ctx, in); err != nil {
			failed++
			log.Printf("[Collector] persisting message %d in chat %d: %v", in.Message.ID, in.Message.ChatID, err)
		}
	}
	if failed > 0 {
		return len(batch) - failed, fmt.Errorf("%d of %d rows failed", failed, len(batch))
	}
	return len(batch), nil
}

// LastRun returns the most recent run summary, or nil before the first run.
func (c *Collector) LastRun() *RunResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastRun == nil {
		return nil
	}
	cp := *c.lastRun
	return &cp
}

func (c *Collector) setLastRun(r *RunResult) {
	c.mu.Lock()
	c.lastRun = r
	c.mu.Unlock()
}

// Stats returns cumulative counters across runs.
func (c *Collector) Stats() map[string]int64 {
	return map[string]int64{
		"total_runs":       atomic.LoadInt64(&c.totalRuns),
		"total_messages":   atomic.LoadInt64(&c.totalMessages),
		"total_promotions": atomic.LoadInt64(&c.totalPromotions),
		"total_errors":     atomic.LoadInt64(&c.totalErrors),
	}
}
