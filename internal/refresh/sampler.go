// Package refresh runs periodic price sweeps over the global catalog.
package refresh

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/models"
	"collectibles-vault/internal/valuation"

	"golang.org/x/sync/errgroup"
)

// EntryLister lists catalog entries that still need today's snapshots.
type EntryLister interface {
	List(ctx context.Context, f catalog.ListFilter) ([]models.CatalogEntry, error)
}

// Refresher prices one catalog entry.
type Refresher interface {
	Refresh(ctx context.Context, entryID uint) (*valuation.Report, error)
}

// Stats accumulates over the sampler's lifetime.
type Stats struct {
	Cycles       int64         `json:"cycles"`
	Processed    int64         `json:"processed"`
	Succeeded    int64         `json:"succeeded"`
	Failed       int64         `json:"failed"`
	Snapshots    int64         `json:"snapshots"`
	LastRun      time.Time     `json:"last_run"`
	LastDuration time.Duration `json:"last_duration"`
}

// CycleResult summarises one sweep.
type CycleResult struct {
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Snapshots int           `json:"snapshots"`
	Duration  time.Duration `json:"duration"`
}

type Sampler struct {
	entries   EntryLister
	refresher Refresher
	workers   int
	batch     int
	interval  time.Duration
	log       *logger.Logger
	today     func() string

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	stats   Stats

	// attempted holds entries swept on attemptedOn, whatever the outcome.
	attempted   map[uint]struct{}
	attemptedOn string
}

type Options struct {
	Workers  int
	Batch    int
	Interval time.Duration
}

func NewSampler(entries EntryLister, refresher Refresher, opts Options, log *logger.Logger) *Sampler {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Batch <= 0 {
		opts.Batch = 200
	}
	return &Sampler{
		entries:   entries,
		refresher: refresher,
		workers:   opts.Workers,
		batch:     opts.Batch,
		interval:  opts.Interval,
		log:       logger.OrNop(log).With("component", "sampler"),
		today:     func() string { return time.Now().Format("2006-01-02") },
	}
}

// WithToday overrides the ref date used to find pending entries.
func (s *Sampler) WithToday(today func() string) *Sampler {
	s.today = today
	return s
}

// RunOnce refreshes every entry without a snapshot for today, most recently
// updated first, up to the batch size. Entries already attempted today are
// skipped until the date rolls over. Individual failures never abort the sweep.
func (s *Sampler) RunOnce(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	today := s.today()
	pending, err := s.entries.List(ctx, catalog.ListFilter{
		MissingSnapshotOn: today,
		Exclude:           s.attemptedToday(today),
		Limit:             s.batch,
	})
	if err != nil {
		return CycleResult{}, fmt.Errorf("load pending entries: %w", err)
	}
	if len(pending) == 0 {
		s.log.Debug("no pending catalog entries")
		s.record(CycleResult{Duration: time.Since(start)})
		return CycleResult{}, nil
	}
	s.log.Info("sweep started", "entries", len(pending), "workers", s.workers)

	var succeeded, failed, snapshots int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range pending {
		entry := pending[i]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			report, err := s.refresher.Refresh(gctx, entry.ID)
			if gctx.Err() == nil {
				s.markAttempted(today, entry.ID)
			}
			if report != nil {
				atomic.AddInt64(&snapshots, int64(len(report.Snapshots)))
			}
			if err != nil {
				atomic.AddInt64(&failed, 1)
				s.log.Warn("refresh failed", "catalog_entry_id", entry.ID, "catalog_key", entry.CatalogKey, "reason", err.Error())
				return nil
			}
			atomic.AddInt64(&succeeded, 1)
			return nil
		})
	}
	_ = g.Wait()

	res := CycleResult{
		Processed: int(succeeded + failed),
		Succeeded: int(succeeded),
		Failed:    int(failed),
		Snapshots: int(snapshots),
		Duration:  time.Since(start),
	}
	s.record(res)
	s.log.Info("sweep finished",
		"processed", res.Processed, "succeeded", res.Succeeded, "failed", res.Failed,
		"snapshots", res.Snapshots, "duration", res.Duration.String())
	return res, ctx.Err()
}

func (s *Sampler) attemptedToday(today string) []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attemptedOn != today {
		s.attempted = map[uint]struct{}{}
		s.attemptedOn = today
	}
	if len(s.attempted) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(s.attempted))
	for id := range s.attempted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Sampler) markAttempted(today string, id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attemptedOn != today {
		return
	}
	s.attempted[id] = struct{}{}
}

func (s *Sampler) record(res CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Cycles++
	s.stats.Processed += int64(res.Processed)
	s.stats.Succeeded += int64(res.Succeeded)
	s.stats.Failed += int64(res.Failed)
	s.stats.Snapshots += int64(res.Snapshots)
	s.stats.LastRun = time.Now()
	s.stats.LastDuration = res.Duration
}

// Start loops RunOnce every interval until Stop or ctx cancellation. A
// non-positive interval leaves the sampler idle.
func (s *Sampler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running || s.interval <= 0 {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.log.Info("sampler started", "interval", s.interval.String(), "batch", s.batch)
	go s.loop(ctx)
}

func (s *Sampler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("sweep error", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop cancels the loop and waits for the current sweep to return.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info("sampler stopped")
}

func (s *Sampler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Sampler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
