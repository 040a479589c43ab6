// Package poller drives target fetch cycles on their own schedules.
//
// Every target owns one scheduling goroutine and fires independently; a
// stalled or failing target never delays another. A target also never
// overlaps with itself: when a trigger fires while the previous cycle is
// still running, the new fire is skipped and logged, not queued.
package poller

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/pulse/internal/config"
	"github.com/tinytelemetry/pulse/internal/store"
)

// Fetcher retrieves one response body. The production implementation is
// fetch.Client; tests substitute their own.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// Runner executes fetch/extract/store cycles for a fixed set of targets.
type Runner struct {
	targets  []*config.Target
	fetcher  Fetcher
	store    *store.Store
	inFlight []atomic.Bool
	wg       sync.WaitGroup
}

// NewRunner wires the targets to a fetcher and the shared metric store.
func NewRunner(targets []*config.Target, fetcher Fetcher, st *store.Store) *Runner {
	return &Runner{
		targets:  targets,
		fetcher:  fetcher,
		store:    st,
		inFlight: make([]atomic.Bool, len(targets)),
	}
}

// Start launches one scheduling goroutine per target. When scrapeOnStartup
// is set, each target runs one cycle immediately before entering its
// recurring schedule. Start returns without blocking; cancel the context
// to stop and call Wait to drain in-flight cycles.
func (r *Runner) Start(ctx context.Context, scrapeOnStartup bool) {
	if scrapeOnStartup {
		log.Printf("poller: initial scrape of %d targets", len(r.targets))
	}
	for i, target := range r.targets {
		r.wg.Add(1)
		go r.runTarget(ctx, i, target, scrapeOnStartup)
	}
}

// Wait blocks until all scheduling goroutines and cycles have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) runTarget(ctx context.Context, idx int, target *config.Target, scrapeOnStartup bool) {
	defer r.wg.Done()

	if scrapeOnStartup {
		before := r.store.Len()
		r.fire(ctx, idx, target, false)
		log.Printf("poller: %s: initial scrape stored %d series", target.Name, r.store.Len()-before)
	}

	logged := false
	for {
		next := target.Trigger.Next(time.Now())
		if !logged {
			log.Printf("poller: %s: next run at %s", target.Name, next.Format(time.RFC3339))
			logged = true
		}
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		r.fire(ctx, idx, target, true)
	}
}

// fire runs one cycle guarded by the target's in-flight flag. Timer fires
// run the cycle on its own goroutine so a slow fetch never delays the
// target's schedule, only its own next execution (which is then skipped).
func (r *Runner) fire(ctx context.Context, idx int, target *config.Target, async bool) {
	guard := &r.inFlight[idx]
	if !guard.CompareAndSwap(false, true) {
		log.Printf("poller: %s: previous cycle still running, skipping this fire", target.Name)
		return
	}

	if !async {
		defer guard.Store(false)
		r.runCycle(ctx, target)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer guard.Store(false)
		r.runCycle(ctx, target)
	}()
}

// runCycle is one fetch/extract/store pass. A fetch failure aborts the
// whole cycle and leaves the target's stored series untouched; a failing
// rule aborts only itself.
func (r *Runner) runCycle(ctx context.Context, target *config.Target) {
	body, err := r.fetcher.Fetch(ctx, target.URL, target.Headers)
	if err != nil {
		log.Printf("poller: %s: fetch failed: %v", target.Name, err)
		return
	}

	for _, rule := range target.Rules {
		obs, err := rule.Extract(body, time.Now().UnixMilli())
		if err != nil {
			log.Printf("poller: %s: rule %s: %v", target.Name, rule.Name(), err)
			continue
		}
		for _, o := range obs {
			r.store.Upsert(o)
		}
	}
}
