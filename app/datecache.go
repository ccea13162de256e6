package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/dexten32/accuscanner/app/models"
)

const dateCacheTTL = 24 * time.Hour

// DateCache holds the full descending list of distinct trade dates present in
// the raw market data. It is refreshed lazily on read and cleared outright by
// Invalidate after a successful scan run. The cached list is always unsliced;
// plan windows are applied per caller.
type DateCache struct {
	mu       sync.Mutex
	fetch    func(ctx context.Context) ([]string, error)
	ttl      time.Duration
	now      func() time.Time
	dates    []string
	cachedAt time.Time
	valid    bool
}

func NewDateCache(fetch func(ctx context.Context) ([]string, error)) *DateCache {
	return &DateCache{
		fetch: fetch,
		ttl:   dateCacheTTL,
		now:   time.Now,
	}
}

// Dates returns the available trade dates, most recent first, sliced to the
// plan's history window.
func (dc *DateCache) Dates(ctx context.Context, plan models.Plan) ([]string, error) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if !dc.valid || dc.now().Sub(dc.cachedAt) > dc.ttl {
		log.Println("[Cache] Miss or expired. Fetching dates from DB...")
		dates, err := dc.fetch(ctx)
		if err != nil {
			return nil, err
		}
		dc.dates = dates
		dc.cachedAt = dc.now()
		dc.valid = true
		log.Printf("[Cache] Updated with %d dates.", len(dates))
	}

	window := LimitsFor(plan).DateRangeDays
	if window == 0 || window >= len(dc.dates) {
		out := make([]string, len(dc.dates))
		copy(out, dc.dates)
		return out, nil
	}

	out := make([]string, window)
	copy(out, dc.dates[:window])
	return out, nil
}

// Invalidate clears the cache so the next read refreshes from the store. It
// is called once per successful run completion; failed runs leave the cache
// alone since no new date became available.
func (dc *DateCache) Invalidate() {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	log.Println("[Cache] Invalidating date cache...")
	dc.dates = nil
	dc.valid = false
}
