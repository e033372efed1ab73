package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
)

type Result struct {
	Query    string
	Products []models.Product
	Err      error
}

// Debouncer runs a search only once typing pauses for the delay. A newer
// query cancels the pending or running one; only the latest result is kept
// on the channel.
type Debouncer struct {
	searcher Searcher
	delay    time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	seq    uint64
	out    chan Result
}

func NewDebouncer(s Searcher, delay time.Duration) *Debouncer {
	return &Debouncer{searcher: s, delay: delay, out: make(chan Result, 1)}
}

func (d *Debouncer) Results() <-chan Result {
	return d.out
}

func (d *Debouncer) Submit(ctx context.Context, query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
	seq := d.seq

	q := strings.TrimSpace(query)
	if q == "" {
		d.deliverLocked(Result{Products: []models.Product{}})
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() { d.run(runCtx, seq, q) })
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.seq++
}

func (d *Debouncer) run(ctx context.Context, seq uint64, q string) {
	ps, err := d.searcher.Search(ctx, q)
	if err != nil {
		if ctx.Err() == nil {
			logging.FromContext(ctx).Warn("search_failed", "query", q, "error", err)
		}
		ps = []models.Product{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		return
	}
	d.deliverLocked(Result{Query: q, Products: ps, Err: err})
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer) deliverLocked(r Result) {
	select {
	case <-d.out:
	default:
	}
	d.out <- r
}
