package cart

import (
	"context"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/internal/storage"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
)

// Watcher polls the cart blob and reports each change.
type Watcher struct {
	kv       storage.KV
	interval time.Duration
}

func NewWatcher(kv storage.KV, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Watcher{kv: kv, interval: interval}
}

// Watch sends the current cart right away and then after every change. The
// channel is closed when ctx is done.
func (w *Watcher) Watch(ctx context.Context) <-chan []Item {
	out := make(chan []Item)
	go func() {
		defer close(out)
		l := logging.FromContext(ctx).With("component", "cart_watcher")

		t := time.NewTicker(w.interval)
		defer t.Stop()

		last, first := "", true
		for {
			raw, _, err := w.kv.Get(ctx, storage.KeyCart)
			switch {
			case err != nil:
				if ctx.Err() == nil {
					l.Warn("cart_poll_failed", "error", err)
				}
			case first || raw != last:
				items, derr := decode(raw)
				if derr != nil {
					l.Warn("cart_corrupt", "error", derr)
					items = []Item{}
				}
				select {
				case out <- items:
					last, first = raw, false
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	return out
}
