package cart

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/Skotchmaster/pharmacy_storefront/internal/storage"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
)

// pending is what an unpaid order took from the cart. A nil IDs list means
// the whole cart.
type pending struct {
	IDs []string `json:"ids"`
}

// Reserve remembers which lines order code covers until its payment is
// settled. ids nil means the order took the whole cart.
func (s *Service) Reserve(ctx context.Context, code string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.pendingOrders(ctx)
	all[code] = pending{IDs: ids}
	return s.savePending(ctx, all)
}

// Settle removes the lines of a paid order. ref is the gateway reference;
// hints are other gateway fields that may carry the order code. An order
// that was never reserved empties the cart.
func (s *Service) Settle(ctx context.Context, ref string, hints ...string) error {
	l := logging.FromContext(ctx).With("handler", "cart.settle")

	s.mu.Lock()
	all := s.pendingOrders(ctx)
	code, p, ok := matchPending(all, ref, hints)
	if ok {
		delete(all, code)
		if err := s.savePending(ctx, all); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	if !ok || p.IDs == nil {
		l.Info("settle_order", "ref", ref, "scope", "cart")
		return s.Clear(ctx)
	}
	l.Info("settle_order", "ref", ref, "order", code, "lines", len(p.IDs))
	return s.RemoveMany(ctx, p.IDs)
}

func matchPending(all map[string]pending, ref string, hints []string) (string, pending, bool) {
	if p, ok := all[ref]; ok && ref != "" {
		return ref, p, true
	}
	for _, text := range append([]string{ref}, hints...) {
		for _, word := range strings.FieldsFunc(text, notWordRune) {
			if p, ok := all[word]; ok {
				return word, p, true
			}
		}
	}
	return "", pending{}, false
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
}

func (s *Service) pendingOrders(ctx context.Context) map[string]pending {
	all := map[string]pending{}
	raw, ok, err := s.kv.Get(ctx, storage.KeyPendingOrders)
	if err != nil || !ok || raw == "" {
		return all
	}
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		logging.FromContext(ctx).Warn("pending_orders_corrupt", "error", err)
		return map[string]pending{}
	}
	return all
}

func (s *Service) savePending(ctx context.Context, all map[string]pending) error {
	if len(all) == 0 {
		return s.kv.Remove(ctx, storage.KeyPendingOrders)
	}
	raw, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, storage.KeyPendingOrders, string(raw))
}
