// Package cart keeps the local shopping cart blob.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Skotchmaster/pharmacy_storefront/internal/events"
	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/internal/storage"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
)

type Service struct {
	mu  sync.Mutex
	kv  storage.KV
	pub events.Publisher
}

func NewService(kv storage.KV, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{kv: kv, pub: pub}
}

type AddResult struct {
	Item   Item
	Merged bool
}

// Items returns the stored cart. A corrupt blob reads as an empty cart.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	raw, _, err := s.kv.Get(ctx, storage.KeyCart)
	if err != nil {
		return nil, err
	}
	items, err := decode(raw)
	if err != nil {
		logging.FromContext(ctx).Warn("cart_corrupt", "error", err)
		return []Item{}, nil
	}
	return items, nil
}

// Add puts one unit of the product's selected unit into the cart, or bumps
// the quantity of the existing line with the same key.
func (s *Service) Add(ctx context.Context, p models.Product, unitIdx int) (AddResult, error) {
	l := logging.FromContext(ctx).With("handler", "add_to_cart")

	phone, ok, err := s.kv.Get(ctx, storage.KeyUserPhone)
	if err != nil {
		return AddResult{}, err
	}
	if !ok || phone == "" {
		return AddResult{}, messages.New(ErrLoginRequired, messages.LoginRequired)
	}
	u, ok := p.Unit(unitIdx)
	if !ok || p.Code == "" {
		l.Warn("add_to_cart_error", "reason", "product has no unit", "product", p.Code)
		return AddResult{}, messages.New(ErrValidation, messages.CartAddFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.Items(ctx)
	if err != nil {
		return AddResult{}, err
	}

	key := Key(p.Code, u.Unit.Name)
	res := AddResult{}
	found := false
	for i := range items {
		if items[i].ID == key {
			items[i].Quantity = items[i].Qty() + 1
			res = AddResult{Item: items[i], Merged: true}
			found = true
			break
		}
	}
	if !found {
		it := newItem(p, u)
		items = append(items, it)
		res = AddResult{Item: it}
	}

	if err := s.save(ctx, items); err != nil {
		l.Error("add_to_cart_error", "reason", "save failed", "error", err)
		return AddResult{}, err
	}

	events.Emit(ctx, s.pub, events.TopicCart, events.New(events.TypeCartItemAdded, phone, map[string]any{
		"id":       res.Item.ID,
		"quantity": res.Item.Quantity,
		"merged":   res.Merged,
	}))
	l.Info("add_to_cart", "status", "ok", "id", res.Item.ID, "quantity", res.Item.Quantity)
	return res, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.Items(ctx)
	if err != nil {
		return err
	}
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return fmt.Errorf("cart item %q: %w", id, ErrNotFound)
	}
	if err := s.save(ctx, kept); err != nil {
		return err
	}

	phone, _, _ := s.kv.Get(ctx, storage.KeyUserPhone)
	events.Emit(ctx, s.pub, events.TopicCart, events.New(events.TypeCartItemRemoved, phone, map[string]any{"id": id}))
	return nil
}

// RemoveMany drops the given lines, ignoring ids that are not in the cart.
func (s *Service) RemoveMany(ctx context.Context, ids []string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.Items(ctx)
	if err != nil {
		return err
	}
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if _, ok := drop[it.ID]; !ok {
			kept = append(kept, it)
		}
	}
	return s.save(ctx, kept)
}

func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(ctx, storage.KeyCart); err != nil {
		return err
	}
	phone, _, _ := s.kv.Get(ctx, storage.KeyUserPhone)
	events.Emit(ctx, s.pub, events.TopicCart, events.New(events.TypeCartCleared, phone, nil))
	return nil
}

func (s *Service) save(ctx context.Context, items []Item) error {
	raw, err := encode(items)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, storage.KeyCart, raw)
}

// Total sums price times quantity over the selected lines; a nil selection
// means every line.
func Total(items []Item, selected []string) float64 {
	var set map[string]struct{}
	if selected != nil {
		set = make(map[string]struct{}, len(selected))
		for _, id := range selected {
			set[id] = struct{}{}
		}
	}
	var sum float64
	for _, it := range items {
		if set != nil {
			if _, ok := set[it.ID]; !ok {
				continue
			}
		}
		sum += it.Subtotal()
	}
	return sum
}
