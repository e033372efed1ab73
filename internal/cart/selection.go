package cart

import "sort"

// Selection tracks which cart lines are ticked for checkout.
type Selection struct {
	ids map[string]struct{}
}

func NewSelection(ids ...string) *Selection {
	s := &Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) AllSelected(items []Item) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if !s.Has(it.ID) {
			return false
		}
	}
	return true
}

// ToggleAll clears the selection when every line is selected, otherwise
// selects every line.
func (s *Selection) ToggleAll(items []Item) {
	if s.AllSelected(items) {
		s.ids = map[string]struct{}{}
		return
	}
	for _, it := range items {
		s.ids[it.ID] = struct{}{}
	}
}

// Prune forgets ids that are no longer in the cart.
func (s *Selection) Prune(items []Item) {
	present := make(map[string]struct{}, len(items))
	for _, it := range items {
		present[it.ID] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := present[id]; !ok {
			delete(s.ids, id)
		}
	}
}

func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Selection) Selected(items []Item) []Item {
	out := make([]Item, 0, len(s.ids))
	for _, it := range items {
		if s.Has(it.ID) {
			out = append(out, it)
		}
	}
	return out
}
