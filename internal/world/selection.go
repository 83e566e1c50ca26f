package world

import "sort"

// Selection is the set of owned unit IDs the local player has selected.
type Selection struct {
	ids map[uint32]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[uint32]struct{})}
}

// Replace clears the selection and selects ids.
func (s *Selection) Replace(ids []uint32) {
	clear(s.ids)
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Add(id uint32) { s.ids[id] = struct{}{} }

func (s *Selection) Has(id uint32) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Clear() { clear(s.ids) }

func (s *Selection) Len() int { return len(s.ids) }

// Prune drops every ID for which keep returns false and reports how many
// were dropped.
func (s *Selection) Prune(keep func(uint32) bool) int {
	n := 0
	for id := range s.ids {
		if !keep(id) {
			delete(s.ids, id)
			n++
		}
	}
	return n
}

// IDs returns the selection in ascending order.
func (s *Selection) IDs() []uint32 {
	ids := make([]uint32, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
