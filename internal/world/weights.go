package world

import "fmt"

// DefaultWeight is every kind's weight before the server says otherwise.
const DefaultWeight uint16 = 1

// WeightTable maps unit-kind index to the player's valuation weight. The
// server replicates it positionally in ascending kind order.
type WeightTable struct {
	w []uint16
}

func NewWeightTable(kinds int) *WeightTable {
	w := make([]uint16, kinds)
	for i := range w {
		w[i] = DefaultWeight
	}
	return &WeightTable{w: w}
}

func (t *WeightTable) Len() int { return len(t.w) }

func (t *WeightTable) Get(kind uint16) (uint16, bool) {
	if int(kind) >= len(t.w) {
		return 0, false
	}
	return t.w[kind], true
}

// Set writes one weight locally.
func (t *WeightTable) Set(kind, weight uint16) error {
	if int(kind) >= len(t.w) {
		return fmt.Errorf("weight kind %d out of range (%d kinds)", kind, len(t.w))
	}
	t.w[kind] = weight
	return nil
}

// Overwrite replaces the whole table. The length must match exactly; a
// mismatched table is rejected rather than partially applied.
func (t *WeightTable) Overwrite(weights []uint16) error {
	if len(weights) != len(t.w) {
		return fmt.Errorf("weight table has %d entries, want %d", len(weights), len(t.w))
	}
	copy(t.w, weights)
	return nil
}

// Snapshot returns a copy in kind order.
func (t *WeightTable) Snapshot() []uint16 {
	return append([]uint16(nil), t.w...)
}
