package world

import (
	"time"

	"github.com/google/btree"
)

// EffectQueue keeps timed effects ordered by (expiry, handle), so expired
// entries come off the front without scanning the rest.
type EffectQueue struct {
	tree *btree.BTreeG[*TimedEffect]
	next uint64
}

func effectLess(a, b *TimedEffect) bool {
	if a.Expiry != b.Expiry {
		return a.Expiry < b.Expiry
	}
	return a.Handle < b.Handle
}

func NewEffectQueue() *EffectQueue {
	return &EffectQueue{tree: btree.NewG(16, effectLess)}
}

// Spawn allocates a handle and queues an effect.
func (q *EffectQueue) Spawn(e TimedEffect) *TimedEffect {
	q.next++
	e.Handle = q.next
	rec := &e
	q.tree.ReplaceOrInsert(rec)
	return rec
}

// PopExpired removes and returns every effect whose expiry is before now,
// earliest first.
func (q *EffectQueue) PopExpired(now time.Duration) []*TimedEffect {
	var out []*TimedEffect
	for {
		e, ok := q.tree.Min()
		if !ok || e.Expiry >= now {
			return out
		}
		q.tree.DeleteMin()
		out = append(out, e)
	}
}

// Drain removes and returns every effect.
func (q *EffectQueue) Drain() []*TimedEffect {
	out := make([]*TimedEffect, 0, q.tree.Len())
	q.tree.Ascend(func(e *TimedEffect) bool {
		out = append(out, e)
		return true
	})
	q.tree.Clear(false)
	return out
}

func (q *EffectQueue) Len() int {
	return q.tree.Len()
}

// Each visits effects in expiry order.
func (q *EffectQueue) Each(fn func(*TimedEffect)) {
	q.tree.Ascend(func(e *TimedEffect) bool {
		fn(e)
		return true
	})
}
