// Package reconcile applies server snapshots to the client's entity store.
//
// Snapshots are full replacements: every live entity of a category appears
// in every snapshot of that category. Anything the store knows that a
// snapshot omits is destroyed. A lost snapshot therefore costs one tick of
// staleness and never a permanent desync.
package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/tfl/client/internal/data"
	"github.com/tfl/client/internal/net/packet"
	"github.com/tfl/client/internal/world"
	"go.uber.org/zap"
)

// Edits lists what one snapshot changed, each in ascending ID order except
// Created and Updated, which follow snapshot order.
type Edits struct {
	Created   []uint32
	Updated   []uint32
	Destroyed []uint32
	Died      []uint32 // units first seen dead in this snapshot
}

// Reconciler is the Entity Store's only writer.
type Reconciler struct {
	store     *world.Store
	weights   *world.WeightTable
	units     *data.UnitTable
	effects   *data.EffectTable
	presenter Presenter
	deadGrace time.Duration

	// dead units removed by the grace period; kept out of the store until
	// a snapshot stops mentioning them
	buried map[uint32]struct{}

	warnedKinds map[uint16]struct{}
	log         *zap.Logger
}

type Options struct {
	Presenter Presenter     // nil = NopPresenter
	DeadGrace time.Duration // 0 = keep dead units until the server drops them
	Log       *zap.Logger
}

func New(store *world.Store, weights *world.WeightTable, units *data.UnitTable, effects *data.EffectTable, opts Options) *Reconciler {
	if opts.Presenter == nil {
		opts.Presenter = NopPresenter{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Reconciler{
		store:       store,
		weights:     weights,
		units:       units,
		effects:     effects,
		presenter:   opts.Presenter,
		deadGrace:   opts.DeadGrace,
		buried:      make(map[uint32]struct{}),
		warnedKinds: make(map[uint16]struct{}),
		log:         opts.Log,
	}
}

// ApplyUnits reconciles the unit table against one updateUnit snapshot.
func (r *Reconciler) ApplyUnits(msg packet.UpdateUnit, now time.Duration) Edits {
	var e Edits
	old := make(map[uint32]struct{}, r.store.Units.Len())
	for _, id := range r.store.Units.IDs() {
		old[id] = struct{}{}
	}
	mentioned := make(map[uint32]struct{}, len(msg.Units))

	for _, u := range msg.Units {
		if _, dup := mentioned[u.ID]; dup {
			continue // first record wins
		}
		mentioned[u.ID] = struct{}{}
		if _, ok := r.buried[u.ID]; ok {
			continue
		}

		rec, ok := r.store.Units.Get(u.ID)
		if ok {
			delete(old, u.ID)
			if rec.Kind != u.Kind {
				r.checkUnitKind(u.Kind)
				rec.Kind = u.Kind
			}
			rec.Group = u.Group
			rec.Pos = u.Pos
			rec.Rot = u.Rot
			rec.AttackTarget = u.AttackTarget
			e.Updated = append(e.Updated, u.ID)
		} else {
			r.checkUnitKind(u.Kind)
			rec = &world.UnitRecord{
				ID:           u.ID,
				Kind:         u.Kind,
				Group:        u.Group,
				Pos:          u.Pos,
				Rot:          u.Rot,
				AttackTarget: u.AttackTarget,
			}
			r.store.Units.Set(u.ID, rec)
			r.presenter.AttachUnit(rec)
			e.Created = append(e.Created, u.ID)
		}

		// death is sticky: the server never revives a unit
		if u.Dead && !rec.Dead {
			rec.Dead = true
			rec.DeadSince = now
			e.Died = append(e.Died, u.ID)
		}
	}

	for _, id := range sortedKeys(old) {
		r.destroyUnit(id)
		e.Destroyed = append(e.Destroyed, id)
	}

	for id := range r.buried {
		if _, ok := mentioned[id]; !ok {
			delete(r.buried, id)
		}
	}

	if r.deadGrace > 0 {
		var expired []uint32
		r.store.Units.Each(func(id uint32, u *world.UnitRecord) {
			if u.Dead && now-u.DeadSince >= r.deadGrace {
				expired = append(expired, id)
			}
		})
		for _, id := range expired {
			r.destroyUnit(id)
			r.buried[id] = struct{}{}
			e.Destroyed = append(e.Destroyed, id)
		}
	}
	return e
}

func (r *Reconciler) destroyUnit(id uint32) {
	if _, ok := r.store.Units.Remove(id); ok {
		r.presenter.DetachUnit(id)
	}
}

func (r *Reconciler) checkUnitKind(kind uint16) {
	if _, ok := r.units.Get(kind); ok {
		return
	}
	if _, warned := r.warnedKinds[kind]; warned {
		return
	}
	r.warnedKinds[kind] = struct{}{}
	r.log.Warn("unit of unknown kind, auto-targeting disabled for it", zap.Uint16("kind", kind))
}

// ApplyProjectiles reconciles the projectile table against one
// updateBullet snapshot.
func (r *Reconciler) ApplyProjectiles(msg packet.UpdateBullet) Edits {
	var e Edits
	old := make(map[uint32]struct{}, r.store.Projectiles.Len())
	for _, id := range r.store.Projectiles.IDs() {
		old[id] = struct{}{}
	}
	mentioned := make(map[uint32]struct{}, len(msg.Bullets))

	for _, b := range msg.Bullets {
		if _, dup := mentioned[b.ID]; dup {
			continue
		}
		mentioned[b.ID] = struct{}{}

		if rec, ok := r.store.Projectiles.Get(b.ID); ok {
			delete(old, b.ID)
			rec.Pos = b.Pos
			rec.Rot = b.Rot
			e.Updated = append(e.Updated, b.ID)
			continue
		}
		rec := &world.ProjectileRecord{ID: b.ID, Kind: b.Kind, Pos: b.Pos, Rot: b.Rot}
		r.store.Projectiles.Set(b.ID, rec)
		r.presenter.AttachProjectile(rec)
		e.Created = append(e.Created, b.ID)
	}

	for _, id := range sortedKeys(old) {
		r.store.Projectiles.Remove(id)
		r.presenter.DetachProjectile(id)
		e.Destroyed = append(e.Destroyed, id)
	}
	return e
}

// ApplyWeights overwrites the weight table positionally.
func (r *Reconciler) ApplyWeights(msg packet.UpdateWeight) error {
	if err := r.weights.Overwrite(msg.Weights); err != nil {
		return fmt.Errorf("%w: %v", packet.ErrMalformed, err)
	}
	return nil
}

// SpawnEffects queues one timed effect per record and returns how many
// were spawned. Effects of unknown kinds are dropped.
func (r *Reconciler) SpawnEffects(msg packet.Duang, now time.Duration) int {
	n := 0
	for _, d := range msg.Effects {
		kind, ok := r.effects.Get(d.Kind)
		if !ok {
			r.log.Warn("effect of unknown kind dropped", zap.Uint16("kind", d.Kind))
			continue
		}
		rec := r.store.Effects.Spawn(world.TimedEffect{
			Kind:   d.Kind,
			Pos:    d.Pos,
			Expiry: now + kind.Duration(),
		})
		r.presenter.AttachEffect(rec)
		n++
	}
	return n
}

// ExpireEffects destroys effects whose expiry is before now.
func (r *Reconciler) ExpireEffects(now time.Duration) int {
	expired := r.store.Effects.PopExpired(now)
	for _, e := range expired {
		r.presenter.DetachEffect(e.Handle)
	}
	return len(expired)
}

// Reset destroys every entity in every category.
func (r *Reconciler) Reset() {
	for _, id := range r.store.Units.IDs() {
		r.destroyUnit(id)
	}
	for _, id := range r.store.Projectiles.IDs() {
		r.store.Projectiles.Remove(id)
		r.presenter.DetachProjectile(id)
	}
	for _, e := range r.store.Effects.Drain() {
		r.presenter.DetachEffect(e.Handle)
	}
	clear(r.buried)
}

func sortedKeys(m map[uint32]struct{}) []uint32 {
	ids := make([]uint32, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
