// Package command turns player intents into outbound protocol messages.
// Every command is filtered against the entity store first: the client
// only ever asks the server to act with living units it owns.
package command

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/tfl/client/internal/data"
	"github.com/tfl/client/internal/geom"
	"github.com/tfl/client/internal/net"
	"github.com/tfl/client/internal/net/packet"
	"github.com/tfl/client/internal/world"
	"go.uber.org/zap"
)

// ErrUnknownKind is returned for weight changes naming a kind the metadata
// does not define.
var ErrUnknownKind = errors.New("unknown unit kind")

// Link is the outbound half of a transport.
type Link interface {
	Send(data []byte, rel net.Reliability)
}

type Options struct {
	MoveReliableMax    int           // moves with more units go best-effort
	MoveDedup          time.Duration // identical moves inside this window are suppressed
	AutoTargetInterval time.Duration
	GridCell           float32 // AOI cell size for the auto-target pass
	Charset            packet.Charset
	Log                *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MoveReliableMax <= 0 {
		o.MoveReliableMax = 16
	}
	if o.MoveDedup < 0 {
		o.MoveDedup = 0
	}
	if o.AutoTargetInterval <= 0 {
		o.AutoTargetInterval = 500 * time.Millisecond
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// Stats counts messages handed to the link, per client opcode, plus the
// commands that were filtered away before sending.
type Stats struct {
	Sent       map[packet.ClientOp]int
	Suppressed int // duplicate moves
	Empty      int // commands with nothing left after filtering
}

type Dispatcher struct {
	link    Link
	codec   packet.Codec
	store   *world.Store
	units   *data.UnitTable
	weights *world.WeightTable
	clock   world.Clock
	opts    Options
	log     *zap.Logger

	group uint8

	lastMove   *packet.SetMoveTarget
	lastMoveAt time.Duration

	autoAcc time.Duration
	grid    *world.AOIGrid

	stats Stats
}

func New(link Link, store *world.Store, units *data.UnitTable, weights *world.WeightTable, clock world.Clock, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		link:    link,
		codec:   packet.Codec{Charset: opts.Charset},
		store:   store,
		units:   units,
		weights: weights,
		clock:   clock,
		opts:    opts,
		log:     opts.Log,
		grid:    world.NewAOIGrid(opts.GridCell),
		stats:   Stats{Sent: make(map[packet.ClientOp]int)},
	}
}

// Group is the group this client commands.
func (d *Dispatcher) Group() uint8 { return d.group }

func (d *Dispatcher) send(m packet.ClientMessage, rel net.Reliability) {
	d.link.Send(d.codec.Encode(m), rel)
	d.stats.Sent[m.Op()]++
}

// ChangeGroup claims group g. Sent reliable; the local group changes at once.
func (d *Dispatcher) ChangeGroup(g uint8) {
	d.group = g
	d.send(packet.ChangeGroup{Group: g}, net.ReliableOrdered)
}

// IssueMove orders the owned living units among ids to target. It reports
// whether a message was sent.
func (d *Dispatcher) IssueMove(target geom.Vec2, ids []uint32) bool {
	if !geom.IsFinite(target.X) || !geom.IsFinite(target.Y) {
		d.log.Debug("move to non-finite point ignored")
		return false
	}
	units := make([]uint32, 0, len(ids))
	for _, id := range ids {
		if d.store.Owned(id, d.group) {
			units = append(units, id)
		}
	}
	if len(units) == 0 {
		d.stats.Empty++
		return false
	}
	slices.Sort(units)
	units = slices.Compact(units)

	now := d.clock.Now()
	if d.lastMove != nil && now-d.lastMoveAt < d.opts.MoveDedup &&
		d.lastMove.Target == target && slices.Equal(d.lastMove.Units, units) {
		d.stats.Suppressed++
		return false
	}

	m := packet.SetMoveTarget{Target: target, Units: units}
	rel := net.ReliableOrdered
	if len(units) > d.opts.MoveReliableMax {
		// large moves are superseded quickly; losing one is cheaper than
		// stalling the link
		rel = net.BestEffort
	}
	d.send(m, rel)
	d.lastMove = &m
	d.lastMoveAt = now
	return true
}

// IssueAttack sends the valid pairs among pairs: attacker owned and alive,
// target alive and not owned. It returns how many pairs were sent.
func (d *Dispatcher) IssueAttack(pairs []packet.AttackPair) int {
	valid := make([]packet.AttackPair, 0, len(pairs))
	for _, p := range pairs {
		if !d.store.Owned(p.Attacker, d.group) {
			continue
		}
		t, ok := d.store.Units.Get(p.Target)
		if !ok || !t.Alive() || t.Group == d.group {
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		d.stats.Empty++
		return 0
	}
	d.send(packet.SetAttackTarget{Pairs: valid}, net.ReliableOrdered)
	return len(valid)
}

// ChangeWeight sets the production weight of kind, locally at once and on
// the server best-effort. The next updateWeight overwrites the local value.
func (d *Dispatcher) ChangeWeight(kind, weight uint16) error {
	if err := d.weights.Set(kind, weight); err != nil {
		return fmt.Errorf("change weight: %w", err)
	}
	d.send(packet.ChangeWeight{Kind: kind, Weight: weight}, net.BestEffort)
	return nil
}

// ChangeWeightByName is ChangeWeight with the kind looked up by name.
func (d *Dispatcher) ChangeWeightByName(name string, weight uint16) error {
	kind, ok := d.units.Lookup(name)
	if !ok {
		return fmt.Errorf("change weight %q: %w", name, ErrUnknownKind)
	}
	return d.ChangeWeight(kind, weight)
}

// Exit tells the server this client is leaving. The link may already be
// gone, in which case the message is lost with it.
func (d *Dispatcher) Exit() {
	d.send(packet.Exit{}, net.ReliableOrdered)
}

// Reset forgets per-match state. The group is kept.
func (d *Dispatcher) Reset() {
	d.lastMove = nil
	d.autoAcc = 0
	d.grid.Reset()
}

func (d *Dispatcher) Stats() Stats {
	sent := make(map[packet.ClientOp]int, len(d.stats.Sent))
	for op, n := range d.stats.Sent {
		sent[op] = n
	}
	s := d.stats
	s.Sent = sent
	return s
}
