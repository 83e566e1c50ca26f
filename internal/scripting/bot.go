package scripting

import (
	"time"

	coresys "github.com/tfl/client/internal/core/system"
	"github.com/tfl/client/internal/data"
	"github.com/tfl/client/internal/geom"
	"github.com/tfl/client/internal/net/packet"
	"github.com/tfl/client/internal/world"
	"go.uber.org/zap"
)

// Game is the part of a client session a bot drives. *client.Session
// implements it.
type Game interface {
	Active() bool
	Group() uint8
	MapName() string
	Speed() float32
	Store() *world.Store
	Weights() []uint16
	MoveTo(target geom.Vec2, ids []uint32) bool
	Attack(pairs []packet.AttackPair) int
	ChangeWeight(name string, weight uint16) error
}

// BotStats counts what the bot asked for and what the session accepted.
type BotStats struct {
	Plans    int
	Intents  int
	Rejected int
}

// Bot is an output-phase tick system that asks the script for a plan every
// interval and issues the resulting commands through the session, so
// every command passes the same ownership filters as player input.
type Bot struct {
	eng      *Engine
	game     Game
	units    *data.UnitTable
	interval time.Duration
	acc      time.Duration
	log      *zap.Logger
	stats    BotStats
}

const defaultPlanInterval = 500 * time.Millisecond

func NewBot(eng *Engine, game Game, units *data.UnitTable, interval time.Duration, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultPlanInterval
	}
	return &Bot{eng: eng, game: game, units: units, interval: interval, log: log}
}

func (b *Bot) Phase() coresys.Phase { return coresys.PhaseOutput }
func (b *Bot) Stats() BotStats      { return b.stats }

// Update plans once per interval of wall time. The first plan runs on the
// first active tick.
func (b *Bot) Update(dt time.Duration) {
	if !b.game.Active() {
		b.acc = 0
		return
	}
	if b.stats.Plans > 0 {
		b.acc += dt
		if b.acc < b.interval {
			return
		}
		b.acc %= b.interval
	}
	b.stats.Plans++

	intents := b.eng.Plan(b.view())
	var pairs []packet.AttackPair
	for _, in := range intents {
		b.stats.Intents++
		switch in.Type {
		case "move":
			if !b.game.MoveTo(geom.Vec2{X: in.X, Y: in.Z}, in.Units) {
				b.stats.Rejected++
			}
		case "attack":
			pairs = append(pairs, packet.AttackPair{Attacker: in.Attacker, Target: in.Target})
		case "weight":
			if err := b.game.ChangeWeight(in.Kind, in.Weight); err != nil {
				b.stats.Rejected++
				b.log.Warn("bot weight rejected", zap.String("kind", in.Kind), zap.Error(err))
			}
		default:
			b.stats.Rejected++
			b.log.Warn("unknown bot intent", zap.String("type", in.Type))
		}
	}
	// one attack message per plan
	if len(pairs) > 0 {
		b.stats.Rejected += len(pairs) - b.game.Attack(pairs)
	}
}

func (b *Bot) view() View {
	v := View{
		Group:   b.game.Group(),
		Map:     b.game.MapName(),
		Speed:   b.game.Speed(),
		Weights: make(map[string]uint16),
	}
	b.game.Store().Units.Each(func(_ uint32, u *world.UnitRecord) {
		if !u.Alive() {
			return
		}
		v.Units = append(v.Units, UnitView{
			ID:     u.ID,
			Kind:   b.kindName(u.Kind),
			Group:  u.Group,
			X:      u.Pos.X,
			Y:      u.Pos.Y,
			Z:      u.Pos.Z,
			Target: u.AttackTarget,
		})
	})

	for kind, w := range b.game.Weights() {
		if k, ok := b.units.Get(uint16(kind)); ok {
			v.Weights[k.Name] = w
		}
	}
	return v
}

func (b *Bot) kindName(kind uint16) string {
	if k, ok := b.units.Get(kind); ok {
		return k.Name
	}
	return ""
}
