// Package client drives one match from connect to stop. A Session owns
// its transport, entity store, selection and weight table; nothing in it
// is shared with other sessions and everything runs on the caller's tick.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/tfl/client/internal/command"
	"github.com/tfl/client/internal/config"
	"github.com/tfl/client/internal/core/event"
	coresys "github.com/tfl/client/internal/core/system"
	"github.com/tfl/client/internal/data"
	"github.com/tfl/client/internal/net"
	"github.com/tfl/client/internal/net/packet"
	"github.com/tfl/client/internal/reconcile"
	"github.com/tfl/client/internal/selection"
	"github.com/tfl/client/internal/world"
	"go.uber.org/zap"
)

// Link is the transport as the session uses it. *net.Transport is the
// production implementation.
type Link interface {
	Send(data []byte, rel net.Reliability)
	Flush()
	TryReceive() ([]byte, bool)
	IsConnected() bool
	Close()
}

// Deps are the collaborators a session is built from. Units, Effects and
// Maps are required; the rest have headless defaults.
type Deps struct {
	Units     *data.UnitTable
	Effects   *data.EffectTable
	Maps      MapLoader
	Key       uint64 // protocol key the server must announce
	Presenter reconcile.Presenter
	Camera    selection.MovableCamera
	Clock     world.Clock
	Bus       *event.Bus
	Log       *zap.Logger
}

// Stats counts inbound traffic as the session saw it.
type Stats struct {
	Received  int
	Malformed int
	Rejected  int // valid messages not allowed in the current state
	Panics    int
}

type pendingStop struct {
	reason StopReason
	err    error
}

type Session struct {
	link  Link
	codec packet.Codec
	cfg   *config.Config
	log   *zap.Logger

	state   State
	reason  StopReason
	outcome Outcome
	err     error
	pending *pendingStop // stop seen this tick, applied after the drain

	key     uint64
	maps    MapLoader
	current Map

	units     *data.UnitTable
	store     *world.Store
	weights   *world.WeightTable
	selection *world.Selection
	rec       *reconcile.Reconciler
	cmd       *command.Dispatcher

	cam      selection.MovableCamera
	resolver *selection.Resolver
	pointer  *selection.Pointer
	view     *selection.View
	cursor   *cursorPos

	speed      float32
	clock      world.Clock
	now        time.Duration // clock read once per Wait, Update or Stop
	matchStart time.Duration
	peakUnits  int

	bus    *event.Bus
	runner *coresys.Runner
	stats  Stats
}

type cursorPos struct{ x, y float32 }

// Connect dials cfg.Client.Server and returns a session in Connecting. A
// failed dial is returned as a *net.ConnectError.
func Connect(ctx context.Context, cfg *config.Config, deps Deps) (*Session, error) {
	t, err := net.Dial(ctx, cfg.Client.Server, net.Options{
		ConnectTimeout: cfg.Network.ConnectTimeout,
		WriteTimeout:   cfg.Network.WriteTimeout,
		Linger:         cfg.Network.Linger,
		InQueueSize:    cfg.Network.InQueueSize,
		OutQueueSize:   cfg.Network.OutQueueSize,
		Log:            deps.Log,
	})
	if err != nil {
		return nil, err
	}
	s, err := New(t, cfg, deps)
	if err != nil {
		t.Close()
		return nil, err
	}
	return s, nil
}

// New builds a session over an established link and requests the
// configured group.
func New(link Link, cfg *config.Config, deps Deps) (*Session, error) {
	if deps.Units == nil || deps.Effects == nil || deps.Maps == nil {
		return nil, fmt.Errorf("session: unit, effect and map metadata are required")
	}
	charset, err := packet.NewCharset(cfg.Protocol.Charset)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = world.NewMonotonicClock()
	}
	if deps.Bus == nil {
		deps.Bus = event.NewBus()
	}
	if deps.Camera == nil {
		deps.Camera = selection.NewTopDownCamera(cfg.View.Width, cfg.View.Height)
	}
	log := deps.Log.With(zap.String("server", cfg.Client.Server))

	s := &Session{
		link:      link,
		codec:     packet.Codec{Charset: charset},
		cfg:       cfg,
		log:       log,
		state:     StateConnecting,
		key:       deps.Key,
		maps:      deps.Maps,
		units:     deps.Units,
		store:     world.NewStore(),
		weights:   world.NewWeightTable(deps.Units.Count()),
		selection: world.NewSelection(),
		cam:       deps.Camera,
		speed:     1,
		clock:     deps.Clock,
		bus:       deps.Bus,
		runner:    coresys.NewRunner(),
	}
	s.rec = reconcile.New(s.store, s.weights, deps.Units, deps.Effects, reconcile.Options{
		Presenter: deps.Presenter,
		DeadGrace: cfg.Control.DeadGrace,
		Log:       log.Named("reconcile"),
	})
	s.cmd = command.New(link, s.store, deps.Units, s.weights, deps.Clock, command.Options{
		MoveReliableMax:    cfg.Control.MoveReliableMax,
		MoveDedup:          cfg.Control.MoveDedup,
		AutoTargetInterval: cfg.Control.AutoTargetInterval,
		GridCell:           cfg.Control.AOICell,
		Charset:            charset,
		Log:                log.Named("command"),
	})
	s.registerSystems()

	s.cmd.ChangeGroup(cfg.Client.Group)
	s.link.Flush()
	return s, nil
}

func (s *Session) State() State                  { return s.state }
func (s *Session) Active() bool                  { return s.state == StateActive }
func (s *Session) Reason() StopReason            { return s.reason }
func (s *Session) Outcome() Outcome              { return s.outcome }
func (s *Session) Group() uint8                  { return s.cmd.Group() }
func (s *Session) Speed() float32                { return s.speed }
func (s *Session) MapName() string               { return s.current.Name }
func (s *Session) Store() *world.Store           { return s.store }
func (s *Session) Bus() *event.Bus               { return s.bus }
func (s *Session) Stats() Stats                  { return s.stats }
func (s *Session) Commands() *command.Dispatcher { return s.cmd }

// Err returns the error that ended the session, nil for an orderly stop.
func (s *Session) Err() error { return s.err }

// AddSystem registers an extra tick system, such as a bot controller.
func (s *Session) AddSystem(sys coresys.System) {
	s.runner.Register(sys)
	s.log.Debug("system added",
		zap.Stringer("phase", sys.Phase()),
		zap.Int("in_phase", s.runner.Len(sys.Phase())),
	)
}

// Wait polls for handshake and lobby messages. It returns WaitGo once the
// match starts and WaitDisconnected once the session has stopped. Messages
// after go stay queued for the first Update. Commands issued in the lobby
// are flushed before each poll returns.
func (s *Session) Wait() WaitResult {
	defer s.dispatchEvents()
	s.now = s.clock.Now()
	for {
		switch s.state {
		case StateActive:
			return WaitGo
		case StateStopped:
			return WaitDisconnected
		}
		raw, ok := s.link.TryReceive()
		if !ok {
			return WaitNone
		}
		s.receive(raw, s.now)
		if p := s.pending; p != nil {
			s.enterStopped(p.reason, p.err)
		}
	}
}

// Update runs one tick and reports whether the match is still active.
func (s *Session) Update(dt time.Duration) bool {
	if s.state != StateActive {
		return false
	}
	s.now = s.clock.Now()
	s.runner.Tick(dt)
	return s.state == StateActive
}

// Stop ends the session locally. Safe to call in any state and more than
// once.
func (s *Session) Stop() {
	if s.state == StateStopped {
		return
	}
	s.now = s.clock.Now()
	s.enterStopped(ReasonLocalExit, nil)
	s.dispatchEvents()
}

func (s *Session) dispatchEvents() {
	s.runner.TickPhase(coresys.PhaseCleanup, 0)
}

func (s *Session) setState(to State) {
	from := s.state
	s.state = to
	s.log.Info("session state", zap.Stringer("from", from), zap.Stringer("to", to))
	event.Emit(s.bus, event.StateChanged{From: from.String(), To: to.String()})
}

// enterActive resets the match state and points the view at the spawn.
func (s *Session) enterActive(m packet.Go) {
	s.rec.Reset()
	s.selection.Clear()
	s.cmd.Reset()
	s.outcome = OutcomeNone
	s.peakUnits = 0

	s.resolver = selection.NewResolver(s.cam, s.current.Terrain, s.store)
	s.pointer = selection.NewPointer(s.resolver, s.selection)
	s.view = selection.NewView(s.cam, s.current.Terrain, selection.ViewOptions{
		SpawnHeight: s.cfg.View.SpawnHeight,
		Clearance:   s.cfg.View.Clearance,
		EdgeSpeed:   s.cfg.View.EdgeSpeed,
		Bounds:      s.current.Bounds,
	})
	s.view.Init(m.Spawn)
	s.matchStart = s.now

	s.setState(StateActive)
	event.Emit(s.bus, event.MatchStarted{Map: s.current.Name, Group: s.Group(), Spawn: m.Spawn})
}

// enterStopped clears everything local, says goodbye and releases the link.
func (s *Session) enterStopped(reason StopReason, err error) {
	if s.state == StateStopped {
		return
	}
	wasActive := s.state == StateActive
	s.pending = nil
	s.reason = reason
	s.err = err
	if reason == ReasonEliminated {
		s.outcome = OutcomeLost
	}

	s.rec.Reset()
	s.selection.Clear()
	s.cursor = nil
	s.cmd.Exit()
	s.link.Flush()
	s.link.Close()

	if err != nil {
		s.log.Warn("session stopped", zap.Stringer("reason", reason), zap.Error(err))
	} else {
		s.log.Info("session stopped", zap.Stringer("reason", reason), zap.Stringer("outcome", s.outcome))
	}
	s.setState(StateStopped)
	if wasActive {
		event.Emit(s.bus, event.MatchEnded{
			Map:       s.current.Name,
			Group:     s.Group(),
			Outcome:   s.outcome.String(),
			Reason:    reason.String(),
			Duration:  s.now - s.matchStart,
			PeakUnits: s.peakUnits,
		})
	}
}

// stopAfterDrain records the first stop cause seen. Later causes in the
// same tick are ignored along with the rest of the inbound queue.
func (s *Session) stopAfterDrain(reason StopReason, err error) {
	if s.pending == nil {
		s.pending = &pendingStop{reason: reason, err: err}
	}
}
