package client

import (
	"fmt"
	"time"

	"github.com/tfl/client/internal/core/event"
	"github.com/tfl/client/internal/net/packet"
	"go.uber.org/zap"
)

// receive decodes and applies one inbound message. now is the clock read
// of the current tick. A panic while applying is recovered so one bad
// message cannot take down the tick loop.
func (s *Session) receive(raw []byte, now time.Duration) {
	s.stats.Received++
	msg, err := s.codec.DecodeServer(raw)
	if err != nil {
		s.stats.Malformed++
		s.log.Warn("dropping inbound message", zap.Error(err), zap.Int("len", len(raw)))
		return
	}
	s.safeHandle(msg, now)
}

func (s *Session) safeHandle(msg packet.ServerMessage, now time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			s.stats.Panics++
			s.log.Error("panic in message handler",
				zap.Stringer("opcode", msg.Op()),
				zap.Any("panic", r),
			)
		}
	}()
	s.handle(msg, now)
}

func (s *Session) handle(msg packet.ServerMessage, now time.Duration) {
	if m, ok := msg.(packet.Disconnected); ok {
		s.log.Info("transport disconnected", zap.Uint8("code", m.Code))
		s.stopAfterDrain(ReasonDisconnected, ErrDisconnected)
		return
	}
	if !allowed[s.state][msg.Op()] {
		s.stats.Rejected++
		s.log.Debug("message not allowed in state",
			zap.Stringer("opcode", msg.Op()),
			zap.Stringer("state", s.state),
		)
		return
	}

	switch m := msg.(type) {
	case packet.Info:
		s.handleInfo(m)
	case packet.Go:
		s.enterActive(m)
	case packet.ChangeSpeed:
		if !packet.ValidSpeed(m.Multiplier) {
			s.stats.Malformed++
			s.log.Warn("dropping change speed", zap.Float32("multiplier", m.Multiplier))
			return
		}
		s.speed = m.Multiplier
		s.log.Info("speed changed", zap.Float32("multiplier", m.Multiplier))
	case packet.Stop:
		s.log.Info("the game stopped")
		s.stopAfterDrain(ReasonServerStopped, nil)
	case packet.Win:
		// the server follows up with stop
		s.outcome = OutcomeWon
		s.log.Info("match won")
		event.Emit(s.bus, event.MatchWon{Map: s.current.Name})
	case packet.Out:
		s.log.Info("eliminated")
		s.stopAfterDrain(ReasonEliminated, nil)
	case packet.UpdateUnit:
		s.rec.ApplyUnits(m, now)
		if n := s.store.Units.Len(); n > s.peakUnits {
			s.peakUnits = n
		}
	case packet.UpdateBullet:
		s.rec.ApplyProjectiles(m)
	case packet.UpdateWeight:
		if err := s.rec.ApplyWeights(m); err != nil {
			s.stats.Malformed++
			s.log.Warn("dropping weight table", zap.Error(err))
		}
	case packet.Duang:
		s.rec.SpawnEffects(m, now)
	}
}

func (s *Session) handleInfo(m packet.Info) {
	if m.Key != s.key {
		s.stopAfterDrain(ReasonKeyMismatch,
			fmt.Errorf("%w: server %#016x, local %#016x", ErrKeyMismatch, m.Key, s.key))
		return
	}
	mp, err := s.maps.LoadMap(m.MapName)
	if err != nil {
		s.stopAfterDrain(ReasonMapUnavailable, fmt.Errorf("%w: %v", ErrMapUnavailable, err))
		return
	}
	s.current = mp
	s.log.Info("map loaded", zap.String("map", m.MapName))
	if s.state == StateConnecting {
		s.setState(StateLobby)
	}
}
