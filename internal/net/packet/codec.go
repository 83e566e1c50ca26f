package packet

import (
	"fmt"
	"math"
)

// Codec encodes and decodes whole messages. Its charset applies to strings.
type Codec struct {
	Charset Charset
}

// Encode serializes m, opcode first.
func (c Codec) Encode(m Message) []byte {
	w := NewWriterWithOpcode(m.opcode())
	w.charset = c.Charset
	m.encode(w)
	return w.Bytes()
}

// Encode serializes m with the UTF-8 codec.
func Encode(m Message) []byte {
	return Codec{}.Encode(m)
}

func (c Codec) reader(data []byte) (*Reader, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrMalformed)
	}
	r := NewReader(data)
	r.charset = c.Charset
	return r, nil
}

// DecodeServer parses one server → client message. Errors wrap ErrMalformed
// or ErrUnknownOpcode; nothing is partially returned on error.
func (c Codec) DecodeServer(data []byte) (ServerMessage, error) {
	r, err := c.reader(data)
	if err != nil {
		return nil, err
	}
	op := ServerOp(r.Opcode())

	var m ServerMessage
	switch op {
	case SInfo:
		m = Info{Key: r.ReadQ(), MapName: r.ReadS()}
	case SGo:
		m = Go{Spawn: r.ReadVec2()}
	case SChangeSpeed:
		m = ChangeSpeed{Multiplier: r.ReadF()}
	case SStop:
		m = Stop{}
	case SWin:
		m = Win{}
	case SOut:
		m = Out{}
	case SUpdateUnit:
		m = decodeUnits(r)
	case SUpdateBullet:
		m = decodeBullets(r)
	case SUpdateWeight:
		m = decodeWeights(r)
	case SDuang:
		m = decodeDuang(r)
	default:
		switch byte(op) {
		case OpDisconnectNotification, OpConnectionLost:
			// transport messages may carry a platform-specific tail
			return Disconnected{Code: byte(op)}, nil
		}
		return nil, fmt.Errorf("%w: server %s", ErrUnknownOpcode, op)
	}

	if err := r.End(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", op, err)
	}
	return m, nil
}

func decodeUnits(r *Reader) UpdateUnit {
	n := int(r.ReadD())
	if !r.Count(n, UnitRecordSize) {
		return UpdateUnit{}
	}
	units := make([]UnitSync, n)
	for i := range units {
		u := &units[i]
		u.ID = r.ReadD()
		u.Kind = r.ReadH()
		u.Group = r.ReadC()
		u.Pos = r.ReadVec3()
		u.Rot = r.ReadQuat()
		u.AttackTarget = r.ReadD()
		u.Dead = r.ReadBool()
	}
	return UpdateUnit{Units: units}
}

func decodeBullets(r *Reader) UpdateBullet {
	n := int(r.ReadD())
	if !r.Count(n, BulletRecordSize) {
		return UpdateBullet{}
	}
	bullets := make([]BulletSync, n)
	for i := range bullets {
		b := &bullets[i]
		b.ID = r.ReadD()
		b.Kind = r.ReadH()
		b.Pos = r.ReadVec3()
		b.Rot = r.ReadQuat()
	}
	return UpdateBullet{Bullets: bullets}
}

func decodeWeights(r *Reader) UpdateWeight {
	n := r.Remaining() / 2
	weights := make([]uint16, n)
	for i := range weights {
		weights[i] = r.ReadH()
	}
	return UpdateWeight{Weights: weights}
}

func decodeDuang(r *Reader) Duang {
	n := int(r.ReadH())
	if !r.Count(n, DuangRecordSize) {
		return Duang{}
	}
	effects := make([]DuangSync, n)
	for i := range effects {
		effects[i].Kind = r.ReadH()
		effects[i].Pos = r.ReadVec3()
	}
	return Duang{Effects: effects}
}

// DecodeServer parses with the UTF-8 codec.
func DecodeServer(data []byte) (ServerMessage, error) {
	return Codec{}.DecodeServer(data)
}

// DecodeClient parses one client → server message. The client never needs
// it; fake servers and tests do.
func (c Codec) DecodeClient(data []byte) (ClientMessage, error) {
	r, err := c.reader(data)
	if err != nil {
		return nil, err
	}
	op := ClientOp(r.Opcode())

	var m ClientMessage
	switch op {
	case CChangeGroup:
		m = ChangeGroup{Group: r.ReadC()}
	case CSetMoveTarget:
		target := r.ReadVec2()
		n := int(r.ReadD())
		if !r.Count(n, 4) {
			break
		}
		units := make([]uint32, n)
		for i := range units {
			units[i] = r.ReadD()
		}
		m = SetMoveTarget{Target: target, Units: units}
	case CSetAttackTarget:
		if r.Remaining()%AttackPairSize != 0 {
			return nil, fmt.Errorf("decode %s: %w: %d bytes is not a whole number of pairs", op, ErrMalformed, r.Remaining())
		}
		pairs := make([]AttackPair, r.Remaining()/AttackPairSize)
		for i := range pairs {
			pairs[i] = AttackPair{Attacker: r.ReadD(), Target: r.ReadD()}
		}
		m = SetAttackTarget{Pairs: pairs}
	case CChangeWeight:
		m = ChangeWeight{Kind: r.ReadH(), Weight: r.ReadH()}
	case CExit:
		m = Exit{}
	default:
		return nil, fmt.Errorf("%w: client %s", ErrUnknownOpcode, op)
	}

	if err := r.End(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", op, err)
	}
	return m, nil
}

// DecodeClient parses with the UTF-8 codec.
func DecodeClient(data []byte) (ClientMessage, error) {
	return Codec{}.DecodeClient(data)
}

// ValidSpeed reports whether a changeSpeed multiplier is usable.
func ValidSpeed(f float32) bool {
	return f > 0 && !math.IsInf(float64(f), 0) && !math.IsNaN(float64(f))
}
