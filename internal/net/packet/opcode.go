package packet

import "fmt"

// Transport-level opcodes. These never come from the game server's protocol
// layer; the transport injects OpConnectionLost when the link dies, and a
// peer may send OpDisconnectNotification before closing on purpose.
const (
	OpDisconnectNotification byte = 0x15
	OpConnectionLost         byte = 0x16
)

// opUserBase is the first protocol opcode in either direction.
const opUserBase = 134

// ServerOp is the first byte of every server → client message.
type ServerOp byte

const (
	SInfo ServerOp = opUserBase + iota
	SGo
	SChangeSpeed
	SStop
	SWin
	SOut
	SUpdateUnit
	SUpdateBullet
	SUpdateWeight
	SDuang
)

func (op ServerOp) String() string {
	switch op {
	case SInfo:
		return "info"
	case SGo:
		return "go"
	case SChangeSpeed:
		return "changeSpeed"
	case SStop:
		return "stop"
	case SWin:
		return "win"
	case SOut:
		return "out"
	case SUpdateUnit:
		return "updateUnit"
	case SUpdateBullet:
		return "updateBullet"
	case SUpdateWeight:
		return "updateWeight"
	case SDuang:
		return "duang"
	}
	switch byte(op) {
	case OpDisconnectNotification:
		return "disconnectNotification"
	case OpConnectionLost:
		return "connectionLost"
	}
	return fmt.Sprintf("Unknown(%d)", byte(op))
}

// ClientOp is the first byte of every client → server message.
type ClientOp byte

const (
	CChangeGroup ClientOp = opUserBase + iota
	CSetMoveTarget
	CSetAttackTarget
	CChangeWeight
	CExit
)

func (op ClientOp) String() string {
	switch op {
	case CChangeGroup:
		return "changeGroup"
	case CSetMoveTarget:
		return "setMoveTarget"
	case CSetAttackTarget:
		return "setAttackTarget"
	case CChangeWeight:
		return "changeWeight"
	case CExit:
		return "exit"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(op))
	}
}

// Fixed record sizes in bytes.
const (
	UnitRecordSize   = 4 + 2 + 1 + 12 + 16 + 4 + 1
	BulletRecordSize = 4 + 2 + 12 + 16
	DuangRecordSize  = 2 + 12
	AttackPairSize   = 8
)
