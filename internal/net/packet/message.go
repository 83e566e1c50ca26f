package packet

import "github.com/tfl/client/internal/geom"

// Message is implemented by every protocol message in both directions.
type Message interface {
	opcode() byte
	encode(w *Writer)
}

// ServerMessage is the closed set of server → client messages. Consumers
// switch on the concrete type.
type ServerMessage interface {
	Message
	Op() ServerOp
}

// ClientMessage is the closed set of client → server messages.
type ClientMessage interface {
	Message
	Op() ClientOp
}

// ── server → client ───────────────────────────────────────────────

// Info is the handshake: the server's protocol key and the map to load.
type Info struct {
	Key     uint64
	MapName string
}

// Go starts the match.
type Go struct {
	Spawn geom.Vec2
}

// ChangeSpeed sets the simulation speed multiplier.
type ChangeSpeed struct {
	Multiplier float32
}

type Stop struct{}
type Win struct{}

// Out means the local group has been eliminated.
type Out struct{}

// UnitSync is one unit record of an updateUnit snapshot.
type UnitSync struct {
	ID           uint32
	Kind         uint16
	Group        uint8
	Pos          geom.Vec3
	Rot          geom.Quat
	AttackTarget uint32 // 0 = none
	Dead         bool
}

// UpdateUnit is the complete live unit set for this tick.
type UpdateUnit struct {
	Units []UnitSync
}

type BulletSync struct {
	ID   uint32
	Kind uint16
	Pos  geom.Vec3
	Rot  geom.Quat
}

// UpdateBullet is the complete live projectile set for this tick.
type UpdateBullet struct {
	Bullets []BulletSync
}

// UpdateWeight carries the full weight table in ascending kind order.
type UpdateWeight struct {
	Weights []uint16
}

type DuangSync struct {
	Kind uint16
	Pos  geom.Vec3
}

// Duang spawns timed effects.
type Duang struct {
	Effects []DuangSync
}

// Disconnected is the transport-level disconnect notification.
type Disconnected struct {
	Code byte
}

func (Info) Op() ServerOp         { return SInfo }
func (Go) Op() ServerOp           { return SGo }
func (ChangeSpeed) Op() ServerOp  { return SChangeSpeed }
func (Stop) Op() ServerOp         { return SStop }
func (Win) Op() ServerOp          { return SWin }
func (Out) Op() ServerOp          { return SOut }
func (UpdateUnit) Op() ServerOp   { return SUpdateUnit }
func (UpdateBullet) Op() ServerOp { return SUpdateBullet }
func (UpdateWeight) Op() ServerOp { return SUpdateWeight }
func (Duang) Op() ServerOp        { return SDuang }
func (m Disconnected) Op() ServerOp {
	return ServerOp(m.Code)
}

func (m Info) opcode() byte         { return byte(m.Op()) }
func (m Go) opcode() byte           { return byte(m.Op()) }
func (m ChangeSpeed) opcode() byte  { return byte(m.Op()) }
func (m Stop) opcode() byte         { return byte(m.Op()) }
func (m Win) opcode() byte          { return byte(m.Op()) }
func (m Out) opcode() byte          { return byte(m.Op()) }
func (m UpdateUnit) opcode() byte   { return byte(m.Op()) }
func (m UpdateBullet) opcode() byte { return byte(m.Op()) }
func (m UpdateWeight) opcode() byte { return byte(m.Op()) }
func (m Duang) opcode() byte        { return byte(m.Op()) }
func (m Disconnected) opcode() byte { return m.Code }

func (m Info) encode(w *Writer) {
	w.WriteQ(m.Key)
	w.WriteS(m.MapName)
}

func (m Go) encode(w *Writer)          { w.WriteVec2(m.Spawn) }
func (m ChangeSpeed) encode(w *Writer) { w.WriteF(m.Multiplier) }
func (Stop) encode(*Writer)            {}
func (Win) encode(*Writer)             {}
func (Out) encode(*Writer)             {}
func (Disconnected) encode(*Writer)    {}

func (m UpdateUnit) encode(w *Writer) {
	w.WriteD(uint32(len(m.Units)))
	for _, u := range m.Units {
		w.WriteD(u.ID)
		w.WriteH(u.Kind)
		w.WriteC(u.Group)
		w.WriteVec3(u.Pos)
		w.WriteQuat(u.Rot)
		w.WriteD(u.AttackTarget)
		w.WriteBool(u.Dead)
	}
}

func (m UpdateBullet) encode(w *Writer) {
	w.WriteD(uint32(len(m.Bullets)))
	for _, b := range m.Bullets {
		w.WriteD(b.ID)
		w.WriteH(b.Kind)
		w.WriteVec3(b.Pos)
		w.WriteQuat(b.Rot)
	}
}

func (m UpdateWeight) encode(w *Writer) {
	for _, v := range m.Weights {
		w.WriteH(v)
	}
}

func (m Duang) encode(w *Writer) {
	w.WriteH(uint16(len(m.Effects)))
	for _, e := range m.Effects {
		w.WriteH(e.Kind)
		w.WriteVec3(e.Pos)
	}
}

// ── client → server ───────────────────────────────────────────────

type ChangeGroup struct {
	Group uint8
}

// SetMoveTarget orders units to walk to a ground point (x, z).
type SetMoveTarget struct {
	Target geom.Vec2
	Units  []uint32
}

type AttackPair struct {
	Attacker uint32
	Target   uint32
}

// SetAttackTarget bundles every attack assignment of one player action.
type SetAttackTarget struct {
	Pairs []AttackPair
}

type ChangeWeight struct {
	Kind   uint16
	Weight uint16
}

type Exit struct{}

func (ChangeGroup) Op() ClientOp     { return CChangeGroup }
func (SetMoveTarget) Op() ClientOp   { return CSetMoveTarget }
func (SetAttackTarget) Op() ClientOp { return CSetAttackTarget }
func (ChangeWeight) Op() ClientOp    { return CChangeWeight }
func (Exit) Op() ClientOp            { return CExit }

func (m ChangeGroup) opcode() byte     { return byte(m.Op()) }
func (m SetMoveTarget) opcode() byte   { return byte(m.Op()) }
func (m SetAttackTarget) opcode() byte { return byte(m.Op()) }
func (m ChangeWeight) opcode() byte    { return byte(m.Op()) }
func (m Exit) opcode() byte            { return byte(m.Op()) }

func (m ChangeGroup) encode(w *Writer) { w.WriteC(m.Group) }

func (m SetMoveTarget) encode(w *Writer) {
	w.WriteVec2(m.Target)
	w.WriteD(uint32(len(m.Units)))
	for _, id := range m.Units {
		w.WriteD(id)
	}
}

// SetAttackTarget has no count: pairs run to the end of the message.
func (m SetAttackTarget) encode(w *Writer) {
	for _, p := range m.Pairs {
		w.WriteD(p.Attacker)
		w.WriteD(p.Target)
	}
}

func (m ChangeWeight) encode(w *Writer) {
	w.WriteH(m.Kind)
	w.WriteH(m.Weight)
}

func (Exit) encode(*Writer) {}
