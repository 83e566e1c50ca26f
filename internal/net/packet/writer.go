package packet

import (
	"encoding/binary"
	"math"

	"github.com/tfl/client/internal/geom"
)

// Writer builds one message. All multi-byte writes are little-endian.
type Writer struct {
	buf     []byte
	charset Charset
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func NewWriterWithOpcode(opcode byte) *Writer {
	w := NewWriter()
	w.WriteC(opcode)
	return w
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteC(1)
	} else {
		w.WriteC(0)
	}
}

// WriteH writes 2 bytes.
func (w *Writer) WriteH(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteD writes 4 bytes.
func (w *Writer) WriteD(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteQ writes 8 bytes.
func (w *Writer) WriteQ(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) WriteF(v float32) {
	w.WriteD(math.Float32bits(v))
}

func (w *Writer) WriteVec2(v geom.Vec2) {
	w.WriteF(v.X)
	w.WriteF(v.Y)
}

func (w *Writer) WriteVec3(v geom.Vec3) {
	w.WriteF(v.X)
	w.WriteF(v.Y)
	w.WriteF(v.Z)
}

func (w *Writer) WriteQuat(q geom.Quat) {
	w.WriteF(q.X)
	w.WriteF(q.Y)
	w.WriteF(q.Z)
	w.WriteF(q.W)
}

// WriteS writes a u16 length-prefixed string in the writer's charset.
// Strings longer than 65535 encoded bytes are truncated.
func (w *Writer) WriteS(s string) {
	raw := w.charset.encode(s)
	if len(raw) > math.MaxUint16 {
		raw = raw[:math.MaxUint16]
	}
	w.WriteH(uint16(len(raw)))
	w.buf = append(w.buf, raw...)
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}
