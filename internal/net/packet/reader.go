package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/tfl/client/internal/geom"
)

var (
	ErrMalformed     = errors.New("malformed payload")
	ErrUnknownOpcode = errors.New("unknown opcode")
)

// Reader reads little-endian fields from one message. Byte 0 is the opcode.
// The first short read latches an error; later reads return zero values, so
// a decoder can read a whole record and check Err once.
type Reader struct {
	data    []byte
	off     int
	err     error
	charset Charset
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, off: 1}
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.off >= len(r.data) {
		return 0
	}
	return len(r.data) - r.off
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformed, n, r.off, r.Remaining())
		r.off = len(r.data)
		return false
	}
	return true
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadBool reads 1 byte, non-zero is true.
func (r *Reader) ReadBool() bool {
	return r.ReadC() != 0
}

// ReadH reads 2 bytes as uint16.
func (r *Reader) ReadH() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadD reads 4 bytes as uint32.
func (r *Reader) ReadD() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

// ReadQ reads 8 bytes as uint64.
func (r *Reader) ReadQ() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

// ReadF reads an IEEE-754 float32.
func (r *Reader) ReadF() float32 {
	return math.Float32frombits(r.ReadD())
}

func (r *Reader) ReadVec2() geom.Vec2 {
	return geom.Vec2{X: r.ReadF(), Y: r.ReadF()}
}

func (r *Reader) ReadVec3() geom.Vec3 {
	return geom.Vec3{X: r.ReadF(), Y: r.ReadF(), Z: r.ReadF()}
}

func (r *Reader) ReadQuat() geom.Quat {
	return geom.Quat{X: r.ReadF(), Y: r.ReadF(), Z: r.ReadF(), W: r.ReadF()}
}

// ReadS reads a u16 length-prefixed string and converts it to UTF-8.
func (r *Reader) ReadS() string {
	n := int(r.ReadH())
	if !r.need(n) {
		return ""
	}
	raw := r.data[r.off : r.off+n]
	r.off += n
	return r.charset.decode(raw)
}

// Count reads a record count and checks that count*recordSize bytes follow,
// so a hostile count cannot make the decoder allocate.
func (r *Reader) Count(count, recordSize int) bool {
	if r.err != nil {
		return false
	}
	if count*recordSize > r.Remaining() {
		r.err = fmt.Errorf("%w: %d records of %d bytes exceed %d remaining", ErrMalformed, count, recordSize, r.Remaining())
		return false
	}
	return true
}

// End latches an error if unread bytes remain.
func (r *Reader) End() error {
	if r.err == nil && r.Remaining() != 0 {
		r.err = fmt.Errorf("%w: %d trailing bytes", ErrMalformed, r.Remaining())
	}
	return r.err
}
