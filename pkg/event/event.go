package event

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Packed event layout, little-endian:
// ts(8) tid(8) len(4) type(2) nparams(4), then nparams 16-bit parameter
// lengths, then the parameter payloads back to back.
const headerLen = 26

var ErrShortBuffer = errors.New("event buffer shorter than its declared layout")

// Event wraps a packed syscall event buffer as delivered by the host
// capture layer.
type Event struct {
	buf []byte
}

// New builds a packed event from its parts. Tests and the replay tool use
// it to synthesize capture buffers.
func New(ts uint64, tid int64, code Code, params ...[]byte) *Event {
	size := headerLen + 2*len(params)
	for _, p := range params {
		size += len(p)
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint64(buf[0:8], ts)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(tid))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(size))
	binary.LittleEndian.PutUint16(buf[20:22], uint16(code))
	binary.LittleEndian.PutUint32(buf[22:26], uint32(len(params)))
	off := headerLen
	for _, p := range params {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(p)))
		off += 2
	}
	for _, p := range params {
		copy(buf[off:], p)
		off += len(p)
	}
	return &Event{buf: buf}
}

// FromBuffer wraps a host-provided packed buffer. The host guarantees a
// well-formed layout; only the header bounds are verified here.
func FromBuffer(buf []byte) (*Event, error) {
	if len(buf) < headerLen {
		return nil, ErrShortBuffer
	}
	e := &Event{buf: buf}
	if len(buf) < headerLen+2*e.NParams() {
		return nil, ErrShortBuffer
	}
	return e, nil
}

func (e *Event) Ts() uint64 {
	return binary.LittleEndian.Uint64(e.buf[0:8])
}

func (e *Event) Tid() int64 {
	return int64(binary.LittleEndian.Uint64(e.buf[8:16]))
}

func (e *Event) Type() Code {
	return Code(binary.LittleEndian.Uint16(e.buf[20:22]))
}

func (e *Event) NParams() int {
	return int(binary.LittleEndian.Uint32(e.buf[22:26]))
}

// Param locates the nth parameter payload by summing the length prefixes of
// the parameters before it.
func (e *Event) Param(n int) ([]byte, bool) {
	if n < 0 || n >= e.NParams() {
		return nil, false
	}
	lens := e.buf[headerLen : headerLen+2*e.NParams()]
	off := headerLen + 2*e.NParams()
	for j := 0; j < n; j++ {
		off += int(binary.LittleEndian.Uint16(lens[2*j : 2*j+2]))
	}
	plen := int(binary.LittleEndian.Uint16(lens[2*n : 2*n+2]))
	if off+plen > len(e.buf) {
		return nil, false
	}
	return e.buf[off : off+plen], true
}

func (e *Event) ParamI64(n int) (int64, bool) {
	p, ok := e.Param(n)
	if !ok || len(p) < 8 {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(p)), true
}

func (e *Event) ParamU64(n int) (uint64, bool) {
	p, ok := e.Param(n)
	if !ok || len(p) < 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(p), true
}

func (e *Event) ParamU32(n int) (uint32, bool) {
	p, ok := e.Param(n)
	if !ok || len(p) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(p), true
}

// ParamStr decodes the nth parameter as a null-terminated string.
func (e *Event) ParamStr(n int) (string, bool) {
	p, ok := e.Param(n)
	if !ok {
		return "", false
	}
	for i := 0; i < len(p); i++ {
		if p[i] == 0 {
			return string(p[:i]), true
		}
	}
	return string(p), true
}

// I64 encodes an int64 parameter payload.
func I64(v int64) []byte {
	p := make([]byte, 8)
	binary.LittleEndian.PutUint64(p, uint64(v))
	return p
}

// U64 encodes a uint64 parameter payload.
func U64(v uint64) []byte {
	p := make([]byte, 8)
	binary.LittleEndian.PutUint64(p, v)
	return p
}

// U32 encodes a uint32 parameter payload.
func U32(v uint32) []byte {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, v)
	return p
}

// Str encodes a null-terminated string parameter payload.
func Str(s string) []byte {
	p := make([]byte, len(s)+1)
	copy(p, s)
	return p
}
