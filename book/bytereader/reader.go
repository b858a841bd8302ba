// Package bytereader provides a cursor over an in-memory byte buffer with
// big-endian primitive reads and absolute-offset seeks, shared by the MOBI
// header parser and the Huffman decoder.
package bytereader

import (
	"errors"
	"fmt"
)

// ErrIoExhausted is returned when a read needs more bytes than remain in
// the buffer. A Seek past the end of the buffer does not fail immediately;
// the error only surfaces once something tries to read from that
// position.
var ErrIoExhausted = errors.New("bytereader: read past end of buffer")

// Reader is a cursor over a byte slice. It does not copy the slice; all
// returned byte strings alias the original buffer unless explicitly
// documented otherwise.
type Reader struct {
	data []byte
	pos  int
}

// New wraps data in a Reader positioned at offset 0.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the total size of the underlying buffer.
func (r *Reader) Len() int {
	return len(r.data)
}

// Position returns the current cursor offset.
func (r *Reader) Position() int {
	return r.pos
}

// Seek moves the cursor to an absolute offset. Seeking past the end of the
// buffer is allowed; the next read will fail instead.
func (r *Reader) Seek(offset int) {
	r.pos = offset
}

func (r *Reader) need(n int, field string) error {
	if r.pos < 0 || n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("%s: %w", field, ErrIoExhausted)
	}
	return nil
}

// ReadU8 reads one byte and advances the cursor.
func (r *Reader) ReadU8() (uint8, error) {
	if err := r.need(1, "read_u8"); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadU16 reads a big-endian uint16 and advances the cursor.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2, "read_u16"); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos])<<8 | uint16(r.data[r.pos+1])
	r.pos += 2
	return v, nil
}

// ReadI16 reads a big-endian int16 and advances the cursor.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads a big-endian uint32 and advances the cursor.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4, "read_u32"); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos])<<24 | uint32(r.data[r.pos+1])<<16 |
		uint32(r.data[r.pos+2])<<8 | uint32(r.data[r.pos+3])
	r.pos += 4
	return v, nil
}

// ReadU64 reads a big-endian uint64 and advances the cursor.
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.need(8, "read_u64"); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(r.data[r.pos+i])
	}
	r.pos += 8
	return v, nil
}

// ReadBytes reads n raw bytes and advances the cursor. The returned slice
// aliases the underlying buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n, "read_bytes"); err != nil {
		return nil, err
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// ReadFixedString reads length bytes at an absolute offset, without
// disturbing the cursor, and interprets them lossily as text (NUL bytes
// and invalid sequences are kept as they are and are not treated as
// errors; no strict decoding is done here).
func (r *Reader) ReadFixedString(offset, length int) (string, error) {
	if offset < 0 || length < 0 || offset+length > len(r.data) {
		return "", fmt.Errorf("read_fixed_string: %w", ErrIoExhausted)
	}
	return string(r.data[offset : offset+length]), nil
}

// Bytes returns the full underlying buffer.
func (r *Reader) Bytes() []byte {
	return r.data
}
