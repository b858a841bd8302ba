package headers

import (
	"fmt"
	"strings"

	"github.com/htol/mobidec/book/bytereader"
)

// Well-known EXTH record types (spec.md §3; the original reader names only
// the handful it exposes accessors for).
const (
	EXTHAuthor       uint32 = 100
	EXTHPublisher    uint32 = 101
	EXTHDescription  uint32 = 103
	EXTHISBN         uint32 = 104
	EXTHPublishDate  uint32 = 106
	EXTHContributor  uint32 = 108
	EXTHTitle        uint32 = 503
)

// EXTHHeader is the optional tagged-metadata header that follows the MOBI
// header. Record types may repeat; per spec.md, the last occurrence of a
// given type wins.
type EXTHHeader struct {
	RecordCount uint32
	records     map[uint32][]byte
	order       []uint32
}

func parseEXTHHeader(r *bytereader.Reader, offset int) (EXTHHeader, error) {
	var h EXTHHeader
	h.records = make(map[uint32][]byte)
	r.Seek(offset)

	identifier, err := r.ReadU32()
	if err != nil {
		return h, fmt.Errorf("exth identifier: %w", err)
	}
	if identifier != 0x45585448 { // "EXTH"
		return h, fmt.Errorf("exth identifier 0x%08X: %w", identifier, ErrBadMagic)
	}

	if _, err := r.ReadU32(); err != nil { // header_length, unused by this decoder
		return h, fmt.Errorf("exth header_length: %w", err)
	}

	recordCount, err := r.ReadU32()
	if err != nil {
		return h, fmt.Errorf("exth record_count: %w", err)
	}
	h.RecordCount = recordCount

	for i := uint32(0); i < recordCount; i++ {
		typ, err := r.ReadU32()
		if err != nil {
			return h, fmt.Errorf("exth record[%d] type: %w", i, err)
		}
		length, err := r.ReadU32()
		if err != nil {
			return h, fmt.Errorf("exth record[%d] length: %w", i, err)
		}
		if length < 8 {
			return h, fmt.Errorf("exth record[%d] length %d: shorter than 8-byte overhead", i, length)
		}
		data, err := r.ReadBytes(int(length) - 8)
		if err != nil {
			return h, fmt.Errorf("exth record[%d] data: %w", i, err)
		}
		if _, seen := h.records[typ]; !seen {
			h.order = append(h.order, typ)
		}
		// Last occurrence wins, per spec.
		buf := make([]byte, len(data))
		copy(buf, data)
		h.records[typ] = buf
	}

	return h, nil
}

// Record returns the raw bytes of the last occurrence of the given record
// type, if present.
func (h EXTHHeader) Record(typ uint32) ([]byte, bool) {
	v, ok := h.records[typ]
	return v, ok
}

// RecordString returns a record's value decoded lossily as UTF-8.
func (h EXTHHeader) RecordString(typ uint32) (string, bool) {
	v, ok := h.records[typ]
	if !ok {
		return "", false
	}
	return strings.ToValidUTF8(string(v), "�"), true
}

// Types returns every distinct record type present, in first-seen order.
func (h EXTHHeader) Types() []uint32 {
	return append([]uint32(nil), h.order...)
}

// RecordAt returns the type and value of the i-th distinct record type, in
// first-seen order, for callers that want to walk the EXTH table positionally
// rather than by well-known code.
func (h EXTHHeader) RecordAt(i int) (typ uint32, value []byte, ok bool) {
	if i < 0 || i >= len(h.order) {
		return 0, nil, false
	}
	typ = h.order[i]
	return typ, h.records[typ], true
}
