// Package headers decodes the layered PalmDB/MOBI header structures: the
// PalmDB header, record directory, PalmDOC header, MOBI header and the
// optional EXTH header. All offsets are absolute, measured from the start
// of the file, following the streaming/position-relative layout (the
// "headers/" module in the original implementation, rather than its
// legacy fixed-offset variant — see SPEC_FULL.md §2 for why).
package headers

import (
	"errors"
	"fmt"

	"github.com/htol/mobidec/book/bytereader"
)

// ErrBadMagic is returned when a fixed sentinel ("BOOK", "MOBI", "EXTH")
// does not match what was read.
var ErrBadMagic = errors.New("headers: bad magic")

const palmDBHeaderSize = 78

// PalmDBHeader is the fixed 78-byte PalmDB container header.
type PalmDBHeader struct {
	Name               [32]byte
	Attributes         int16
	Version            int16
	Created            uint32
	Modified           uint32
	Backup             uint32
	Modnum             uint32
	AppInfoID          uint32
	SortInfoID         uint32
	Type               [4]byte
	Creator            [4]byte
	UniqueIDSeed       uint32
	NextRecordListID   uint32
	NumRecords         uint16
}

func parsePalmDBHeader(r *bytereader.Reader) (PalmDBHeader, error) {
	var h PalmDBHeader
	r.Seek(0)

	name, err := r.ReadBytes(32)
	if err != nil {
		return h, fmt.Errorf("palmdb name: %w", err)
	}
	copy(h.Name[:], name)

	if h.Attributes, err = r.ReadI16(); err != nil {
		return h, fmt.Errorf("palmdb attributes: %w", err)
	}
	if h.Version, err = r.ReadI16(); err != nil {
		return h, fmt.Errorf("palmdb version: %w", err)
	}
	if h.Created, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("palmdb created: %w", err)
	}
	if h.Modified, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("palmdb modified: %w", err)
	}
	if h.Backup, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("palmdb backup: %w", err)
	}
	if h.Modnum, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("palmdb modnum: %w", err)
	}
	if h.AppInfoID, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("palmdb app_info_id: %w", err)
	}
	if h.SortInfoID, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("palmdb sort_info_id: %w", err)
	}

	typ, err := r.ReadBytes(4)
	if err != nil {
		return h, fmt.Errorf("palmdb type: %w", err)
	}
	copy(h.Type[:], typ)

	creator, err := r.ReadBytes(4)
	if err != nil {
		return h, fmt.Errorf("palmdb creator: %w", err)
	}
	copy(h.Creator[:], creator)

	if h.UniqueIDSeed, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("palmdb unique_id_seed: %w", err)
	}
	if h.NextRecordListID, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("palmdb next_record_list_id: %w", err)
	}
	if h.NumRecords, err = r.ReadU16(); err != nil {
		return h, fmt.Errorf("palmdb num_records: %w", err)
	}

	if string(h.Type[:]) != "BOOK" {
		return h, fmt.Errorf("palmdb type %q: %w", h.Type, ErrBadMagic)
	}
	if string(h.Creator[:]) != "MOBI" {
		return h, fmt.Errorf("palmdb creator %q: %w", h.Creator, ErrBadMagic)
	}
	if h.NumRecords < 1 {
		return h, fmt.Errorf("palmdb num_records %d: must be >= 1", h.NumRecords)
	}

	return h, nil
}

// NameString returns the PalmDB name field as a lossy UTF-8 string,
// including any trailing NUL padding.
func (h PalmDBHeader) NameString() string {
	return string(h.Name[:])
}
