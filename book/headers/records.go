package headers

import (
	"fmt"
	"math/bits"

	"github.com/htol/mobidec/book/bytereader"
)

// RecordEntry is one entry of the PalmDB record directory.
type RecordEntry struct {
	Offset uint32
	ID     uint32
}

// Records is the parsed record directory: one RecordEntry per record, plus
// the two padding bytes that follow it (whose bits above bit 0, oddly, are
// also used by some readers to compute a record's trailing "extra bytes").
type Records struct {
	Entries []RecordEntry
	Flags   uint16
}

func parseRecords(r *bytereader.Reader, numRecords uint16) (Records, error) {
	var recs Records
	r.Seek(palmDBHeaderSize)

	recs.Entries = make([]RecordEntry, 0, numRecords)
	for i := uint16(0); i < numRecords; i++ {
		offset, err := r.ReadU32()
		if err != nil {
			return recs, fmt.Errorf("record[%d] offset: %w", i, err)
		}
		id, err := r.ReadU32()
		if err != nil {
			return recs, fmt.Errorf("record[%d] id: %w", i, err)
		}
		recs.Entries = append(recs.Entries, RecordEntry{Offset: offset, ID: id})
	}

	flags, err := r.ReadU16()
	if err != nil {
		return recs, fmt.Errorf("record directory trailer: %w", err)
	}
	recs.Flags = flags

	return recs, nil
}

// End returns the absolute offset immediately following the record
// directory and its trailing flag. For a well-formed PalmDB file this is
// also where record 0's payload begins.
func (recs Records) End() int {
	return palmDBHeaderSize + len(recs.Entries)*8 + 2
}

// ExtraBytes returns the number of trailing bytes in a record's raw
// payload that are multibyte-character continuation padding rather than
// text, derived from the population count of the directory's flag bits
// (mirroring the original reader's extra_bytes() computation).
func (recs Records) ExtraBytes() int {
	return 2 * bits.OnesCount16(recs.Flags&0xFFFE)
}

// RecordSpan returns the half-open byte range [start, end) of record i's
// raw payload within the file, given the total file length.
func (recs Records) RecordSpan(i int, fileLen int) (start, end int, err error) {
	if i < 0 || i >= len(recs.Entries) {
		return 0, 0, fmt.Errorf("record span: index %d out of range [0,%d)", i, len(recs.Entries))
	}
	start = int(recs.Entries[i].Offset)
	if i+1 < len(recs.Entries) {
		end = int(recs.Entries[i+1].Offset)
	} else {
		end = fileLen
	}
	if start < 0 || end < start || end > fileLen {
		return 0, 0, fmt.Errorf("record span: index %d has invalid bounds [%d,%d)", i, start, end)
	}
	return start, end, nil
}
