package headers

import (
	"fmt"

	"github.com/htol/mobidec/book/bytereader"
)

// HeaderSet is the fully parsed set of layered headers for one MOBI/PalmDOC
// file, in the order spec.md §4.2 describes: PalmDB header, record
// directory, PalmDOC header, MOBI header, and an optional EXTH header.
type HeaderSet struct {
	PalmDB  PalmDBHeader
	Records Records
	PalmDOC PalmDOCHeader
	Mobi    MOBIHeader
	Exth    EXTHHeader
	HasExth bool
}

// Parse decodes every header layer from a complete file buffer.
func Parse(data []byte) (*HeaderSet, error) {
	r := bytereader.New(data)

	palmDB, err := parsePalmDBHeader(r)
	if err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}

	recs, err := parseRecords(r, palmDB.NumRecords)
	if err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}
	if len(recs.Entries) == 0 {
		return nil, fmt.Errorf("headers: no records")
	}
	for i := 1; i < len(recs.Entries); i++ {
		if recs.Entries[i].Offset <= recs.Entries[i-1].Offset {
			return nil, fmt.Errorf("headers: record[%d] offset %d does not follow record[%d] offset %d",
				i, recs.Entries[i].Offset, i-1, recs.Entries[i-1].Offset)
		}
	}
	record0Offset := int(recs.Entries[0].Offset)

	palmDOCOffset := recs.End()
	palmDOC, err := parsePalmDOCHeader(r, palmDOCOffset)
	if err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}

	mobiOffset := palmDOCOffset + 16
	mobi, err := parseMOBIHeader(r, mobiOffset, record0Offset)
	if err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}

	hs := &HeaderSet{
		PalmDB:  palmDB,
		Records: recs,
		PalmDOC: palmDOC,
		Mobi:    mobi,
	}

	if mobi.HasEXTH() {
		exthOffset := mobiOffset + int(mobi.HeaderLength)
		exth, err := parseEXTHHeader(r, exthOffset)
		if err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
		hs.Exth = exth
		hs.HasExth = true
	}

	return hs, nil
}

// Record0Offset returns the absolute file offset of record 0's payload,
// where the PalmDOC header, MOBI header, optional EXTH header and the book
// name all live.
func (hs *HeaderSet) Record0Offset() int {
	return int(hs.Records.Entries[0].Offset)
}
