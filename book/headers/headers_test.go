package headers

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildFixture assembles a synthetic but structurally faithful PalmDB/MOBI
// file matching the values of a well known test book (Tolkien's Fellowship
// of the Ring, as distributed by calibre), used throughout this package's
// tests.
func buildFixture(t *testing.T) []byte {
	t.Helper()

	const numRecords = 292
	const record0Offset = 80 + 8*numRecords // 2416

	buf := new(bytes.Buffer)

	// PalmDB header.
	var name [32]byte
	copy(name[:], "Lord_of_the_Rings_-_Fellowship_\x00")
	buf.Write(name[:])
	binary.Write(buf, binary.BigEndian, int16(0))  // attributes
	binary.Write(buf, binary.BigEndian, int16(0))  // version
	binary.Write(buf, binary.BigEndian, uint32(1299709979)) // created
	binary.Write(buf, binary.BigEndian, uint32(1299709979)) // modified
	binary.Write(buf, binary.BigEndian, uint32(0))  // backup
	binary.Write(buf, binary.BigEndian, uint32(0))  // modnum
	binary.Write(buf, binary.BigEndian, uint32(0))  // app_info_id
	binary.Write(buf, binary.BigEndian, uint32(0))  // sort_info_id
	buf.WriteString("BOOK")
	buf.WriteString("MOBI")
	binary.Write(buf, binary.BigEndian, uint32(292)) // unique_id_seed
	binary.Write(buf, binary.BigEndian, uint32(0))   // next_record_list_id
	binary.Write(buf, binary.BigEndian, uint16(numRecords))

	if buf.Len() != palmDBHeaderSize {
		t.Fatalf("fixture: palmdb header = %d bytes, want %d", buf.Len(), palmDBHeaderSize)
	}

	// Record directory: numRecords entries, then a 2-byte trailer.
	for i := 0; i < numRecords; i++ {
		binary.Write(buf, binary.BigEndian, uint32(record0Offset+i)) // offset (stub)
		binary.Write(buf, binary.BigEndian, uint32(i))               // id
	}
	binary.Write(buf, binary.BigEndian, uint16(0)) // trailer flag

	if buf.Len() != record0Offset {
		t.Fatalf("fixture: record directory ends at %d, want %d", buf.Len(), record0Offset)
	}

	// PalmDOC header.
	binary.Write(buf, binary.BigEndian, uint16(CompressionPDOC))
	binary.Write(buf, binary.BigEndian, uint16(0))
	binary.Write(buf, binary.BigEndian, uint32(1151461))
	binary.Write(buf, binary.BigEndian, uint16(282))
	binary.Write(buf, binary.BigEndian, uint16(4096))
	binary.Write(buf, binary.BigEndian, uint16(EncryptionNone))
	binary.Write(buf, binary.BigEndian, uint16(0))

	mobiOffset := buf.Len()

	// MOBI header.
	buf.WriteString("MOBI")
	binary.Write(buf, binary.BigEndian, uint32(232)) // header_length
	binary.Write(buf, binary.BigEndian, uint32(MobiTypeMobipocketBook))
	binary.Write(buf, binary.BigEndian, uint32(TextEncodingUTF8))
	binary.Write(buf, binary.BigEndian, uint32(3428045761)) // uid
	binary.Write(buf, binary.BigEndian, uint32(6))          // gen_version

	for buf.Len() < mobiOffset+64 {
		buf.WriteByte(0)
	}
	binary.Write(buf, binary.BigEndian, uint32(284))  // first_non_book_index
	binary.Write(buf, binary.BigEndian, uint32(1360)) // name_offset
	binary.Write(buf, binary.BigEndian, uint32(42))   // name_length
	binary.Write(buf, binary.BigEndian, uint32(9))    // language_code
	binary.Write(buf, binary.BigEndian, uint32(0))    // input_language
	binary.Write(buf, binary.BigEndian, uint32(0))    // output_language
	binary.Write(buf, binary.BigEndian, uint32(6))    // format_version
	binary.Write(buf, binary.BigEndian, uint32(287))  // first_image_index
	binary.Write(buf, binary.BigEndian, uint32(0xFFFFFFFF)) // first_huff_record
	binary.Write(buf, binary.BigEndian, uint32(0))    // huff_record_count
	binary.Write(buf, binary.BigEndian, uint32(1))    // first_data_record
	binary.Write(buf, binary.BigEndian, uint32(282))  // data_record_count
	binary.Write(buf, binary.BigEndian, uint32(80))   // exth_flags

	for buf.Len() < mobiOffset+152 {
		buf.WriteByte(0)
	}
	binary.Write(buf, binary.BigEndian, uint32(0xFFFFFFFF)) // drm_offset
	binary.Write(buf, binary.BigEndian, uint32(0))          // drm_count
	binary.Write(buf, binary.BigEndian, uint32(0))          // drm_size
	binary.Write(buf, binary.BigEndian, uint32(0))          // drm_flags

	for buf.Len() < mobiOffset+178 {
		buf.WriteByte(0)
	}
	binary.Write(buf, binary.BigEndian, uint16(288)) // last_image_record

	for buf.Len() < mobiOffset+184 {
		buf.WriteByte(0)
	}
	binary.Write(buf, binary.BigEndian, uint32(290)) // fcis_record

	for buf.Len() < mobiOffset+192 {
		buf.WriteByte(0)
	}
	binary.Write(buf, binary.BigEndian, uint32(289)) // flis_record

	for buf.Len() < mobiOffset+232 {
		buf.WriteByte(0)
	}

	// EXTH header.
	buf.WriteString("EXTH")
	headerLenPos := buf.Len()
	binary.Write(buf, binary.BigEndian, uint32(0)) // header_length, patched below
	binary.Write(buf, binary.BigEndian, uint32(11))

	writeExthRecord := func(typ uint32, data []byte) {
		binary.Write(buf, binary.BigEndian, typ)
		binary.Write(buf, binary.BigEndian, uint32(8+len(data)))
		buf.Write(data)
	}
	writeExthRecord(EXTHAuthor, []byte("Tolkien"))
	writeExthRecord(EXTHAuthor, []byte("J. R. R. Tolkien"))
	writeExthRecord(EXTHPublisher, []byte("HarperCollins Publishers Ltd"))
	writeExthRecord(EXTHISBN, []byte("9780261102316"))
	writeExthRecord(EXTHPublishDate, []byte("2010-12-21T00:00:00+00:00"))
	writeExthRecord(EXTHContributor, []byte("calibre (0.7.31) [http://calibre-ebook.com]"))
	writeExthRecord(EXTHTitle, []byte("Lord of the Rings - Fellowship of the Ring"))
	writeExthRecord(201, []byte{0, 0, 0, 0})
	writeExthRecord(202, []byte{0, 0, 0, 0})
	writeExthRecord(203, []byte{0, 0, 0, 0})
	writeExthRecord(121, []byte{0, 0, 0, 0})

	out := buf.Bytes()
	binary.BigEndian.PutUint32(out[headerLenPos:], uint32(buf.Len()-(headerLenPos-4)))

	// Pad out to where the book name lives, then write it.
	for len(out) < record0Offset+1360+42 {
		out = append(out, 0)
	}
	copy(out[record0Offset+1360:], "Lord of the Rings - Fellowship of the Ring")

	return out
}

func TestParse(t *testing.T) {
	data := buildFixture(t)

	hs, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if got := hs.PalmDB.NameString(); got != "Lord_of_the_Rings_-_Fellowship_\x00" {
		t.Errorf("PalmDB name = %q", got)
	}
	if hs.PalmDB.Created != 1299709979 {
		t.Errorf("Created = %d", hs.PalmDB.Created)
	}
	if hs.PalmDB.NumRecords != 292 {
		t.Errorf("NumRecords = %d", hs.PalmDB.NumRecords)
	}

	if hs.Records.End() != hs.Record0Offset() {
		t.Errorf("Records.End() = %d, Record0Offset() = %d", hs.Records.End(), hs.Record0Offset())
	}

	if hs.PalmDOC.Compression != CompressionPDOC {
		t.Errorf("Compression = %v", hs.PalmDOC.Compression)
	}
	if hs.PalmDOC.TextLength != 1151461 {
		t.Errorf("TextLength = %d", hs.PalmDOC.TextLength)
	}
	if hs.PalmDOC.RecordCount != 282 {
		t.Errorf("RecordCount = %d", hs.PalmDOC.RecordCount)
	}

	if hs.Mobi.Identifier != 1297039945 {
		t.Errorf("Identifier = %d", hs.Mobi.Identifier)
	}
	if hs.Mobi.MobiType != MobiTypeMobipocketBook {
		t.Errorf("MobiType = %v", hs.Mobi.MobiType)
	}
	if hs.Mobi.TextEncoding != TextEncodingUTF8 {
		t.Errorf("TextEncoding = %v", hs.Mobi.TextEncoding)
	}
	if hs.Mobi.Name != "Lord of the Rings - Fellowship of the Ring" {
		t.Errorf("Name = %q", hs.Mobi.Name)
	}
	if hs.Mobi.NameLength != 42 {
		t.Errorf("NameLength = %d", hs.Mobi.NameLength)
	}
	if hs.Mobi.Language() != LanguageEnglish {
		t.Errorf("Language() = %v", hs.Mobi.Language())
	}
	if !hs.Mobi.HasEXTH() {
		t.Errorf("HasEXTH() = false, want true")
	}
	if hs.Mobi.HasDRM() {
		t.Errorf("HasDRM() = true, want false")
	}
	if hs.Mobi.LastImageRecord != 288 || hs.Mobi.FcisRecord != 290 || hs.Mobi.FlisRecord != 289 {
		t.Errorf("image/fcis/flis = %d/%d/%d", hs.Mobi.LastImageRecord, hs.Mobi.FcisRecord, hs.Mobi.FlisRecord)
	}

	if !hs.HasExth {
		t.Fatalf("HasExth = false, want true")
	}
	if author, ok := hs.Exth.RecordString(EXTHAuthor); !ok || author != "J. R. R. Tolkien" {
		t.Errorf("Author = %q, %v, want last-wins value", author, ok)
	}
	if publisher, _ := hs.Exth.RecordString(EXTHPublisher); publisher != "HarperCollins Publishers Ltd" {
		t.Errorf("Publisher = %q", publisher)
	}
	if isbn, _ := hs.Exth.RecordString(EXTHISBN); isbn != "9780261102316" {
		t.Errorf("ISBN = %q", isbn)
	}
	if title, _ := hs.Exth.RecordString(EXTHTitle); title != "Lord of the Rings - Fellowship of the Ring" {
		t.Errorf("Title = %q", title)
	}
	if hs.Exth.RecordCount != 11 {
		t.Errorf("RecordCount = %d", hs.Exth.RecordCount)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildFixture(t)
	data[60] = 'X' // corrupt the "BOOK" type field
	if _, err := Parse(data); err == nil {
		t.Fatalf("Parse() with corrupted type field: want error")
	}
}

func TestParseTruncated(t *testing.T) {
	data := buildFixture(t)
	if _, err := Parse(data[:10]); err == nil {
		t.Fatalf("Parse() on truncated buffer: want error")
	}
}

func TestCompressionString(t *testing.T) {
	cases := map[Compression]string{
		CompressionNone: "No Compression",
		CompressionPDOC: "PalmDOC Compression",
		CompressionHuff: "HUFF/CDIC Compression",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", c, got, want)
		}
	}
}
