package book

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/htol/mobidec/book/headers"
)

// buildBookFixture assembles a small, uncompressed, single-content-record
// MOBI file with an EXTH title and author, used across this package's
// tests.
func buildBookFixture(t *testing.T) []byte {
	t.Helper()

	const record0Offset = 96
	const record1Offset = 512
	const text = "Hello, World!"

	buf := new(bytes.Buffer)

	var name [32]byte
	copy(name[:], "Test_Book")
	buf.Write(name[:])
	binary.Write(buf, binary.BigEndian, int16(0))
	binary.Write(buf, binary.BigEndian, int16(0))
	binary.Write(buf, binary.BigEndian, uint32(0)) // created
	binary.Write(buf, binary.BigEndian, uint32(0)) // modified
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(0))
	buf.WriteString("BOOK")
	buf.WriteString("MOBI")
	binary.Write(buf, binary.BigEndian, uint32(2))
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint16(2)) // num_records

	// Record directory: record0 (headers), record1 (text).
	binary.Write(buf, binary.BigEndian, uint32(record0Offset))
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(record1Offset))
	binary.Write(buf, binary.BigEndian, uint32(1))
	binary.Write(buf, binary.BigEndian, uint16(0)) // trailer

	if buf.Len() != record0Offset {
		t.Fatalf("fixture: record0 starts at %d, want %d", buf.Len(), record0Offset)
	}

	// PalmDOC header.
	binary.Write(buf, binary.BigEndian, uint16(headers.CompressionNone))
	binary.Write(buf, binary.BigEndian, uint16(0))
	binary.Write(buf, binary.BigEndian, uint32(len(text)))
	binary.Write(buf, binary.BigEndian, uint16(1)) // record_count
	binary.Write(buf, binary.BigEndian, uint16(uint16(len(text))))
	binary.Write(buf, binary.BigEndian, uint16(headers.EncryptionNone))
	binary.Write(buf, binary.BigEndian, uint16(0))

	mobiOffset := buf.Len()
	buf.WriteString("MOBI")
	binary.Write(buf, binary.BigEndian, uint32(232))
	binary.Write(buf, binary.BigEndian, uint32(headers.MobiTypeMobipocketBook))
	binary.Write(buf, binary.BigEndian, uint32(headers.TextEncodingUTF8))
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(0))

	for buf.Len() < mobiOffset+64 {
		buf.WriteByte(0)
	}
	binary.Write(buf, binary.BigEndian, uint32(0))  // first_non_book_index
	binary.Write(buf, binary.BigEndian, uint32(0))  // name_offset
	binary.Write(buf, binary.BigEndian, uint32(0))  // name_length
	binary.Write(buf, binary.BigEndian, uint32(9))  // language_code (English)
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(6))
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(0)) // first_huff_record
	binary.Write(buf, binary.BigEndian, uint32(0)) // huff_record_count
	binary.Write(buf, binary.BigEndian, uint32(1)) // first_data_record
	binary.Write(buf, binary.BigEndian, uint32(1)) // data_record_count
	binary.Write(buf, binary.BigEndian, uint32(0x40)) // exth_flags

	for buf.Len() < mobiOffset+152 {
		buf.WriteByte(0)
	}
	binary.Write(buf, binary.BigEndian, uint32(0xFFFFFFFF))
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(0))
	binary.Write(buf, binary.BigEndian, uint32(0))

	for buf.Len() < mobiOffset+232 {
		buf.WriteByte(0)
	}

	buf.WriteString("EXTH")
	binary.Write(buf, binary.BigEndian, uint32(0)) // header_length, unused by the reader
	binary.Write(buf, binary.BigEndian, uint32(2)) // record_count

	writeExthRecord := func(typ uint32, data []byte) {
		binary.Write(buf, binary.BigEndian, typ)
		binary.Write(buf, binary.BigEndian, uint32(8+len(data)))
		buf.Write(data)
	}
	writeExthRecord(headers.EXTHTitle, []byte("Test Book"))
	writeExthRecord(headers.EXTHAuthor, []byte("Jane Doe"))

	out := buf.Bytes()
	for len(out) < record1Offset {
		out = append(out, 0)
	}
	out = append(out, []byte(text)...)

	return out
}

func TestBookMetadata(t *testing.T) {
	b, err := NewFromBytes(buildBookFixture(t))
	if err != nil {
		t.Fatalf("NewFromBytes() error: %v", err)
	}

	if got := b.Title(); got != "Test Book" {
		t.Errorf("Title() = %q", got)
	}
	if author, ok := b.Author(); !ok || author != "Jane Doe" {
		t.Errorf("Author() = %q, %v", author, ok)
	}
	if b.Language() != headers.LanguageEnglish {
		t.Errorf("Language() = %v", b.Language())
	}
	if b.Compression() != headers.CompressionNone {
		t.Errorf("Compression() = %v", b.Compression())
	}
	if b.Encryption() != headers.EncryptionNone {
		t.Errorf("Encryption() = %v", b.Encryption())
	}
}

func TestBookText(t *testing.T) {
	b, err := NewFromBytes(buildBookFixture(t))
	if err != nil {
		t.Fatalf("NewFromBytes() error: %v", err)
	}

	text, err := b.Text()
	if err != nil {
		t.Fatalf("Text() error: %v", err)
	}
	if text != "Hello, World!" {
		t.Errorf("Text() = %q", text)
	}
}

func TestBookRecords(t *testing.T) {
	b, err := NewFromBytes(buildBookFixture(t))
	if err != nil {
		t.Fatalf("NewFromBytes() error: %v", err)
	}

	recs, err := b.Records()
	if err != nil {
		t.Fatalf("Records() error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Records() = %d entries, want 1", len(recs))
	}
	if recs[0].Index != 1 || recs[0].Text != "Hello, World!" {
		t.Errorf("Records()[0] = %+v", recs[0])
	}
}

func TestBookExthRecordAt(t *testing.T) {
	b, err := NewFromBytes(buildBookFixture(t))
	if err != nil {
		t.Fatalf("NewFromBytes() error: %v", err)
	}

	typ, value, ok := b.ExthRecordAt(0)
	if !ok || typ != headers.EXTHTitle || string(value) != "Test Book" {
		t.Errorf("ExthRecordAt(0) = %d, %q, %v", typ, value, ok)
	}
	if _, _, ok := b.ExthRecordAt(2); ok {
		t.Errorf("ExthRecordAt(2) = ok, want not found")
	}
}

func TestBookTextStrictRejectsInvalidUTF8(t *testing.T) {
	data := buildBookFixture(t)
	// Corrupt the text record with an invalid UTF-8 byte.
	idx := bytes.LastIndex(data, []byte("Hello, World!"))
	data[idx] = 0xFF

	b, err := NewFromBytes(data)
	if err != nil {
		t.Fatalf("NewFromBytes() error: %v", err)
	}
	if _, err := b.TextStrict(); err == nil {
		t.Fatalf("TextStrict() with invalid utf-8: want error")
	}
	if text, err := b.Text(); err != nil || len(text) == 0 {
		t.Fatalf("Text() with invalid utf-8 should tolerate it, got %q, %v", text, err)
	}
}
