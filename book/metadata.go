package book

import (
	"strings"
	"time"

	"github.com/htol/mobidec/book/headers"
)

// palmEpochOffset is the number of seconds between the Palm OS epoch
// (1904-01-01) and the Unix epoch (1970-01-01).
const palmEpochOffset = 2082844800

func palmTimeToUnix(t uint32) time.Time {
	return time.Unix(int64(t)-palmEpochOffset, 0).UTC()
}

// Title returns the EXTH title record if present, falling back to the
// MOBI header's full name field.
func (b *Book) Title() string {
	if t, ok := b.hs.Exth.RecordString(headers.EXTHTitle); ok && t != "" {
		return t
	}
	return b.hs.Mobi.Name
}

// Author returns the EXTH author record, if present.
func (b *Book) Author() (string, bool) {
	return b.hs.Exth.RecordString(headers.EXTHAuthor)
}

// Publisher returns the EXTH publisher record, if present.
func (b *Book) Publisher() (string, bool) {
	return b.hs.Exth.RecordString(headers.EXTHPublisher)
}

// Description returns the EXTH description record, if present.
func (b *Book) Description() (string, bool) {
	return b.hs.Exth.RecordString(headers.EXTHDescription)
}

// ISBN returns the EXTH ISBN record, if present.
func (b *Book) ISBN() (string, bool) {
	return b.hs.Exth.RecordString(headers.EXTHISBN)
}

// PublishDate returns the EXTH publish-date record, if present.
func (b *Book) PublishDate() (string, bool) {
	return b.hs.Exth.RecordString(headers.EXTHPublishDate)
}

// Contributor returns the EXTH contributor record (the tool that produced
// the file), if present.
func (b *Book) Contributor() (string, bool) {
	return b.hs.Exth.RecordString(headers.EXTHContributor)
}

// ExthRecord returns the raw bytes of an arbitrary EXTH record type.
func (b *Book) ExthRecord(typ uint32) ([]byte, bool) {
	return b.hs.Exth.Record(typ)
}

// ExthRecordAt returns the type and raw bytes of the i-th distinct EXTH
// record, in first-seen order, for callers walking the table positionally.
func (b *Book) ExthRecordAt(i int) (typ uint32, value []byte, ok bool) {
	return b.hs.Exth.RecordAt(i)
}

// Language returns the book's language code.
func (b *Book) Language() headers.Language {
	return b.hs.Mobi.Language()
}

// MobiType returns the document kind from the MOBI header.
func (b *Book) MobiType() headers.MobiType {
	return b.hs.Mobi.MobiType
}

// Compression returns the content records' compression scheme.
func (b *Book) Compression() headers.Compression {
	return b.hs.PalmDOC.Compression
}

// Encryption returns the content records' encryption scheme.
func (b *Book) Encryption() headers.Encryption {
	return b.hs.PalmDOC.Encryption
}

// Created returns the PalmDB header's creation timestamp.
func (b *Book) Created() time.Time {
	return palmTimeToUnix(b.hs.PalmDB.Created)
}

// Modified returns the PalmDB header's last-modified timestamp.
func (b *Book) Modified() time.Time {
	return palmTimeToUnix(b.hs.PalmDB.Modified)
}

// Name returns the PalmDB container name, with trailing NUL padding
// trimmed.
func (b *Book) Name() string {
	return strings.TrimRight(b.hs.PalmDB.NameString(), "\x00")
}
