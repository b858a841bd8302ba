// Package book ties the header parser, LZ77 decompressor and Huffman
// decoder together behind a single read-only facade over one MOBI/PalmDOC
// file.
package book

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/htol/mobidec/book/headers"
	"github.com/htol/mobidec/book/huffman"
	"github.com/htol/mobidec/book/lz77"
)

// ErrEncrypted is returned by text-decoding operations when the book's
// PalmDOC header reports DRM-encrypted content records; this decoder does
// not implement decryption.
var ErrEncrypted = errors.New("book: content records are encrypted")

// ErrUnsupportedEncoding is returned in strict mode when the MOBI header's
// text_encoding field is neither 1252 (CP1252) nor 65001 (UTF-8).
var ErrUnsupportedEncoding = errors.New("book: unsupported text encoding")

// Record is one decoded content record, returned by Records/RecordsStrict.
// Index is the record's position in the PalmDB record directory; Text holds
// the decompressed, encoding-decoded text. Only records within the book's
// text range are returned; images, HUFF/CDIC tables, FLIS/FCIS and other
// non-text records are not included.
type Record struct {
	Index int
	Text  string
}

// Book is a parsed, read-only view over one MOBI/PalmDOC file. It owns the
// complete file buffer and the parsed header set, and lazily builds a
// Huffman decoder the first time HUFF/CDIC-compressed text is requested.
type Book struct {
	data []byte
	hs   *headers.HeaderSet
	huff *huffman.Decoder
}

// NewFromBytes parses a complete file already read into memory. The
// returned Book retains data; callers should not mutate it afterward.
func NewFromBytes(data []byte) (*Book, error) {
	hs, err := headers.Parse(data)
	if err != nil {
		return nil, err
	}
	return &Book{data: data, hs: hs}, nil
}

// NewFromReader reads r to completion and parses the result.
func NewFromReader(r io.Reader) (*Book, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("book: read: %w", err)
	}
	return NewFromBytes(data)
}

// Open reads and parses a MOBI/PalmDOC file from disk.
func Open(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("book: open %s: %w", path, err)
	}
	return NewFromBytes(data)
}

// Headers returns the full parsed header set, for callers that need
// lower-level access than the metadata facade provides.
func (b *Book) Headers() *headers.HeaderSet {
	return b.hs
}

func (b *Book) rawRecord(i int) ([]byte, error) {
	start, end, err := b.hs.Records.RecordSpan(i, len(b.data))
	if err != nil {
		return nil, err
	}
	return b.data[start:end], nil
}

func (b *Book) huffmanDecoder() (*huffman.Decoder, error) {
	if b.huff != nil {
		return b.huff, nil
	}
	if b.hs.Mobi.HuffRecordCount == 0 {
		return nil, errors.New("book: no HUFF/CDIC tables present")
	}

	first := int(b.hs.Mobi.FirstHuffRecord)
	huffRec, err := b.rawRecord(first)
	if err != nil {
		return nil, fmt.Errorf("book: HUFF record: %w", err)
	}

	cdics := make([][]byte, 0, b.hs.Mobi.HuffRecordCount-1)
	for i := 1; i < int(b.hs.Mobi.HuffRecordCount); i++ {
		rec, err := b.rawRecord(first + i)
		if err != nil {
			return nil, fmt.Errorf("book: CDIC record %d: %w", i, err)
		}
		cdics = append(cdics, rec)
	}

	d, err := huffman.Load(huffRec, cdics)
	if err != nil {
		return nil, fmt.Errorf("book: %w", err)
	}
	b.huff = d
	return d, nil
}

// RawText concatenates and decompresses every content record without
// applying any text-encoding conversion.
func (b *Book) RawText() ([]byte, error) {
	if b.hs.PalmDOC.Encryption != headers.EncryptionNone {
		return nil, ErrEncrypted
	}

	extra := b.hs.Records.ExtraBytes()
	count := int(b.hs.PalmDOC.RecordCount)

	out := make([]byte, 0, int(b.hs.PalmDOC.TextLength))
	for i := 1; i <= count; i++ {
		raw, err := b.rawRecord(i)
		if err != nil {
			return nil, fmt.Errorf("book: content record %d: %w", i, err)
		}
		if extra > 0 && extra <= len(raw) {
			raw = raw[:len(raw)-extra]
		}

		dec, err := b.decompressRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("book: content record %d: %w", i, err)
		}
		out = append(out, dec...)
	}

	if uint32(len(out)) > b.hs.PalmDOC.TextLength {
		out = out[:b.hs.PalmDOC.TextLength]
	}
	return out, nil
}

// Records decodes each text content record individually, tolerating
// decompression and encoding errors per record (a record that fails to
// decode yields an empty Text rather than aborting the whole scan), per
// spec.md §7's "decompression of one record does not propagate to others ...
// in lossy mode."
func (b *Book) Records() ([]Record, error) {
	return b.records(false)
}

// RecordsStrict decodes each text content record individually, stopping at
// the first decompression or encoding error.
func (b *Book) RecordsStrict() ([]Record, error) {
	return b.records(true)
}

func (b *Book) records(strict bool) ([]Record, error) {
	if b.hs.PalmDOC.Encryption != headers.EncryptionNone {
		return nil, ErrEncrypted
	}

	extra := b.hs.Records.ExtraBytes()
	count := int(b.hs.PalmDOC.RecordCount)

	out := make([]Record, 0, count)
	for i := 1; i <= count; i++ {
		raw, err := b.rawRecord(i)
		if err != nil {
			if strict {
				return nil, fmt.Errorf("book: content record %d: %w", i, err)
			}
			out = append(out, Record{Index: i})
			continue
		}
		if extra > 0 {
			if extra > len(raw) {
				raw = nil
			} else {
				raw = raw[:len(raw)-extra]
			}
		}

		decompressed, err := b.decompressRecord(raw)
		if err != nil {
			if strict {
				return nil, fmt.Errorf("book: content record %d: %w", i, err)
			}
			out = append(out, Record{Index: i})
			continue
		}

		text, err := b.decodeText(decompressed, strict)
		if err != nil {
			return nil, fmt.Errorf("book: content record %d: %w", i, err)
		}
		out = append(out, Record{Index: i, Text: text})
	}
	return out, nil
}

func (b *Book) decompressRecord(raw []byte) ([]byte, error) {
	switch b.hs.PalmDOC.Compression {
	case headers.CompressionNone:
		return raw, nil
	case headers.CompressionPDOC:
		return lz77.Decompress(raw), nil
	case headers.CompressionHuff:
		d, err := b.huffmanDecoder()
		if err != nil {
			return nil, err
		}
		return d.Decode(raw)
	default:
		return nil, fmt.Errorf("book: unknown compression %v", b.hs.PalmDOC.Compression)
	}
}

func (b *Book) decodeText(raw []byte, strict bool) (string, error) {
	switch b.hs.Mobi.TextEncoding {
	case headers.TextEncodingCP1252:
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			if strict {
				return "", fmt.Errorf("book: cp1252 decode: %w", err)
			}
			return string(raw), nil
		}
		return string(decoded), nil
	case headers.TextEncodingUTF8:
		if !utf8.Valid(raw) {
			if strict {
				return "", fmt.Errorf("book: invalid utf-8 text")
			}
			return strings.ToValidUTF8(string(raw), "�"), nil
		}
		return string(raw), nil
	default:
		if strict {
			return "", fmt.Errorf("%w: %d", ErrUnsupportedEncoding, b.hs.Mobi.TextEncoding)
		}
		return strings.ToValidUTF8(string(raw), "�"), nil
	}
}

// Text decodes the book's full text, tolerating encoding errors by
// substituting the replacement character (or, for CP1252, falling back to
// raw bytes) rather than failing.
func (b *Book) Text() (string, error) {
	raw, err := b.RawText()
	if err != nil {
		return "", err
	}
	return b.decodeText(raw, false)
}

// TextStrict decodes the book's full text, failing on any byte sequence
// that is not valid for the declared text encoding.
func (b *Book) TextStrict() (string, error) {
	raw, err := b.RawText()
	if err != nil {
		return "", err
	}
	return b.decodeText(raw, true)
}
