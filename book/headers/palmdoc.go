package headers

import (
	"fmt"

	"github.com/htol/mobidec/book/bytereader"
)

// Compression identifies the text compression scheme used by the book's
// content records.
type Compression uint16

const (
	CompressionNone  Compression = 1
	CompressionPDOC  Compression = 2
	CompressionHuff  Compression = 17480
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "No Compression"
	case CompressionPDOC:
		return "PalmDOC Compression"
	case CompressionHuff:
		return "HUFF/CDIC Compression"
	default:
		return "No Compression"
	}
}

// Encryption identifies the DRM scheme, if any, applied to content records.
type Encryption uint16

const (
	EncryptionNone    Encryption = 0
	EncryptionOldMobi Encryption = 1
	EncryptionMobi    Encryption = 2
)

func (e Encryption) String() string {
	switch e {
	case EncryptionNone:
		return "No Encryption"
	case EncryptionOldMobi:
		return "Old MobiPocket Encryption"
	case EncryptionMobi:
		return "MobiPocket Encryption"
	default:
		return "No Encryption"
	}
}

// PalmDOCHeader is the 16-byte header at the start of record 0, describing
// the compression scheme and the size of the decompressed text.
type PalmDOCHeader struct {
	Compression Compression
	Unused0     uint16
	TextLength  uint32
	RecordCount uint16
	RecordSize  uint16
	Encryption  Encryption
	Unused1     uint16
}

func parsePalmDOCHeader(r *bytereader.Reader, offset int) (PalmDOCHeader, error) {
	var h PalmDOCHeader
	r.Seek(offset)

	compression, err := r.ReadU16()
	if err != nil {
		return h, fmt.Errorf("palmdoc compression: %w", err)
	}
	h.Compression = Compression(compression)

	if h.Unused0, err = r.ReadU16(); err != nil {
		return h, fmt.Errorf("palmdoc unused0: %w", err)
	}
	if h.TextLength, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("palmdoc text_length: %w", err)
	}
	if h.RecordCount, err = r.ReadU16(); err != nil {
		return h, fmt.Errorf("palmdoc record_count: %w", err)
	}
	if h.RecordSize, err = r.ReadU16(); err != nil {
		return h, fmt.Errorf("palmdoc record_size: %w", err)
	}

	encryption, err := r.ReadU16()
	if err != nil {
		return h, fmt.Errorf("palmdoc encryption: %w", err)
	}
	h.Encryption = Encryption(encryption)

	if h.Unused1, err = r.ReadU16(); err != nil {
		return h, fmt.Errorf("palmdoc unused1: %w", err)
	}

	return h, nil
}
