// Package huffman implements the HUFF/CDIC canonical-Huffman decompressor
// used by some MOBI books in place of plain PalmDOC compression. A single
// HUFF record carries the code table; one or more CDIC records carry a
// dictionary of phrases, themselves sometimes Huffman-coded, that codes
// resolve to.
package huffman

import (
	"errors"
	"fmt"

	"github.com/htol/mobidec/book/bytereader"
)

var (
	ErrInvalidHuffHeader   = errors.New("huffman: invalid HUFF header")
	ErrInvalidCDICHeader   = errors.New("huffman: invalid CDIC header")
	ErrCodeLenOutOfBounds  = errors.New("huffman: code length out of bounds")
	ErrBadTerm             = errors.New("huffman: short code not marked terminal")
	ErrInvalidDictionaryIndex = errors.New("huffman: invalid dictionary index")
	ErrCyclicPhrase        = errors.New("huffman: cyclic phrase reference")
)

type codeEntry struct {
	codeLen uint8
	term    bool
	maxCode uint32
}

type phrase struct {
	data    []byte
	literal bool
}

// Decoder holds a loaded HUFF code table and CDIC phrase dictionary, ready
// to expand HUFF-compressed text sections.
type Decoder struct {
	codeDict [256]codeEntry
	minCodes [33]uint32
	maxCodes [33]uint32
	phrases  []*phrase
}

// Load parses one HUFF record and zero or more CDIC records into a
// Decoder. CDIC records must be supplied in their on-disk order; the
// dictionary indices the HUFF-coded text references are assigned in that
// same order across all records.
func Load(huff []byte, cdics [][]byte) (*Decoder, error) {
	d := &Decoder{}
	for i := range d.maxCodes {
		d.maxCodes[i] = 0xFFFFFFFF
	}

	if err := d.loadHuff(huff); err != nil {
		return nil, err
	}
	for i, cdic := range cdics {
		if err := d.loadCDICRecord(cdic); err != nil {
			return nil, fmt.Errorf("cdic[%d]: %w", i, err)
		}
	}
	return d, nil
}

func (d *Decoder) loadHuff(huff []byte) error {
	r := bytereader.New(huff)

	magic, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("huff magic: %w", err)
	}
	headerLen, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("huff header_len: %w", err)
	}
	if magic != 0x48554646 || headerLen != 0x18 { // "HUFF"
		return ErrInvalidHuffHeader
	}

	cacheOffset, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("huff cache_offset: %w", err)
	}
	baseOffset, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("huff base_offset: %w", err)
	}

	if err := d.loadCodeDictionary(r, int(cacheOffset)); err != nil {
		return err
	}
	return d.loadMinMaxCodes(r, int(baseOffset))
}

func (d *Decoder) loadCodeDictionary(r *bytereader.Reader, offset int) error {
	r.Seek(offset)

	for i := range d.codeDict {
		v, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("code_dict[%d]: %w", i, err)
		}

		codeLen := uint8(v & 0x1F)
		term := v&0x80 == 0x80
		maxCode := v >> 8

		if codeLen == 0 {
			return ErrCodeLenOutOfBounds
		}
		if codeLen <= 8 && !term {
			return ErrBadTerm
		}
		shifted := (uint64(maxCode) + 1) << (32 - uint(codeLen))
		if shifted > 1<<32 {
			shifted = 1 << 32 // saturate at 0xFFFFFFFF
		}
		maxCode = uint32(shifted - 1)

		d.codeDict[i] = codeEntry{codeLen: codeLen, term: term, maxCode: maxCode}
	}

	return nil
}

func (d *Decoder) loadMinMaxCodes(r *bytereader.Reader, offset int) error {
	r.Seek(offset)

	for codeLen := 1; codeLen <= 32; codeLen++ {
		minRaw, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("min_code[%d]: %w", codeLen, err)
		}
		maxRaw, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("max_code[%d]: %w", codeLen, err)
		}
		d.minCodes[codeLen] = minRaw << uint(32-codeLen)
		shifted := (uint64(maxRaw) + 1) << uint(32-codeLen)
		if shifted > 1<<32 {
			shifted = 1 << 32 // saturate at 0xFFFFFFFF
		}
		d.maxCodes[codeLen] = uint32(shifted - 1)
	}

	return nil
}

func (d *Decoder) loadCDICRecord(cdic []byte) error {
	r := bytereader.New(cdic)

	magic, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("cdic magic: %w", err)
	}
	headerLen, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("cdic header_len: %w", err)
	}
	if magic != 0x43444943 || headerLen != 0x10 { // "CDIC"
		return ErrInvalidCDICHeader
	}

	numPhrases, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("cdic num_phrases: %w", err)
	}
	bits, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("cdic bits: %w", err)
	}

	remaining := numPhrases - uint32(len(d.phrases))
	capacity := uint32(1) << bits
	n := capacity
	if remaining < n {
		n = remaining
	}

	offsets := make([]uint16, n)
	for i := range offsets {
		off, err := r.ReadU16()
		if err != nil {
			return fmt.Errorf("cdic offset[%d]: %w", i, err)
		}
		offsets[i] = off
	}

	for i, off := range offsets {
		r.Seek(16 + int(off))
		numBytes, err := r.ReadU16()
		if err != nil {
			return fmt.Errorf("cdic phrase[%d] length: %w", i, err)
		}
		data, err := r.ReadBytes(int(numBytes & 0x7FFF))
		if err != nil {
			return fmt.Errorf("cdic phrase[%d] data: %w", i, err)
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		d.phrases = append(d.phrases, &phrase{data: buf, literal: numBytes&0x8000 != 0})
	}

	return nil
}

// Decode expands one HUFF-compressed text section.
func (d *Decoder) Decode(section []byte) ([]byte, error) {
	return d.unpack(section)
}

// unpack implements the canonical-Huffman bitstream walk: a 64-bit sliding
// register x holds up-to-64 unconsumed bits, refilled 32 bits at a time
// (or byte-at-a-time near the end of the stream) as codes are consumed.
// Each resolved code indexes a dictionary phrase; phrases that are
// themselves Huffman-coded are expanded recursively, with the slot
// momentarily cleared to nil (detecting a self-referential phrase as an
// error) and then overwritten with the decoded, literal form so repeat
// references are not re-expanded.
func (d *Decoder) unpack(data []byte) ([]byte, error) {
	bitsLeft := len(data) * 8

	r := bytereader.New(data)
	x, err := r.ReadU64()
	if err != nil {
		return nil, fmt.Errorf("huffman: section shorter than 8 bytes: %w", err)
	}
	n := 32

	var out []byte

	for {
		if n <= 0 {
			if avail := r.Len() - r.Position(); avail < 4 {
				// Fewer than 32 bits left in the section: shift in the
				// bytes that remain and zero-fill the rest of the refill.
				for i := 0; i < avail; i++ {
					b, err := r.ReadU8()
					if err != nil {
						return nil, fmt.Errorf("huffman: refill: %w", err)
					}
					x = x<<8 | uint64(b)
				}
				x <<= uint(8 * (4 - avail))
			} else {
				v, err := r.ReadU32()
				if err != nil {
					return nil, fmt.Errorf("huffman: refill: %w", err)
				}
				x = x<<32 | uint64(v)
			}
			n += 32
		}

		code := uint32(x >> uint(n))
		entry := d.codeDict[code>>24]
		codeLen := int(entry.codeLen)
		maxCode := entry.maxCode

		if !entry.term {
			found := false
			for cl := codeLen; cl <= 32; cl++ {
				if code >= d.minCodes[cl] {
					codeLen = cl
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("huffman: no min_code boundary satisfied for code 0x%08X", code)
			}
			maxCode = d.maxCodes[codeLen]
		}

		index := int((maxCode - code) >> uint(32-codeLen))
		if index < 0 || index >= len(d.phrases) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidDictionaryIndex, index)
		}

		p := d.phrases[index]
		if p == nil {
			return nil, fmt.Errorf("%w: index %d", ErrCyclicPhrase, index)
		}
		d.phrases[index] = nil

		slice := p.data
		if !p.literal {
			decoded, err := d.unpack(slice)
			if err != nil {
				return nil, err
			}
			slice = decoded
		}
		out = append(out, slice...)
		d.phrases[index] = &phrase{data: slice, literal: true}

		n -= codeLen
		bitsLeft -= codeLen
		if bitsLeft <= 0 {
			break
		}
	}

	return out, nil
}
