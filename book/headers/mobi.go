package headers

import (
	"fmt"

	"github.com/htol/mobidec/book/bytereader"
)

// MobiType identifies the kind of document the MOBI header describes.
type MobiType uint32

const (
	MobiTypeMobipocketBook MobiType = 2
	MobiTypePalmDocBook    MobiType = 3
	MobiTypeAudio          MobiType = 4
	MobiTypeNews           MobiType = 257
	MobiTypeNewsFeed       MobiType = 258
	MobiTypeNewsMagazine   MobiType = 259
	MobiTypePICS           MobiType = 513
	MobiTypeWord           MobiType = 514
	MobiTypeXLS            MobiType = 515
	MobiTypePPT            MobiType = 516
	MobiTypeText           MobiType = 517
	MobiTypeHTML           MobiType = 518
)

func (t MobiType) String() string {
	switch t {
	case MobiTypeMobipocketBook:
		return "Mobipocket Book"
	case MobiTypePalmDocBook:
		return "PalmDoc Book"
	case MobiTypeAudio:
		return "Audio"
	case MobiTypeNews:
		return "News"
	case MobiTypeNewsFeed:
		return "News Feed"
	case MobiTypeNewsMagazine:
		return "News Magazine"
	case MobiTypePICS:
		return "PICS"
	case MobiTypeWord:
		return "WORD"
	case MobiTypeXLS:
		return "XLS"
	case MobiTypePPT:
		return "PPT"
	case MobiTypeText:
		return "TEXT"
	case MobiTypeHTML:
		return "HTML"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// TextEncoding identifies the codepage used to decode record text.
type TextEncoding uint32

const (
	TextEncodingCP1252 TextEncoding = 1252
	TextEncodingUTF8   TextEncoding = 65001
)

// Language is the MOBI language code (the low byte of the language_code
// field; the high byte is an unused region/dialect code this decoder does
// not interpret).
type Language uint8

const (
	LanguageNeutral   Language = 0
	LanguageArabic    Language = 1
	LanguageBulgarian Language = 2
	LanguageCatalan   Language = 3
	LanguageChinese   Language = 4
	LanguageCzech     Language = 5
	LanguageDanish    Language = 6
	LanguageGerman    Language = 7
	LanguageGreek     Language = 8
	LanguageEnglish   Language = 9
	LanguageSpanish   Language = 10
	LanguageFinnish   Language = 11
	LanguageFrench    Language = 12
	LanguageHebrew    Language = 13
	LanguageHungarian Language = 14
	LanguageIcelandic Language = 15
	LanguageItalian   Language = 16
	LanguageJapanese  Language = 17
	LanguageKorean    Language = 18
	LanguageDutch     Language = 19
	LanguageNorwegian Language = 20
	LanguagePolish    Language = 21
	LanguagePortuguese Language = 22
	LanguageRhaetoRomanic Language = 23
	LanguageRomanian  Language = 24
	LanguageRussian   Language = 25
	LanguageSerbian   Language = 26
	LanguageSlovak    Language = 27
	LanguageAlbanian  Language = 28
	LanguageSwedish   Language = 29
	LanguageThai      Language = 30
	LanguageTurkish   Language = 31
	LanguageUrdu      Language = 32
	LanguageIndonesian Language = 33
	LanguageUkrainian Language = 34
	LanguageBelarusian Language = 35
	LanguageSlovenian Language = 36
	LanguageEstonian  Language = 37
	LanguageLatvian   Language = 38
	LanguageLithuanian Language = 39
	LanguageFarsi     Language = 41
	LanguageVietnamese Language = 42
	LanguageArmenian  Language = 43
	LanguageAzeri     Language = 44
	LanguageBasque    Language = 45
	LanguageMacedonian Language = 47
	LanguageAfrikaans Language = 54
	LanguageGeorgian  Language = 55
	LanguageFaeroese  Language = 56
	LanguageHindi     Language = 57
	LanguageMalay     Language = 62
	LanguageKazak     Language = 63
	LanguageSwahili   Language = 65
	LanguageUzbek     Language = 67
	LanguageTatar     Language = 68
	LanguageBengali   Language = 69
	LanguagePunjabi   Language = 70
	LanguageGujarati  Language = 71
	LanguageOriya     Language = 72
	LanguageTamil     Language = 73
	LanguageTelugu    Language = 74
	LanguageKannada   Language = 75
	LanguageMalayalam Language = 76
	LanguageAssamese  Language = 77
	LanguageMarathi   Language = 78
	LanguageSanskrit  Language = 79
	LanguageKonkani   Language = 87
	LanguageKyrgyz    Language = 89
	LanguageSyriac    Language = 90
	LanguageDivehi    Language = 101
	LanguageZulu      Language = 53
)

func (l Language) String() string {
	switch l {
	case LanguageNeutral:
		return "NEUTRAL"
	case LanguageArabic:
		return "ARABIC"
	case LanguageChinese:
		return "CHINESE"
	case LanguageEnglish:
		return "ENGLISH"
	case LanguageFrench:
		return "FRENCH"
	case LanguageGerman:
		return "GERMAN"
	case LanguageJapanese:
		return "JAPANESE"
	case LanguageRussian:
		return "RUSSIAN"
	case LanguageSpanish:
		return "SPANISH"
	case LanguageZulu:
		return "ZULU"
	default:
		return fmt.Sprintf("LANG(%d)", uint8(l))
	}
}

// mobiHeaderMinSize is the minimum size, in bytes, of the fixed portion of
// a MOBI header this decoder interprets. MOBI headers may be longer; the
// extra tail is opaque to this implementation.
const mobiHeaderMinSize = 232

// MOBIHeader is the variable-length header following the PalmDOC header in
// record 0, carrying document metadata, language/encoding information and
// the pointers to the HUFF/CDIC compression tables when present.
type MOBIHeader struct {
	Identifier        uint32
	HeaderLength      uint32
	MobiType          MobiType
	TextEncoding      TextEncoding
	UID               uint32
	GenVersion        uint32

	FirstNonBookIndex uint32
	NameOffset        uint32
	NameLength        uint32
	LanguageCode      uint32
	InputLanguage     uint32
	OutputLanguage    uint32
	FormatVersion     uint32
	FirstImageIndex   uint32
	FirstHuffRecord   uint32
	HuffRecordCount   uint32
	FirstDataRecord   uint32
	DataRecordCount   uint32
	ExthFlags         uint32

	DrmOffset uint32
	DrmCount  uint32
	DrmSize   uint32
	DrmFlags  uint32

	LastImageRecord uint16
	FcisRecord      uint32
	FlisRecord      uint32

	// Name is the book's full name, read from record 0's payload at
	// (record0.Offset + NameOffset), length NameLength.
	Name string
}

func parseMOBIHeader(r *bytereader.Reader, offset int, record0Offset int) (MOBIHeader, error) {
	var h MOBIHeader
	r.Seek(offset)

	identifier, err := r.ReadU32()
	if err != nil {
		return h, fmt.Errorf("mobi identifier: %w", err)
	}
	h.Identifier = identifier
	if identifier != 0x4D4F4249 { // "MOBI"
		return h, fmt.Errorf("mobi identifier 0x%08X: %w", identifier, ErrBadMagic)
	}

	if h.HeaderLength, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi header_length: %w", err)
	}
	if h.HeaderLength < mobiHeaderMinSize {
		return h, fmt.Errorf("mobi header_length %d: shorter than minimum %d", h.HeaderLength, mobiHeaderMinSize)
	}

	mobiType, err := r.ReadU32()
	if err != nil {
		return h, fmt.Errorf("mobi type: %w", err)
	}
	h.MobiType = MobiType(mobiType)

	textEncoding, err := r.ReadU32()
	if err != nil {
		return h, fmt.Errorf("mobi text_encoding: %w", err)
	}
	h.TextEncoding = TextEncoding(textEncoding)

	if h.UID, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi uid: %w", err)
	}
	if h.GenVersion, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi gen_version: %w", err)
	}

	r.Seek(offset + 64)
	if h.FirstNonBookIndex, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi first_non_book_index: %w", err)
	}
	if h.NameOffset, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi name_offset: %w", err)
	}
	if h.NameLength, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi name_length: %w", err)
	}
	if h.LanguageCode, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi language_code: %w", err)
	}
	if h.InputLanguage, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi input_language: %w", err)
	}
	if h.OutputLanguage, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi output_language: %w", err)
	}
	if h.FormatVersion, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi format_version: %w", err)
	}
	if h.FirstImageIndex, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi first_image_index: %w", err)
	}
	if h.FirstHuffRecord, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi first_huff_record: %w", err)
	}
	if h.HuffRecordCount, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi huff_record_count: %w", err)
	}
	if h.FirstDataRecord, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi first_data_record: %w", err)
	}
	if h.DataRecordCount, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi data_record_count: %w", err)
	}
	if h.ExthFlags, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi exth_flags: %w", err)
	}

	r.Seek(offset + 152)
	if h.DrmOffset, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi drm_offset: %w", err)
	}
	if h.DrmCount, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi drm_count: %w", err)
	}
	if h.DrmSize, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi drm_size: %w", err)
	}
	if h.DrmFlags, err = r.ReadU32(); err != nil {
		return h, fmt.Errorf("mobi drm_flags: %w", err)
	}

	if int(h.HeaderLength) >= 182+2 {
		r.Seek(offset + 178)
		if h.LastImageRecord, err = r.ReadU16(); err != nil {
			return h, fmt.Errorf("mobi last_image_record: %w", err)
		}
	}
	if int(h.HeaderLength) >= 184+4 {
		r.Seek(offset + 184)
		if h.FcisRecord, err = r.ReadU32(); err != nil {
			return h, fmt.Errorf("mobi fcis_record: %w", err)
		}
	}
	if int(h.HeaderLength) >= 192+4 {
		r.Seek(offset + 192)
		if h.FlisRecord, err = r.ReadU32(); err != nil {
			return h, fmt.Errorf("mobi flis_record: %w", err)
		}
	}

	if h.NameLength > 0 {
		name, err := r.ReadFixedString(record0Offset+int(h.NameOffset), int(h.NameLength))
		if err != nil {
			return h, fmt.Errorf("mobi name: %w", err)
		}
		h.Name = name
	}

	return h, nil
}

// HasEXTH reports whether an EXTH header follows this MOBI header.
func (h MOBIHeader) HasEXTH() bool {
	return h.ExthFlags&0x40 != 0
}

// HasDRM reports whether the DRM fields describe active DRM.
func (h MOBIHeader) HasDRM() bool {
	return h.DrmOffset != 0xFFFFFFFF
}

// Language returns the low byte of LanguageCode, the actual language
// identifier (the high byte is an unused region/dialect selector).
func (h MOBIHeader) Language() Language {
	return Language(h.LanguageCode & 0xFF)
}
