// Package excel implements the SqPack tabular data layer: header parsing,
// page loading, per-sheet language resolution, row lookup, and the
// case-folded sheet cache.
package excel

import (
	"encoding/binary"
	"io"

	"github.com/AsgardXIV/calyx-go/errs"
)

// Variant distinguishes a sheet whose rows each carry exactly one record
// from one whose rows carry multiple sub-records.
type Variant uint16

const (
	VariantDefault Variant = 1
	VariantSubrows Variant = 2
)

// Language is one of the fixed language tags a sheet may be published in,
// plus the language-agnostic sentinel None.
type Language uint8

const (
	LanguageNone Language = iota
	LanguageJapanese
	LanguageEnglish
	LanguageGerman
	LanguageFrench
	LanguageChineseSimplified
	LanguageChineseTraditional
	LanguageKorean
)

// tag returns the page-filename suffix for this language ("" for None,
// which carries no suffix).
func (l Language) tag() string {
	switch l {
	case LanguageNone:
		return ""
	case LanguageJapanese:
		return "ja"
	case LanguageEnglish:
		return "en"
	case LanguageGerman:
		return "de"
	case LanguageFrench:
		return "fr"
	case LanguageChineseSimplified:
		return "chs"
	case LanguageChineseTraditional:
		return "cht"
	case LanguageKorean:
		return "ko"
	default:
		return ""
	}
}

// ColumnDefinition is one entry of a header's column table: its on-disk
// type code and byte offset within a row.
type ColumnDefinition struct {
	Type   uint16
	Offset uint16
}

// PageDefinition names one contiguous row-id range, stored as one .exd file.
type PageDefinition struct {
	StartID  uint32
	RowCount uint32
}

// Header is the parsed contents of a sheet's .exh file.
type Header struct {
	Variant     Variant
	RowSize     uint16
	ColumnCount uint16
	Columns     []ColumnDefinition
	Pages       []PageDefinition
	Languages   []Language
	RowCount    uint32
}

var exhMagic = [4]byte{'E', 'X', 'H', 'F'}

// exhFixedHeaderLen is the size of the fixed preamble before the column,
// page, and language arrays: magic(4) + version(2) + row_size(2) +
// column_count(2) + page_count(2) + language_count(2) + unknown_flag(2) +
// variant(2) + unknown2(2) + row_count(4).
const exhFixedHeaderLen = 4 + 2 + 2 + 2 + 2 + 2 + 2 + 2 + 2 + 4

// ParseHeader parses a .exh file. All multi-byte fields are big-endian.
func ParseHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, exhFixedHeaderLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.Wrap(errs.CorruptExcel, "excel.ParseHeader", "reading fixed preamble", err)
	}
	if [4]byte(buf[0:4]) != exhMagic {
		return nil, errs.New(errs.CorruptExcel, "excel.ParseHeader", "bad magic, expected EXHF")
	}

	be := binary.BigEndian
	rowSize := be.Uint16(buf[6:8])
	columnCount := be.Uint16(buf[8:10])
	pageCount := be.Uint16(buf[10:12])
	languageCount := be.Uint16(buf[12:14])
	variant := Variant(be.Uint16(buf[16:18]))
	rowCount := be.Uint32(buf[20:24])

	h := &Header{
		Variant:     variant,
		RowSize:     rowSize,
		ColumnCount: columnCount,
		RowCount:    rowCount,
	}

	h.Columns = make([]ColumnDefinition, columnCount)
	for i := range h.Columns {
		var rec [4]byte
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, errs.Wrap(errs.CorruptExcel, "excel.ParseHeader", "reading column definition", err)
		}
		h.Columns[i] = ColumnDefinition{Type: be.Uint16(rec[0:2]), Offset: be.Uint16(rec[2:4])}
	}

	h.Pages = make([]PageDefinition, pageCount)
	for i := range h.Pages {
		var rec [8]byte
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, errs.Wrap(errs.CorruptExcel, "excel.ParseHeader", "reading page definition", err)
		}
		h.Pages[i] = PageDefinition{StartID: be.Uint32(rec[0:4]), RowCount: be.Uint32(rec[4:8])}
	}

	h.Languages = make([]Language, languageCount)
	for i := range h.Languages {
		var rec [2]byte
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, errs.Wrap(errs.CorruptExcel, "excel.ParseHeader", "reading language tag", err)
		}
		h.Languages[i] = Language(rec[1])
	}

	return h, nil
}

// HasLanguage reports whether lang appears in the header's language list.
func (h *Header) HasLanguage(lang Language) bool {
	for _, l := range h.Languages {
		if l == lang {
			return true
		}
	}
	return false
}
