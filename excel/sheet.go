package excel

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/AsgardXIV/calyx-go/errs"
	"github.com/AsgardXIV/calyx-go/pack"
)

// Sheet is one loaded .exh header plus its lazily-fetched .exd pages, fixed
// to a single resolved language for its lifetime.
type Sheet struct {
	name     string
	header   *Header
	language Language
	pack     *pack.Pack
	pages    []*Page // same length/order as header.Pages; nil entries are unloaded
}

// newSheet loads name's .exh header and resolves the language to read pages
// in: preferred if the header publishes it, else LanguageNone, else
// LanguageNotFound if neither is available.
func newSheet(p *pack.Pack, name string, preferred Language) (*Sheet, error) {
	headerPath := fmt.Sprintf("exd/%s.exh", strings.ToLower(name))
	data, err := p.GetFileContents(headerPath)
	if err != nil {
		return nil, err
	}
	header, err := ParseHeader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	lang := preferred
	switch {
	case header.HasLanguage(preferred):
		// keep preferred
	case header.HasLanguage(LanguageNone):
		lang = LanguageNone
	default:
		return nil, errs.New(errs.LanguageNotFound, "excel.newSheet", "sheet "+name+" publishes no acceptable language")
	}

	return &Sheet{
		name:     name,
		header:   header,
		language: lang,
		pack:     p,
		pages:    make([]*Page, len(header.Pages)),
	}, nil
}

// Name returns the sheet's name as it was requested from the Module.
func (s *Sheet) Name() string { return s.name }

// Language returns the language pages are being read in.
func (s *Sheet) Language() Language { return s.language }

// pagePath builds the on-disk path for page i's .exd file: exd/<name>_<start_id>[_<lang>].exd,
// with no language suffix for LanguageNone.
func (s *Sheet) pagePath(i int) string {
	def := s.header.Pages[i]
	name := strings.ToLower(s.name)
	if tag := s.language.tag(); tag != "" {
		return fmt.Sprintf("exd/%s_%d_%s.exd", name, def.StartID, tag)
	}
	return fmt.Sprintf("exd/%s_%d.exd", name, def.StartID)
}

// pageAt returns page i, loading it on first access. Pages are never
// evicted once loaded.
func (s *Sheet) pageAt(i int) (*Page, error) {
	if s.pages[i] != nil {
		return s.pages[i], nil
	}
	page, err := pack.GetTypedFile[Page, *Page](s.pack, s.pagePath(i))
	if err != nil {
		return nil, err
	}
	s.pages[i] = page
	return page, nil
}

// findPageIndex binary-searches header.Pages for the page whose range
// [start_id, start_id+row_count) contains rowID.
func (s *Sheet) findPageIndex(rowID uint32) (int, bool) {
	pages := s.header.Pages
	lo, hi := 0, len(pages)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		def := pages[mid]
		switch {
		case rowID < def.StartID:
			hi = mid - 1
		case rowID >= def.StartID+def.RowCount:
			lo = mid + 1
		default:
			return mid, true
		}
	}
	return 0, false
}

// GetRow resolves a row id to its page and returns a view over its bytes.
// Returns errs.RowNotFound if rowID falls in no page's range, or if the
// page's index has no entry for it (a "hole" in an otherwise contiguous
// range).
func (s *Sheet) GetRow(rowID uint32) (*Row, error) {
	pi, ok := s.findPageIndex(rowID)
	if !ok {
		return nil, errs.New(errs.RowNotFound, "excel.Sheet.GetRow", fmt.Sprintf("row %d in no page range", rowID))
	}
	page, err := s.pageAt(pi)
	if err != nil {
		return nil, err
	}
	idx, ok := page.find(rowID)
	if !ok {
		return nil, errs.New(errs.RowNotFound, "excel.Sheet.GetRow", fmt.Sprintf("row %d not in page index", rowID))
	}
	_, subRowCount, data, err := page.rowAt(idx)
	if err != nil {
		return nil, err
	}
	return &Row{Sheet: s, RowID: rowID, SubRowCount: subRowCount, Bytes: data}, nil
}

// GetRowAtIndex walks pages in header order to find the i-th row overall,
// loading pages on demand.
func (s *Sheet) GetRowAtIndex(i int) (*Row, error) {
	if i < 0 {
		return nil, errs.New(errs.RowNotFound, "excel.Sheet.GetRowAtIndex", "negative index")
	}
	for pi := range s.header.Pages {
		page, err := s.pageAt(pi)
		if err != nil {
			return nil, err
		}
		if i < page.RowCount() {
			rowID := page.RowIDAt(i)
			_, subRowCount, data, err := page.rowAt(i)
			if err != nil {
				return nil, err
			}
			return &Row{Sheet: s, RowID: rowID, SubRowCount: subRowCount, Bytes: data}, nil
		}
		i -= page.RowCount()
	}
	return nil, errs.New(errs.RowNotFound, "excel.Sheet.GetRowAtIndex", "index beyond row count")
}

// RowCount sums every page definition's row_count; this must equal the
// number of rows RowIterator yields.
func (s *Sheet) RowCount() int {
	total := 0
	for _, def := range s.header.Pages {
		total += int(def.RowCount)
	}
	return total
}

// RowIterator walks every row of a Sheet in page order, then index order
// within each page.
type RowIterator struct {
	sheet   *Sheet
	pageIdx int
	rowIdx  int
}

// RowIterator returns a fresh iterator positioned before the first row.
func (s *Sheet) RowIterator() *RowIterator {
	return &RowIterator{sheet: s}
}

// Next advances the iterator and returns the next row, or ok=false once
// every page has been exhausted.
func (it *RowIterator) Next() (row *Row, ok bool, err error) {
	for it.pageIdx < len(it.sheet.header.Pages) {
		page, err := it.sheet.pageAt(it.pageIdx)
		if err != nil {
			return nil, false, err
		}
		if it.rowIdx >= page.RowCount() {
			it.pageIdx++
			it.rowIdx = 0
			continue
		}
		rowID := page.RowIDAt(it.rowIdx)
		_, subRowCount, data, err := page.rowAt(it.rowIdx)
		if err != nil {
			return nil, false, err
		}
		it.rowIdx++
		return &Row{Sheet: it.sheet, RowID: rowID, SubRowCount: subRowCount, Bytes: data}, true, nil
	}
	return nil, false, nil
}
