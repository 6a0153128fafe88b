package excel

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/AsgardXIV/calyx-go/errs"
)

// pageIndexEntry is one (row_id, offset) record of a page's index table.
type pageIndexEntry struct {
	RowID  uint32
	Offset uint32
}

// Page is the parsed contents of one .exd file: the row-id index and the
// raw row data blob it indexes into.
type Page struct {
	StartID      uint32
	indexes      []pageIndexEntry
	rawSheetData []byte
	dataStart    uint32 // absolute on-disk position the first row preamble occupies
	// rowToIndex maps row ids whose position in indexes isn't start_id+i
	// (i.e. there is a hole somewhere before them) to their slot in
	// indexes. Populated at load so the common dense case needs no lookup.
	rowToIndex map[uint32]int
}

var exdMagic = [4]byte{'E', 'X', 'D', 'F'}

// exdFixedHeaderLen: magic(4) + version(2) + unknown(2) + index_size(4) +
// data_size(4) + padding(16).
const exdFixedHeaderLen = 4 + 2 + 2 + 4 + 4 + 16

const pageIndexEntryLen = 8

// UnmarshalSqPack parses a .exd file from r into p, satisfying the
// pack.FileType constructor contract.
func (p *Page) UnmarshalSqPack(data []byte) error {
	r := bytes.NewReader(data)

	hdr := make([]byte, exdFixedHeaderLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return errs.Wrap(errs.CorruptExcel, "excel.Page.UnmarshalSqPack", "reading fixed preamble", err)
	}
	if [4]byte(hdr[0:4]) != exdMagic {
		return errs.New(errs.CorruptExcel, "excel.Page.UnmarshalSqPack", "bad magic, expected EXDF")
	}
	be := binary.BigEndian
	indexSize := be.Uint32(hdr[8:12])
	dataSize := be.Uint32(hdr[12:16])

	indexCount := int(indexSize / pageIndexEntryLen)
	indexes := make([]pageIndexEntry, indexCount)
	for i := range indexes {
		var rec [pageIndexEntryLen]byte
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return errs.Wrap(errs.CorruptExcel, "excel.Page.UnmarshalSqPack", "reading row index entry", err)
		}
		indexes[i] = pageIndexEntry{RowID: be.Uint32(rec[0:4]), Offset: be.Uint32(rec[4:8])}
	}

	dataStart := uint32(exdFixedHeaderLen) + indexSize
	raw := make([]byte, dataSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return errs.Wrap(errs.CorruptExcel, "excel.Page.UnmarshalSqPack", "reading row data blob", err)
	}

	var startID uint32
	if len(indexes) > 0 {
		startID = indexes[0].RowID
	}

	rowToIndex := make(map[uint32]int)
	for i, e := range indexes {
		if e.RowID != startID+uint32(i) {
			rowToIndex[e.RowID] = i
		}
	}

	p.StartID = startID
	p.indexes = indexes
	p.rawSheetData = raw
	p.dataStart = dataStart
	p.rowToIndex = rowToIndex
	return nil
}

// find resolves a row id to its slot in indexes via the direct-index fast
// path, falling back to rowToIndex.
func (p *Page) find(rowID uint32) (int, bool) {
	if len(p.indexes) == 0 {
		return 0, false
	}
	if rowID >= p.StartID {
		i := int(rowID - p.StartID)
		if i < len(p.indexes) && p.indexes[i].RowID == rowID {
			return i, true
		}
	}
	i, ok := p.rowToIndex[rowID]
	return i, ok
}

// rowPreambleLen is the 6-byte header preceding each row's bytes:
// data_size(4) + row_count(2), big-endian.
const rowPreambleLen = 6

// rowAt reads the preamble at indexes[i] and returns the row view it names.
func (p *Page) rowAt(i int) (dataSize uint32, subRowCount uint16, data []byte, err error) {
	entry := p.indexes[i]
	pos := int64(entry.Offset) - int64(p.dataStart)
	if pos < 0 || pos+rowPreambleLen > int64(len(p.rawSheetData)) {
		return 0, 0, nil, errs.New(errs.InvalidPageIndex, "excel.Page.rowAt", "row offset out of range")
	}
	preamble := p.rawSheetData[pos : pos+rowPreambleLen]
	dataSize = binary.BigEndian.Uint32(preamble[0:4])
	subRowCount = binary.BigEndian.Uint16(preamble[4:6])

	rowStart := pos + rowPreambleLen
	rowEnd := rowStart + int64(dataSize)
	if rowEnd > int64(len(p.rawSheetData)) {
		return 0, 0, nil, errs.New(errs.InvalidPageIndex, "excel.Page.rowAt", "row data exceeds page buffer")
	}
	return dataSize, subRowCount, p.rawSheetData[rowStart:rowEnd], nil
}

// RowCount returns the number of row-index entries this page holds.
func (p *Page) RowCount() int { return len(p.indexes) }

// RowIDAt returns the row id stored at index slot i.
func (p *Page) RowIDAt(i int) uint32 { return p.indexes[i].RowID }
