// Package index parses SqPack ".index"/".index2" shard files into lookup
// tables from path hashes to (dat_file, offset) locators.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/AsgardXIV/calyx-go/errs"
	"github.com/AsgardXIV/calyx-go/pathhash"
)

// blockOffsetScale is the on-disk scale factor: a stored block_offset unit
// is multiplied by this to get the real byte offset.
const blockOffsetScale = 0x80

// Entry is a resolved index record: which .dat<n> the file lives in, and
// the byte offset of its file header within that dat.
type Entry struct {
	DatIndex    uint8
	BlockOffset uint64
}

func decodeLocator(locator uint32) Entry {
	datIndex := uint8((locator >> 1) & 0x7)
	blockOffsetUnits := uint64(locator >> 4)
	return Entry{DatIndex: datIndex, BlockOffset: blockOffsetUnits * blockOffsetScale}
}

// fixed on-disk header field offsets: a segment descriptor giving where the
// hashed entry table starts and how large it is. Implementations vary in
// exactly which other fields a SqPack index header carries; only the two
// this package needs are read.
const (
	headerDataOffsetOff = 8
	headerDataSizeOff   = 12
	minHeaderSize       = 1024
)

// Shard holds the decoded contents of one (category, repo, chunk)'s index
// and/or index2 file. Either map may be nil if that file was not loaded.
type Shard struct {
	twoHash    map[uint64]Entry // key: pathhash.CombineHash(folderHash, fileHash)
	singleHash map[uint32]Entry // key: pathhash.Hash(fullPath)
}

// LoadIndex parses a ".index" (two-hash) shard from r.
func LoadIndex(r io.Reader) (*Shard, error) {
	entries, err := parseTwoHashEntries(r)
	if err != nil {
		return nil, err
	}
	return &Shard{twoHash: entries}, nil
}

// LoadIndex2 parses a ".index2" (single-hash) shard from r.
func LoadIndex2(r io.Reader) (*Shard, error) {
	entries, err := parseSingleHashEntries(r)
	if err != nil {
		return nil, err
	}
	return &Shard{singleHash: entries}, nil
}

// Merge folds other's tables into s, preferring to keep any table s already
// has. Used by a caller that loads both .index and .index2 for the same
// (category, repo, chunk) into one Shard.
func (s *Shard) Merge(other *Shard) {
	if s.twoHash == nil {
		s.twoHash = other.twoHash
	}
	if s.singleHash == nil {
		s.singleHash = other.singleHash
	}
}

// Lookup resolves path by preferring index2 (single full-path hash) if
// present, else falling back to the two-hash index.
func (s *Shard) Lookup(path string) (Entry, error) {
	if s.singleHash != nil {
		h := pathhash.Hash(path)
		if e, ok := s.singleHash[h]; ok {
			return e, nil
		}
		return Entry{}, errs.New(errs.FileNotFound, "index.Lookup", "path not found in index2: "+path)
	}
	if s.twoHash != nil {
		key := pathhash.SplitPathHash(path)
		if e, ok := s.twoHash[key]; ok {
			return e, nil
		}
		return Entry{}, errs.New(errs.FileNotFound, "index.Lookup", "path not found in index: "+path)
	}
	return Entry{}, errs.New(errs.InvalidIndex, "index.Lookup", "shard has neither index nor index2 loaded")
}

func readHeader(r io.Reader) (dataOffset, dataSize uint32, err error) {
	buf := make([]byte, minHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, 0, errs.Wrap(errs.InvalidIndex, "index.readHeader", "short read on header", err)
	}
	dataOffset = binary.LittleEndian.Uint32(buf[headerDataOffsetOff:])
	dataSize = binary.LittleEndian.Uint32(buf[headerDataSizeOff:])
	if dataOffset < minHeaderSize {
		return 0, 0, errs.New(errs.InvalidIndex, "index.readHeader", fmt.Sprintf("data_offset %d precedes header", dataOffset))
	}
	return dataOffset, dataSize, nil
}

func parseTwoHashEntries(r io.Reader) (map[uint64]Entry, error) {
	data, err := sectionAfterHeader(r)
	if err != nil {
		return nil, err
	}

	const recordLen = 16
	count := len(data) / recordLen
	out := make(map[uint64]Entry, count)
	br := bytes.NewReader(data)
	for i := 0; i < count; i++ {
		var fileHash, folderHash, locator, _pad uint32
		if err := binary.Read(br, binary.LittleEndian, &fileHash); err != nil {
			return nil, errs.Wrap(errs.InvalidIndex, "index.parseTwoHashEntries", "reading file_hash", err)
		}
		if err := binary.Read(br, binary.LittleEndian, &folderHash); err != nil {
			return nil, errs.Wrap(errs.InvalidIndex, "index.parseTwoHashEntries", "reading folder_hash", err)
		}
		if err := binary.Read(br, binary.LittleEndian, &locator); err != nil {
			return nil, errs.Wrap(errs.InvalidIndex, "index.parseTwoHashEntries", "reading data_locator", err)
		}
		if err := binary.Read(br, binary.LittleEndian, &_pad); err != nil {
			return nil, errs.Wrap(errs.InvalidIndex, "index.parseTwoHashEntries", "reading padding", err)
		}
		key := pathhash.CombineHash(folderHash, fileHash)
		out[key] = decodeLocator(locator)
	}
	return out, nil
}

func parseSingleHashEntries(r io.Reader) (map[uint32]Entry, error) {
	data, err := sectionAfterHeader(r)
	if err != nil {
		return nil, err
	}

	const recordLen = 8
	count := len(data) / recordLen
	out := make(map[uint32]Entry, count)
	br := bytes.NewReader(data)
	for i := 0; i < count; i++ {
		var fullHash, locator uint32
		if err := binary.Read(br, binary.LittleEndian, &fullHash); err != nil {
			return nil, errs.Wrap(errs.InvalidIndex, "index.parseSingleHashEntries", "reading full_hash", err)
		}
		if err := binary.Read(br, binary.LittleEndian, &locator); err != nil {
			return nil, errs.Wrap(errs.InvalidIndex, "index.parseSingleHashEntries", "reading data_locator", err)
		}
		out[fullHash] = decodeLocator(locator)
	}
	return out, nil
}

// sectionAfterHeader reads the fixed header and returns the data_size bytes
// of entry records starting at data_offset.
//
// Buffering the whole stream keeps this correct regardless of whether r is
// seekable; index shards are small enough (at most a few MiB) that this is
// the simplest correct approach.
func sectionAfterHeader(r io.Reader) ([]byte, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.IoError, "index.sectionAfterHeader", "reading shard", err)
	}
	dataOffset, dataSize, err := readHeader(bytes.NewReader(all))
	if err != nil {
		return nil, err
	}
	if int(dataOffset)+int(dataSize) > len(all) {
		return nil, errs.New(errs.InvalidIndex, "index.sectionAfterHeader", "data section exceeds file length")
	}
	return all[dataOffset : dataOffset+dataSize], nil
}
