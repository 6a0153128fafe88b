// Package dat parses a SqPack ".dat<n>" file header at a given block offset
// and reconstructs the fragmented, per-block-compressed payload for the
// three file-kind layouts: standard, model, texture.
package dat

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/AsgardXIV/calyx-go/errs"
)

// Kind selects which reconstruction algorithm a file's header declares.
type Kind uint32

const (
	KindEmpty    Kind = 1
	KindStandard Kind = 2
	KindModel    Kind = 3
	KindTexture  Kind = 4
)

// fileHeaderLen is the size of the fixed six-uint32 dat file header that
// precedes every kind's own table.
const fileHeaderLen = 24

type fileHeader struct {
	HeaderSize          uint32
	Kind                Kind
	RawUncompressedSize uint32
	Unknown1            uint32
	Unknown2            uint32
	BlockCount          uint32
}

func readFileHeader(r io.ReaderAt, blockOffset int64) (fileHeader, error) {
	buf := make([]byte, fileHeaderLen)
	if _, err := r.ReadAt(buf, blockOffset); err != nil {
		return fileHeader{}, errs.Wrap(errs.IoError, "dat.readFileHeader", "reading file header", err)
	}
	h := fileHeader{
		HeaderSize:          binary.LittleEndian.Uint32(buf[0:4]),
		Kind:                Kind(binary.LittleEndian.Uint32(buf[4:8])),
		RawUncompressedSize: binary.LittleEndian.Uint32(buf[8:12]),
		Unknown1:            binary.LittleEndian.Uint32(buf[12:16]),
		Unknown2:            binary.LittleEndian.Uint32(buf[16:20]),
		BlockCount:          binary.LittleEndian.Uint32(buf[20:24]),
	}
	if h.HeaderSize < fileHeaderLen {
		return fileHeader{}, errs.New(errs.InvalidDat, "dat.readFileHeader",
			fmt.Sprintf("header_size %d smaller than fixed header", h.HeaderSize))
	}
	return h, nil
}

// ReadFile reconstructs the decompressed payload for the file whose header
// lives at blockOffset within r: it reads the fixed file header, dispatches
// on its declared kind, and validates the reconstructed size against what
// the header promised.
func ReadFile(r io.ReaderAt, blockOffset int64) ([]byte, error) {
	h, err := readFileHeader(r, blockOffset)
	if err != nil {
		return nil, err
	}
	if h.Kind == KindEmpty {
		return nil, errs.New(errs.InvalidDat, "dat.ReadFile", "file header reports kind=empty")
	}

	tableOff := blockOffset + fileHeaderLen
	bodyBase := blockOffset + int64(h.HeaderSize)

	var out []byte
	switch h.Kind {
	case KindStandard:
		out, err = readStandard(r, tableOff, bodyBase, int(h.BlockCount))
	case KindModel:
		out, err = readModel(r, tableOff, bodyBase)
	case KindTexture:
		out, err = readTexture(r, tableOff, bodyBase, int(h.BlockCount))
	default:
		return nil, errs.New(errs.InvalidDat, "dat.ReadFile", fmt.Sprintf("unknown kind %d", h.Kind))
	}
	if err != nil {
		return nil, err
	}

	if uint32(len(out)) != h.RawUncompressedSize {
		return nil, errs.New(errs.InvalidDat, "dat.ReadFile",
			fmt.Sprintf("reconstructed %s, header declares %s",
				humanize.Bytes(uint64(len(out))), humanize.Bytes(uint64(h.RawUncompressedSize))))
	}
	return out, nil
}
