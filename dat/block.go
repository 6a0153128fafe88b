package dat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/flate"

	"github.com/AsgardXIV/calyx-go/errs"
)

// rawSentinel is the compressed_size value that indicates a block's body is
// stored verbatim rather than DEFLATEd.
const rawSentinel = 0x7D00 // 32000

// blockHeaderLen is the fixed size of the 16-byte header in front of every
// block body: (size, unused, compressed_size, uncompressed_size).
const blockHeaderLen = 16

// blockDescriptor is one entry of a kind's block-offset table: where the
// block's own header lives relative to the dat file's header_size-rounded
// body start, plus its compressed/uncompressed sizes.
//
// CompressedSize and UncompressedSize are parsed but never consulted:
// readBlockAt re-reads both from the block's own 16-byte in-place header,
// which is authoritative. They're kept here only so the table's record
// layout is fully accounted for.
type blockDescriptor struct {
	Offset           uint32
	CompressedSize   uint16
	UncompressedSize uint16
}

const blockDescriptorLen = 8

func readBlockDescriptors(r io.Reader, count int) ([]blockDescriptor, error) {
	out := make([]blockDescriptor, count)
	for i := range out {
		var d blockDescriptor
		if err := binary.Read(r, binary.LittleEndian, &d.Offset); err != nil {
			return nil, errs.Wrap(errs.InvalidDat, "dat.readBlockDescriptors", "reading offset", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &d.CompressedSize); err != nil {
			return nil, errs.Wrap(errs.InvalidDat, "dat.readBlockDescriptors", "reading compressed_size", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &d.UncompressedSize); err != nil {
			return nil, errs.Wrap(errs.InvalidDat, "dat.readBlockDescriptors", "reading uncompressed_size", err)
		}
		out[i] = d
	}
	return out, nil
}

// readBlockAt seeks base+desc.Offset into r, reads the block's own 16-byte
// header, and returns its decompressed (or verbatim) bytes.
func readBlockAt(r io.ReaderAt, base int64, desc blockDescriptor) ([]byte, error) {
	hdr := make([]byte, blockHeaderLen)
	if _, err := r.ReadAt(hdr, base+int64(desc.Offset)); err != nil {
		return nil, errs.Wrap(errs.IoError, "dat.readBlockAt", "reading block header", err)
	}
	compressedSize := binary.LittleEndian.Uint32(hdr[8:12])
	uncompressedSize := binary.LittleEndian.Uint32(hdr[12:16])

	bodyOff := base + int64(desc.Offset) + blockHeaderLen
	if compressedSize == rawSentinel {
		body := make([]byte, uncompressedSize)
		if _, err := r.ReadAt(body, bodyOff); err != nil {
			return nil, errs.Wrap(errs.IoError, "dat.readBlockAt", "reading raw block body", err)
		}
		return body, nil
	}

	compressed := make([]byte, compressedSize)
	if _, err := r.ReadAt(compressed, bodyOff); err != nil {
		return nil, errs.Wrap(errs.IoError, "dat.readBlockAt", "reading compressed block body", err)
	}
	return inflateBlock(compressed, uncompressedSize)
}

// inflateBlock decodes a raw-DEFLATE (no zlib wrapper) block body into
// exactly want bytes.
func inflateBlock(compressed []byte, want uint32) ([]byte, error) {
	zr := flate.NewReader(bytes.NewReader(compressed))
	defer zr.Close()

	out := make([]byte, want)
	n, err := io.ReadFull(zr, out)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, errs.Wrap(errs.DecompressFailed, "dat.inflateBlock", "flate decode failed", err)
	}
	if uint32(n) != want {
		return nil, errs.New(errs.DecompressFailed, "dat.inflateBlock",
			fmt.Sprintf("decoded %s, want %s", humanize.Bytes(uint64(n)), humanize.Bytes(uint64(want))))
	}
	return out, nil
}
