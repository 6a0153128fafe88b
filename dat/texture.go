package dat

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/AsgardXIV/calyx-go/errs"
)

// mipmapEntry names the blocks that make up one mip level.
type mipmapEntry struct {
	BlockIndex uint32
	BlockCount uint32
}

const mipmapEntryLen = 8

// readTexture reconstructs a "texture" kind payload: the fixed-size texture
// header region copied verbatim, followed by mipmap data rebuilt block by
// block in mipmap order.
func readTexture(r io.ReaderAt, tableOff, bodyBase int64, totalBlockCount int) ([]byte, error) {
	tr := io.NewSectionReader(r, tableOff, 8)
	var textureHeaderLen, mipmapCount uint32
	if err := binary.Read(tr, binary.LittleEndian, &textureHeaderLen); err != nil {
		return nil, errs.Wrap(errs.InvalidDat, "dat.readTexture", "reading texture_header_length", err)
	}
	if err := binary.Read(tr, binary.LittleEndian, &mipmapCount); err != nil {
		return nil, errs.Wrap(errs.InvalidDat, "dat.readTexture", "reading mipmap_count", err)
	}

	mipTableOff := tableOff + 8
	mips := make([]mipmapEntry, mipmapCount)
	mr := io.NewSectionReader(r, mipTableOff, int64(mipmapCount)*mipmapEntryLen)
	for i := range mips {
		if err := binary.Read(mr, binary.LittleEndian, &mips[i].BlockIndex); err != nil {
			return nil, errs.Wrap(errs.InvalidDat, "dat.readTexture", "reading mip block_index", err)
		}
		if err := binary.Read(mr, binary.LittleEndian, &mips[i].BlockCount); err != nil {
			return nil, errs.Wrap(errs.InvalidDat, "dat.readTexture", "reading mip block_count", err)
		}
	}

	headerOff := mipTableOff + int64(mipmapCount)*mipmapEntryLen
	textureHeader := make([]byte, textureHeaderLen)
	if _, err := r.ReadAt(textureHeader, headerOff); err != nil {
		return nil, errs.Wrap(errs.IoError, "dat.readTexture", "reading texture header region", err)
	}

	descOff := headerOff + int64(textureHeaderLen)
	descs, err := readBlockDescriptors(io.NewSectionReader(r, descOff, int64(totalBlockCount)*blockDescriptorLen), totalBlockCount)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(textureHeader)
	for _, mip := range mips {
		for i := uint32(0); i < mip.BlockCount; i++ {
			b, err := readBlockAt(r, bodyBase, descs[mip.BlockIndex+i])
			if err != nil {
				return nil, errs.Wrap(errs.InvalidDat, "dat.readTexture", "reading mip block", err)
			}
			out.Write(b)
		}
	}
	return out.Bytes(), nil
}
