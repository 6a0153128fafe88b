package dat

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/AsgardXIV/calyx-go/errs"
)

// Model files carry 11 per-section block ranges: a Stack and a Runtime
// section, followed by Vertex/EdgeGeometry/Index sections for up to three
// LODs.
const modelSectionCount = 11

const (
	modelSecStack = iota
	modelSecRuntime
	modelSecVertexLod0
	modelSecVertexLod1
	modelSecVertexLod2
	modelSecEdgeGeometryLod0
	modelSecEdgeGeometryLod1
	modelSecEdgeGeometryLod2
	modelSecIndexLod0
	modelSecIndexLod1
	modelSecIndexLod2
)

// modelSectionOrder is the fixed concatenation order used to reconstruct
// the payload body (after the synthetic leader).
var modelSectionOrder = [modelSectionCount]int{
	modelSecStack, modelSecRuntime,
	modelSecVertexLod0, modelSecVertexLod1, modelSecVertexLod2,
	modelSecEdgeGeometryLod0, modelSecEdgeGeometryLod1, modelSecEdgeGeometryLod2,
	modelSecIndexLod0, modelSecIndexLod1, modelSecIndexLod2,
}

// modelLeaderLen is the size of the synthetic leader prepended to every
// reconstructed model payload: a fixed-field summary of the per-kind table,
// consumed verbatim by downstream model decoders (outside this core's
// concern).
const modelLeaderLen = 0x44

type modelTable struct {
	Version                     uint32
	UncompressedSize            [modelSectionCount]uint32
	CompressedSize              [modelSectionCount]uint32
	BlockIndex                  [modelSectionCount]uint32
	BlockCount                  [modelSectionCount]uint16
	VertexDeclarationCount      uint16
	MaterialCount               uint16
	LodCount                    uint8
	EnableIndexBufferStreaming  uint8
	EnableEdgeGeometry          uint8
}

func readModelTable(r io.Reader) (modelTable, error) {
	var t modelTable
	fields := []any{
		&t.Version,
		&t.UncompressedSize,
		&t.CompressedSize,
		&t.BlockIndex,
		&t.BlockCount,
		&t.VertexDeclarationCount,
		&t.MaterialCount,
		&t.LodCount,
		&t.EnableIndexBufferStreaming,
		&t.EnableEdgeGeometry,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return modelTable{}, errs.Wrap(errs.InvalidDat, "dat.readModelTable", "reading model table field", err)
		}
	}
	return t, nil
}

// modelTableLen is the fixed byte size of modelTable's on-disk encoding.
const modelTableLen = 4 + modelSectionCount*4*3 + modelSectionCount*2 + 2 + 2 + 1 + 1 + 1

func readModel(r io.ReaderAt, tableOff, bodyBase int64) ([]byte, error) {
	tableReader := io.NewSectionReader(r, tableOff, modelTableLen)
	table, err := readModelTable(tableReader)
	if err != nil {
		return nil, err
	}

	totalBlocks := 0
	for _, c := range table.BlockCount {
		totalBlocks += int(c)
	}
	descOff, err := tableReader.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidDat, "dat.readModel", "seeking to block descriptor table", err)
	}
	descs, err := readBlockDescriptors(io.NewSectionReader(r, tableOff+descOff, int64(totalBlocks)*blockDescriptorLen), totalBlocks)
	if err != nil {
		return nil, err
	}

	var sectionOffset, sectionSize [modelSectionCount]uint32
	var body bytes.Buffer
	for _, sec := range modelSectionOrder {
		sectionOffset[sec] = uint32(body.Len())
		start := int(table.BlockIndex[sec])
		count := int(table.BlockCount[sec])
		for i := 0; i < count; i++ {
			b, err := readBlockAt(r, bodyBase, descs[start+i])
			if err != nil {
				return nil, errs.Wrap(errs.InvalidDat, "dat.readModel", "reading section block", err)
			}
			body.Write(b)
		}
		sectionSize[sec] = uint32(body.Len()) - sectionOffset[sec]
	}

	leader := buildModelLeader(table, sectionOffset, sectionSize)
	out := make([]byte, 0, modelLeaderLen+body.Len())
	out = append(out, leader...)
	out = append(out, body.Bytes()...)
	return out, nil
}

func buildModelLeader(t modelTable, sectionOffset, sectionSize [modelSectionCount]uint32) []byte {
	buf := make([]byte, modelLeaderLen)
	binary.LittleEndian.PutUint32(buf[0:4], t.Version)
	binary.LittleEndian.PutUint32(buf[4:8], sectionSize[modelSecStack])
	binary.LittleEndian.PutUint32(buf[8:12], sectionSize[modelSecRuntime])
	binary.LittleEndian.PutUint16(buf[12:14], t.VertexDeclarationCount)
	binary.LittleEndian.PutUint16(buf[14:16], t.MaterialCount)
	buf[16] = t.LodCount
	buf[17] = t.EnableIndexBufferStreaming
	buf[18] = t.EnableEdgeGeometry
	// buf[19] reserved padding, left zero.

	vertexSecs := [3]int{modelSecVertexLod0, modelSecVertexLod1, modelSecVertexLod2}
	indexSecs := [3]int{modelSecIndexLod0, modelSecIndexLod1, modelSecIndexLod2}
	for lod := 0; lod < 3; lod++ {
		off := 20 + lod*16
		binary.LittleEndian.PutUint32(buf[off:off+4], sectionSize[vertexSecs[lod]])
		binary.LittleEndian.PutUint32(buf[off+4:off+8], sectionSize[indexSecs[lod]])
		binary.LittleEndian.PutUint32(buf[off+8:off+12], sectionOffset[vertexSecs[lod]])
		binary.LittleEndian.PutUint32(buf[off+12:off+16], sectionOffset[indexSecs[lod]])
	}
	return buf
}
