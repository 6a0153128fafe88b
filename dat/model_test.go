package dat

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadFileModelReconstructsLeaderAndSections(t *testing.T) {
	stack := []byte("STACKDATA")
	runtime := []byte("RUNTIMEDATA")
	vertex0 := []byte("VERTEXDATA0")
	index0 := []byte("INDEXDATA0")

	blockBodies := [][]byte{rawBlock(stack), rawBlock(runtime), rawBlock(vertex0), rawBlock(index0)}

	var blockIndex [modelSectionCount]uint32
	var blockCount [modelSectionCount]uint16
	blockIndex[modelSecStack], blockCount[modelSecStack] = 0, 1
	blockIndex[modelSecRuntime], blockCount[modelSecRuntime] = 1, 1
	blockIndex[modelSecVertexLod0], blockCount[modelSecVertexLod0] = 2, 1
	blockIndex[modelSecIndexLod0], blockCount[modelSecIndexLod0] = 3, 1

	var table bytes.Buffer
	binary.Write(&table, binary.LittleEndian, uint32(7)) // version
	var uncompressedSize, compressedSize [modelSectionCount]uint32
	binary.Write(&table, binary.LittleEndian, uncompressedSize)
	binary.Write(&table, binary.LittleEndian, compressedSize)
	binary.Write(&table, binary.LittleEndian, blockIndex)
	binary.Write(&table, binary.LittleEndian, blockCount)
	binary.Write(&table, binary.LittleEndian, uint16(3))  // VertexDeclarationCount
	binary.Write(&table, binary.LittleEndian, uint16(2))  // MaterialCount
	table.WriteByte(1)                                    // LodCount
	table.WriteByte(0)                                    // EnableIndexBufferStreaming
	table.WriteByte(0)                                    // EnableEdgeGeometry
	require.Equal(t, modelTableLen, table.Len())

	var descTable bytes.Buffer
	offset := uint32(0)
	for _, body := range blockBodies {
		binary.Write(&descTable, binary.LittleEndian, offset)
		binary.Write(&descTable, binary.LittleEndian, uint16(0))
		binary.Write(&descTable, binary.LittleEndian, uint16(0))
		offset += uint32(len(body))
	}

	bodyLen := len(stack) + len(runtime) + len(vertex0) + len(index0)
	rawUncompressedSize := uint32(modelLeaderLen + bodyLen)

	headerSize := uint32(fileHeaderLen + table.Len() + descTable.Len())

	var buf bytes.Buffer
	writeU32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }
	writeU32(headerSize)
	writeU32(uint32(KindModel))
	writeU32(rawUncompressedSize)
	writeU32(0)
	writeU32(0)
	writeU32(uint32(len(blockBodies)))
	buf.Write(table.Bytes())
	buf.Write(descTable.Bytes())
	for _, body := range blockBodies {
		buf.Write(body)
	}

	got, err := ReadFile(bytes.NewReader(buf.Bytes()), 0)
	require.NoError(t, err)
	require.Len(t, got, int(rawUncompressedSize))

	leader := got[:modelLeaderLen]
	require.Equal(t, uint32(7), binary.LittleEndian.Uint32(leader[0:4]))
	require.Equal(t, uint32(len(stack)), binary.LittleEndian.Uint32(leader[4:8]))
	require.Equal(t, uint32(len(runtime)), binary.LittleEndian.Uint32(leader[8:12]))
	require.Equal(t, uint16(3), binary.LittleEndian.Uint16(leader[12:14]))
	require.Equal(t, uint16(2), binary.LittleEndian.Uint16(leader[14:16]))
	require.Equal(t, uint8(1), leader[16])

	body := got[modelLeaderLen:]
	require.True(t, bytes.HasPrefix(body, stack))
	require.Contains(t, string(body), string(runtime))
	require.Contains(t, string(body), string(vertex0))
	require.Contains(t, string(body), string(index0))
}
