package index

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/AsgardXIV/calyx-go/errs"
	"github.com/AsgardXIV/calyx-go/pathhash"
	"github.com/stretchr/testify/require"
)

// buildTwoHashShard constructs a minimal valid .index byte stream with the
// given (folderHash, fileHash, datIndex, blockOffset) records.
func buildTwoHashShard(t *testing.T, recs [][4]uint64) []byte {
	t.Helper()

	const recordLen = 16
	dataOffset := uint32(minHeaderSize)
	dataSize := uint32(len(recs) * recordLen)

	buf := make([]byte, int(dataOffset)+int(dataSize))
	binary.LittleEndian.PutUint32(buf[headerDataOffsetOff:], dataOffset)
	binary.LittleEndian.PutUint32(buf[headerDataSizeOff:], dataSize)

	w := bytes.NewBuffer(buf[:dataOffset])
	for _, rec := range recs {
		folderHash, fileHash, datIndex, blockOffset := uint32(rec[0]), uint32(rec[1]), uint32(rec[2]), rec[3]
		locator := encodeLocator(uint8(datIndex), blockOffset)
		binary.Write(w, binary.LittleEndian, fileHash)
		binary.Write(w, binary.LittleEndian, folderHash)
		binary.Write(w, binary.LittleEndian, locator)
		binary.Write(w, binary.LittleEndian, uint32(0))
	}
	return w.Bytes()
}

func encodeLocator(datIndex uint8, blockOffset uint64) uint32 {
	units := uint32(blockOffset / blockOffsetScale)
	return units<<4 | uint32(datIndex)<<1
}

func TestLoadIndexAndLookup(t *testing.T) {
	folderHash, fileHash := pathhash.SplitHash("chara/equipment/e0436/model/c0101e0436_top.mdl")
	raw := buildTwoHashShard(t, [][4]uint64{
		{uint64(folderHash), uint64(fileHash), 2, 0x4000},
	})

	shard, err := LoadIndex(bytes.NewReader(raw))
	require.NoError(t, err)

	entry, err := shard.Lookup("chara/equipment/e0436/model/c0101e0436_top.mdl")
	require.NoError(t, err)
	require.Equal(t, uint8(2), entry.DatIndex)
	require.Equal(t, uint64(0x4000), entry.BlockOffset)
}

func TestLookupMiss(t *testing.T) {
	raw := buildTwoHashShard(t, nil)
	shard, err := LoadIndex(bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = shard.Lookup("does/not/exist.mdl")
	require.ErrorIs(t, err, errs.ErrFileNotFound)
}

func TestLoadIndex2AndLookup(t *testing.T) {
	const recordLen = 8
	path := "exd/root.exl"
	full := pathhash.Hash(path)

	dataOffset := uint32(minHeaderSize)
	dataSize := uint32(recordLen)
	buf := make([]byte, int(dataOffset)+int(dataSize))
	binary.LittleEndian.PutUint32(buf[headerDataOffsetOff:], dataOffset)
	binary.LittleEndian.PutUint32(buf[headerDataSizeOff:], dataSize)

	locator := encodeLocator(0, 0x2080)
	binary.LittleEndian.PutUint32(buf[dataOffset:], full)
	binary.LittleEndian.PutUint32(buf[dataOffset+4:], locator)

	shard, err := LoadIndex2(bytes.NewReader(buf))
	require.NoError(t, err)

	entry, err := shard.Lookup(path)
	require.NoError(t, err)
	require.Equal(t, uint8(0), entry.DatIndex)
	require.Equal(t, uint64(0x2080), entry.BlockOffset)
}

func TestMergePrefersIndex2(t *testing.T) {
	folderHash, fileHash := pathhash.SplitHash("a/b.txt")
	twoHashRaw := buildTwoHashShard(t, [][4]uint64{{uint64(folderHash), uint64(fileHash), 0, 0x80}})
	twoHash, err := LoadIndex(bytes.NewReader(twoHashRaw))
	require.NoError(t, err)

	single := &Shard{singleHash: map[uint32]Entry{pathhash.Hash("a/b.txt"): {DatIndex: 5, BlockOffset: 0x100}}}
	single.Merge(twoHash)

	entry, err := single.Lookup("a/b.txt")
	require.NoError(t, err)
	require.Equal(t, uint8(5), entry.DatIndex, "index2 table should take priority over the two-hash index")
}

func TestInvalidHeaderTooShort(t *testing.T) {
	_, err := LoadIndex(bytes.NewReader([]byte{1, 2, 3}))
	require.ErrorIs(t, err, errs.ErrInvalidIndex)
}
