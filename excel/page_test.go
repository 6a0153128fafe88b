package excel

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildExd assembles a minimal .exd byte stream from (rowID, rowBytes,
// subRowCount) triples. Row offsets are computed relative to the fixed
// header + index table, matching what UnmarshalSqPack expects.
func buildExd(t *testing.T, rows []struct {
	id          uint32
	subRowCount uint16
	data        []byte
}) []byte {
	t.Helper()

	indexSize := uint32(len(rows) * pageIndexEntryLen)
	dataStart := uint32(exdFixedHeaderLen) + indexSize

	var dataBuf bytes.Buffer
	offsets := make([]uint32, len(rows))
	for i, r := range rows {
		offsets[i] = dataStart + uint32(dataBuf.Len())
		binary.Write(&dataBuf, binary.BigEndian, uint32(len(r.data)))
		binary.Write(&dataBuf, binary.BigEndian, r.subRowCount)
		dataBuf.Write(r.data)
	}

	var buf bytes.Buffer
	buf.WriteString("EXDF")
	binary.Write(&buf, binary.BigEndian, uint16(2)) // version
	binary.Write(&buf, binary.BigEndian, uint16(0)) // unknown
	binary.Write(&buf, binary.BigEndian, indexSize)
	binary.Write(&buf, binary.BigEndian, uint32(dataBuf.Len()))
	buf.Write(make([]byte, 16)) // padding

	for i, r := range rows {
		binary.Write(&buf, binary.BigEndian, r.id)
		binary.Write(&buf, binary.BigEndian, offsets[i])
	}
	buf.Write(dataBuf.Bytes())
	return buf.Bytes()
}

func TestPageDenseLookup(t *testing.T) {
	raw := buildExd(t, []struct {
		id          uint32
		subRowCount uint16
		data        []byte
	}{
		{id: 0, subRowCount: 1, data: []byte("row-zero")},
		{id: 1, subRowCount: 1, data: []byte("row-one")},
		{id: 2, subRowCount: 1, data: []byte("row-two")},
	})

	var p Page
	require.NoError(t, p.UnmarshalSqPack(raw))
	require.Equal(t, 3, p.RowCount())
	require.Equal(t, uint32(0), p.StartID)

	idx, ok := p.find(1)
	require.True(t, ok)
	_, subRows, data, err := p.rowAt(idx)
	require.NoError(t, err)
	require.Equal(t, uint16(1), subRows)
	require.Equal(t, []byte("row-one"), data)
}

func TestPageHolesLookup(t *testing.T) {
	// Two row ranges glued into one page's index: [1,3] and [10,11],
	// a common shape for a page that holds non-contiguous row ids.
	raw := buildExd(t, []struct {
		id          uint32
		subRowCount uint16
		data        []byte
	}{
		{id: 1, subRowCount: 1, data: []byte("one")},
		{id: 2, subRowCount: 1, data: []byte("two")},
		{id: 3, subRowCount: 1, data: []byte("three")},
		{id: 10, subRowCount: 1, data: []byte("ten")},
		{id: 11, subRowCount: 1, data: []byte("eleven")},
	})

	var p Page
	require.NoError(t, p.UnmarshalSqPack(raw))

	idx, ok := p.find(10)
	require.True(t, ok)
	_, _, data, err := p.rowAt(idx)
	require.NoError(t, err)
	require.Equal(t, []byte("ten"), data)

	_, ok = p.find(7)
	require.False(t, ok, "row id in the gap between ranges must miss")
}

func TestPageEmptyIndexIsNeverFound(t *testing.T) {
	raw := buildExd(t, nil)
	var p Page
	require.NoError(t, p.UnmarshalSqPack(raw))
	require.Equal(t, 0, p.RowCount())

	_, ok := p.find(0)
	require.False(t, ok)
}
