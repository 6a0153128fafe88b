package excel

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// buildExh assembles a minimal .exh byte stream for the given fields.
func buildExh(t *testing.T, variant Variant, rowSize uint16, cols []ColumnDefinition, pages []PageDefinition, langs []Language, rowCount uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("EXHF")
	be := func(v uint16) { binary.Write(&buf, binary.BigEndian, v) }
	be(3) // version
	be(rowSize)
	be(uint16(len(cols)))
	be(uint16(len(pages)))
	be(uint16(len(langs)))
	be(0) // unknown flag
	be(uint16(variant))
	be(0) // unknown2
	binary.Write(&buf, binary.BigEndian, rowCount)

	for _, c := range cols {
		be(c.Type)
		be(c.Offset)
	}
	for _, p := range pages {
		binary.Write(&buf, binary.BigEndian, p.StartID)
		binary.Write(&buf, binary.BigEndian, p.RowCount)
	}
	for _, l := range langs {
		buf.WriteByte(0)
		buf.WriteByte(byte(l))
	}
	return buf.Bytes()
}

func TestParseHeaderRoundTrip(t *testing.T) {
	cols := []ColumnDefinition{{Type: 0, Offset: 0}, {Type: 4, Offset: 4}}
	pages := []PageDefinition{{StartID: 0, RowCount: 100}, {StartID: 100, RowCount: 50}}
	langs := []Language{LanguageNone, LanguageEnglish}
	raw := buildExh(t, VariantDefault, 8, cols, pages, langs, 150)

	h, err := ParseHeader(bytes.NewReader(raw))
	require.NoError(t, err)

	want := &Header{
		Variant:     VariantDefault,
		RowSize:     8,
		ColumnCount: uint16(len(cols)),
		Columns:     cols,
		Pages:       pages,
		Languages:   langs,
		RowCount:    150,
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Fatalf("ParseHeader mismatch (-want +got):\n%s", diff)
	}
	require.True(t, h.HasLanguage(LanguageEnglish))
	require.False(t, h.HasLanguage(LanguageGerman))
}

func TestParseHeaderBadMagic(t *testing.T) {
	raw := buildExh(t, VariantDefault, 4, nil, nil, nil, 0)
	raw[0] = 'X'
	_, err := ParseHeader(bytes.NewReader(raw))
	require.Error(t, err)
}
