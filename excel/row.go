package excel

// Row is a non-owning view over one sheet row: its id, its sub-row count
// (>1 for a subrows-variant sheet), and its raw bytes borrowed from the
// owning page. A Row must not outlive the Sheet that produced it.
type Row struct {
	Sheet       *Sheet
	RowID       uint32
	SubRowCount uint16
	Bytes       []byte
}
