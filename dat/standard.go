package dat

import (
	"bytes"
	"io"
	"strconv"

	"github.com/AsgardXIV/calyx-go/errs"
)

// readStandard reconstructs a "standard" kind payload: a flat list of
// blocks, concatenated in order.
func readStandard(r io.ReaderAt, tableOff, bodyBase int64, blockCount int) ([]byte, error) {
	descs, err := readBlockDescriptors(io.NewSectionReader(r, tableOff, int64(blockCount)*blockDescriptorLen), blockCount)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	for i, d := range descs {
		b, err := readBlockAt(r, bodyBase, d)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidDat, "dat.readStandard", "block "+strconv.Itoa(i), err)
		}
		out.Write(b)
	}
	return out.Bytes(), nil
}
