// Package category resolves the first two segments of a virtual SqPack path
// into a numeric category id and a repository id, and gives the fixed
// per-category chunk selection.
package category

import (
	"strconv"
	"strings"

	"github.com/AsgardXIV/calyx-go/errs"
)

// ID is the 8-bit category identifier used in shard filenames (the "HH" of
// HHCCRR00.win32.*).
type ID uint8

// Fixed name->id table. The set is closed: any segment not listed here is
// UnknownCategory.
const (
	Common ID = iota
	BgCommon
	Bg
	Cut
	Chara
	Shader
	Ui
	Sound
	Vfx
	UiScript
	Exd
	GameScript
	Music
)

// sqpack_test and debug sit outside the otherwise-contiguous run above, so
// they carry their real on-disk ids explicitly rather than continuing the
// iota sequence.
const (
	SqpackTest ID = 0x12
	Debug      ID = 0x13
)

var nameToID = map[string]ID{
	"common":     Common,
	"bgcommon":   BgCommon,
	"bg":         Bg,
	"cut":        Cut,
	"chara":      Chara,
	"shader":     Shader,
	"ui":         Ui,
	"sound":      Sound,
	"vfx":        Vfx,
	"ui_script":  UiScript,
	"exd":        Exd,
	"game_script": GameScript,
	"music":      Music,
	"sqpack_test": SqpackTest,
	"debug":      Debug,
}

// FromName looks up the first path segment. Returns UnknownCategory if the
// name is not recognised.
func FromName(name string) (ID, error) {
	id, ok := nameToID[name]
	if !ok {
		return 0, errs.New(errs.UnknownCategory, "category.FromName", "unrecognised category name: "+name)
	}
	return id, nil
}

// RepositoryID is a discriminated union: either the base repository, or an
// expansion numbered 1..255. Conversion to/from the on-disk "RR" byte is
// total.
type RepositoryID struct {
	expansion bool
	n         uint8
}

// Base is the canonical "ffxiv" repository (on-disk RR == 0).
var Base = RepositoryID{}

// Expansion returns the repository id for expansion n (1..255).
func Expansion(n uint8) RepositoryID {
	return RepositoryID{expansion: true, n: n}
}

// IsBase reports whether r identifies the base repository.
func (r RepositoryID) IsBase() bool { return !r.expansion }

// Number returns 0 for the base repository, or 1..255 for an expansion.
func (r RepositoryID) Number() uint8 {
	if !r.expansion {
		return 0
	}
	return r.n
}

// String renders the canonical name: "ffxiv" or "ex<N>".
func (r RepositoryID) String() string {
	if !r.expansion {
		return "ffxiv"
	}
	return "ex" + strconv.Itoa(int(r.n))
}

// FromRepositoryByte converts the on-disk "RR" byte (0 == base, N == expansion N).
func FromRepositoryByte(b uint8) RepositoryID {
	if b == 0 {
		return Base
	}
	return Expansion(b)
}

// ToRepositoryByte is the total inverse of FromRepositoryByte.
func (r RepositoryID) ToRepositoryByte() uint8 {
	return r.Number()
}

// ParseRepository parses a path's second segment. "ffxiv" maps to Base;
// "ex<digits>" maps to Expansion(digits); anything else either falls back to
// Base (fallback == true) or returns InvalidRepo (fallback == false).
func ParseRepository(segment string, fallback bool) (RepositoryID, error) {
	if segment == "ffxiv" {
		return Base, nil
	}
	if n, ok := parseExpansion(segment); ok {
		return Expansion(n), nil
	}
	if fallback {
		return Base, nil
	}
	return RepositoryID{}, errs.New(errs.InvalidRepo, "category.ParseRepository", "unrecognised repository: "+segment)
}

func parseExpansion(segment string) (uint8, bool) {
	const prefix = "ex"
	if !strings.HasPrefix(segment, prefix) || len(segment) <= len(prefix) {
		return 0, false
	}
	digits := segment[len(prefix):]
	v, err := strconv.Atoi(digits)
	if err != nil || v < 1 || v > 255 {
		return 0, false
	}
	return uint8(v), true
}

// ChunkTable maps a category id to the chunk id its files live under. Every
// category defaults to chunk 0; this is exposed as an overridable table
// (rather than a hidden constant) so a caller with fuller per-category
// reference data can customize entries without forking the package.
var ChunkTable = map[ID]uint8{}

// ChunkFor returns the chunk id for category id. Categories absent from
// ChunkTable (the default for all of them) resolve to chunk 0.
func ChunkFor(id ID) uint8 {
	return ChunkTable[id]
}
