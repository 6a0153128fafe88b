package pack

import (
	"strings"

	"github.com/AsgardXIV/calyx-go/category"
	"github.com/AsgardXIV/calyx-go/errs"
)

// shardKey identifies one (category, repository, chunk) triple: the unit a
// single pair of .index/.index2 files covers.
type shardKey struct {
	cat   category.ID
	repo  category.RepositoryID
	chunk uint8
}

// resolvePath splits a virtual path's first two segments into a shardKey,
// falling back to the base repository when the second segment doesn't parse
// as a repository name — common/ paths, for instance, carry no repository
// segment of their own.
func resolvePath(path string) (shardKey, error) {
	first, rest, ok := strings.Cut(path, "/")
	if !ok {
		return shardKey{}, errs.New(errs.UnknownCategory, "pack.resolvePath", "path has no segments: "+path)
	}
	catID, err := category.FromName(first)
	if err != nil {
		return shardKey{}, err
	}

	second, _, _ := strings.Cut(rest, "/")
	repo, err := category.ParseRepository(second, true)
	if err != nil {
		return shardKey{}, err
	}

	return shardKey{cat: catID, repo: repo, chunk: category.ChunkFor(catID)}, nil
}
