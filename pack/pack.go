// Package pack ties pathhash, category, index, and dat together into the
// single entry point a caller uses to pull file contents out of an
// installed SqPack tree: Pack.GetFileContents and the generic
// GetTypedFile constructor contract.
package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/AsgardXIV/calyx-go/dat"
	"github.com/AsgardXIV/calyx-go/errs"
	"github.com/AsgardXIV/calyx-go/index"
)

// datHandleCacheSize bounds how many open .dat<n> file handles Pack keeps
// around at once. A running client touches at most a handful of dats in any
// given session; this is generous headroom, not a tuned figure.
const datHandleCacheSize = 32

// datKey identifies one open .dat<n> file.
type datKey struct {
	shardKey
	datIndex uint8
}

// Pack is a read-only handle onto one installed SqPack tree. The zero value
// is not usable; construct with New.
type Pack struct {
	root           string
	platformSuffix string

	shardMu sync.RWMutex
	shards  map[shardKey]*index.Shard

	dats    *lru.Cache[datKey, *os.File]
	loadSF  singleflight.Group // collapses concurrent first-opens of the same shard or dat
}

// New opens a Pack rooted at opts.Root. It does no I/O beyond validating the
// platform; index shards and dat handles are opened lazily on first use.
func New(opts Options) (*Pack, error) {
	suffix, err := opts.Platform.suffix()
	if err != nil {
		return nil, err
	}
	if opts.Root == "" {
		return nil, errs.New(errs.IoError, "pack.New", "Root must be set")
	}

	dats, err := lru.NewWithEvict[datKey, *os.File](datHandleCacheSize, func(_ datKey, f *os.File) {
		f.Close()
	})
	if err != nil {
		return nil, errs.Wrap(errs.IoError, "pack.New", "constructing dat handle cache", err)
	}

	return &Pack{
		root:           opts.Root,
		platformSuffix: suffix,
		shards:         make(map[shardKey]*index.Shard),
		dats:           dats,
	}, nil
}

// Close releases every cached .dat<n> handle.
func (p *Pack) Close() error {
	p.dats.Purge()
	return nil
}

// GetFileContents resolves path to its SqPack location and returns the fully
// reconstructed, decompressed file bytes.
func (p *Pack) GetFileContents(path string) ([]byte, error) {
	key, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	shard, err := p.shardFor(key)
	if err != nil {
		return nil, err
	}

	entry, err := shard.Lookup(path)
	if err != nil {
		return nil, err
	}

	f, err := p.datFor(key, entry.DatIndex)
	if err != nil {
		return nil, err
	}

	data, err := dat.ReadFile(f, int64(entry.BlockOffset))
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Pack) shardFor(key shardKey) (*index.Shard, error) {
	p.shardMu.RLock()
	shard, ok := p.shards[key]
	p.shardMu.RUnlock()
	if ok {
		return shard, nil
	}

	v, err, _ := p.loadSF.Do(fmt.Sprintf("shard:%v", key), func() (any, error) {
		p.shardMu.RLock()
		if shard, ok := p.shards[key]; ok {
			p.shardMu.RUnlock()
			return shard, nil
		}
		p.shardMu.RUnlock()

		shard, err := p.loadShard(key)
		if err != nil {
			return nil, err
		}

		p.shardMu.Lock()
		p.shards[key] = shard
		p.shardMu.Unlock()
		return shard, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*index.Shard), nil
}

func (p *Pack) loadShard(key shardKey) (*index.Shard, error) {
	merged := &index.Shard{}
	loadedAny := false

	if f, err := os.Open(p.shardFilePath(key, "index")); err == nil {
		defer f.Close()
		s, err := index.LoadIndex(f)
		if err != nil {
			return nil, err
		}
		merged.Merge(s)
		loadedAny = true
	}

	if f, err := os.Open(p.shardFilePath(key, "index2")); err == nil {
		defer f.Close()
		s, err := index.LoadIndex2(f)
		if err != nil {
			return nil, err
		}
		merged.Merge(s)
		loadedAny = true
	}

	if !loadedAny {
		return nil, errs.New(errs.InvalidIndex, "pack.loadShard", fmt.Sprintf("no index or index2 present for %+v", key))
	}
	return merged, nil
}

func (p *Pack) datFor(key shardKey, datIndex uint8) (*os.File, error) {
	dk := datKey{shardKey: key, datIndex: datIndex}
	if f, ok := p.dats.Get(dk); ok {
		return f, nil
	}

	v, err, _ := p.loadSF.Do(fmt.Sprintf("dat:%v", dk), func() (any, error) {
		if f, ok := p.dats.Get(dk); ok {
			return f, nil
		}
		f, err := os.Open(p.shardFilePath(key, fmt.Sprintf("dat%d", datIndex)))
		if err != nil {
			return nil, errs.Wrap(errs.IoError, "pack.datFor", "opening dat file", err)
		}
		p.dats.Add(dk, f)
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*os.File), nil
}

// shardFilePath builds the on-disk path for one shard file: e.g.
// sqpack/ffxiv/0a0000.win32.index2.
func (p *Pack) shardFilePath(key shardKey, ext string) string {
	name := fmt.Sprintf("%02x%02x%02x.%s.%s", key.cat, key.repo.ToRepositoryByte(), key.chunk, p.platformSuffix, ext)
	return filepath.Join(p.root, "sqpack", key.repo.String(), name)
}
