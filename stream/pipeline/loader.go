package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/swiss"

	"github.com/joshuapare/streamkit/internal/codec"
	"github.com/joshuapare/streamkit/internal/format"
	"github.com/joshuapare/streamkit/pkg/types"
	"github.com/joshuapare/streamkit/stream/pool"
	"github.com/joshuapare/streamkit/stream/registry"
)

// loader turns an asset id into resident pool bytes: open, parse, read,
// decompress, install. One loader is shared by all workers.
type loader struct {
	dir string
	log *slog.Logger

	pool *pool.Pool
	reg  *registry.Registry
	cnt  *counters

	// gate is held shared for the window between Alloc and Install, when a
	// pool allocation exists that the registry cannot see. Compaction takes
	// it exclusively so it never moves memory out from under a worker.
	gate sync.RWMutex

	fmu   sync.Mutex
	files *swiss.Map[types.AssetID, *cachedFile]
}

type cachedFile struct {
	f             *os.File
	lastUsedFrame uint64
}

func newLoader(dir string, log *slog.Logger, p *pool.Pool, reg *registry.Registry, cnt *counters) *loader {
	return &loader{
		dir:   dir,
		log:   log,
		pool:  p,
		reg:   reg,
		cnt:   cnt,
		files: swiss.New[types.AssetID, *cachedFile](64),
	}
}

// AssetPath returns the container path for an asset id under dir.
func AssetPath(dir string, id types.AssetID) string {
	return filepath.Join(dir, fmt.Sprintf("%016x.asset", uint64(id)))
}

// load brings one LOD of one asset into the pool and registers it.
// Returns the number of resident bytes produced.
func (l *loader) load(id types.AssetID, lod uint32, frame uint64) (int64, error) {
	f, err := l.open(id, frame)
	if err != nil {
		return 0, err
	}

	var hbuf [format.HeaderSize]byte
	if _, err := f.ReadAt(hbuf[:], 0); err != nil {
		return 0, &types.Error{Kind: types.ErrKindIO, Msg: "asset header read", Err: err}
	}
	hdr, err := format.ParseHeader(hbuf[:])
	if err != nil {
		kind := types.ErrKindCorrupt
		if errors.Is(err, format.ErrBadMagic) || errors.Is(err, format.ErrBadVersion) {
			kind = types.ErrKindFormat
		}
		return 0, &types.Error{Kind: kind, Msg: "asset header", Err: err}
	}

	lod = hdr.ClampLOD(lod)
	li := hdr.LODs[lod]
	if li.DataSize == 0 {
		return 0, &types.Error{
			Kind: types.ErrKindCorrupt,
			Msg:  fmt.Sprintf("asset %#x lod %d has no payload", uint64(id), lod),
		}
	}

	diskSize := li.CompressedSize
	if diskSize == 0 {
		diskSize = li.DataSize
	}
	raw := make([]byte, diskSize)
	if _, err := f.ReadAt(raw, int64(format.HeaderSize)+int64(li.DataOffset)); err != nil {
		return 0, &types.Error{Kind: types.ErrKindIO, Msg: "asset payload read", Err: err}
	}

	size := int64(li.DataSize)

	// From here until Install the pool allocation is invisible to the
	// registry; hold the gate so compaction waits it out.
	l.gate.RLock()
	defer l.gate.RUnlock()

	off, err := l.allocWithEviction(size)
	if err != nil {
		return 0, err
	}

	n, err := codec.Decompress(raw, l.pool.Bytes(off, size), li.Compression)
	if err != nil {
		l.pool.Free(off, size)
		return 0, &types.Error{Kind: types.ErrKindCorrupt, Msg: "asset payload decode", Err: err}
	}
	if int64(n) != size {
		// Native streams settle short on truncated tokens; the header's
		// declared size is the corruption check.
		l.pool.Free(off, size)
		return 0, &types.Error{
			Kind: types.ErrKindCorrupt,
			Msg:  fmt.Sprintf("asset %#x lod %d decoded %d of %d bytes", uint64(id), lod, n, size),
		}
	}

	if err := l.install(id, hdr.Type, lod, registry.Buffer{Off: off, Size: size}, frame); err != nil {
		l.pool.Free(off, size)
		return 0, err
	}
	return size, nil
}

// allocWithEviction claims pool space, evicting least-recently-used assets
// once on pressure before giving up.
func (l *loader) allocWithEviction(size int64) (int64, error) {
	off, err := l.pool.Alloc(size)
	if err == nil {
		return off, nil
	}
	if !errors.Is(err, pool.ErrNoSpace) {
		return 0, err
	}

	bufs, freed := l.reg.Evict(size)
	for _, b := range bufs {
		l.pool.Free(b.Off, b.Size)
	}
	l.cnt.bytesEvicted.Add(uint64(freed))

	off, err = l.pool.Alloc(size)
	if err != nil {
		return 0, &types.Error{Kind: types.ErrKindOutOfMemory, Msg: "streaming pool out of memory", Err: err}
	}
	return off, nil
}

// install registers the buffer, evicting a registry slot if the table itself
// is full. A displaced buffer for the same LOD goes back to the pool.
func (l *loader) install(id types.AssetID, typ types.AssetType, lod uint32, buf registry.Buffer, frame uint64) error {
	old, err := l.reg.Install(id, typ, lod, buf, frame)
	if errors.Is(err, registry.ErrFull) {
		bufs, freed := l.reg.Evict(1)
		for _, b := range bufs {
			l.pool.Free(b.Off, b.Size)
		}
		l.cnt.bytesEvicted.Add(uint64(freed))
		old, err = l.reg.Install(id, typ, lod, buf, frame)
	}
	if err != nil {
		return &types.Error{Kind: types.ErrKindState, Msg: "resident registry full", Err: err}
	}
	if old.Present() {
		l.pool.Free(old.Off, old.Size)
	}
	return nil
}

// resident reports whether the asset can already serve the LOD from memory,
// touching it when so.
func (l *loader) resident(id types.AssetID, lod uint32, frame uint64) bool {
	if !l.reg.Resident(id, lod) {
		return false
	}
	l.reg.Touch(id, frame)
	return true
}

// pauseLoads runs f while no worker holds a pool allocation outside the
// registry. Workers entering the staged window block until f returns.
func (l *loader) pauseLoads(f func()) {
	l.gate.Lock()
	defer l.gate.Unlock()
	f()
}

// open returns a cached file handle for the asset, opening and caching it on
// first use.
func (l *loader) open(id types.AssetID, frame uint64) (*os.File, error) {
	l.fmu.Lock()
	defer l.fmu.Unlock()

	if cf, ok := l.files.Get(id); ok {
		cf.lastUsedFrame = frame
		return cf.f, nil
	}

	f, err := os.Open(AssetPath(l.dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &types.Error{
				Kind: types.ErrKindNotFound,
				Msg:  fmt.Sprintf("asset %#x not found", uint64(id)),
				Err:  err,
			}
		}
		return nil, &types.Error{Kind: types.ErrKindIO, Msg: "asset open", Err: err}
	}
	l.files.Put(id, &cachedFile{f: f, lastUsedFrame: frame})
	return f, nil
}

// closeIdle closes handles unused for at least idleFrames frames and returns
// how many were closed.
func (l *loader) closeIdle(now, idleFrames uint64) int {
	l.fmu.Lock()
	defer l.fmu.Unlock()

	var stale []types.AssetID
	l.files.All(func(id types.AssetID, cf *cachedFile) bool {
		if now-cf.lastUsedFrame >= idleFrames {
			stale = append(stale, id)
		}
		return true
	})
	for _, id := range stale {
		if cf, ok := l.files.Get(id); ok {
			if err := cf.f.Close(); err != nil {
				l.log.Warn("asset file close", "asset", id, "error", err)
			}
			l.files.Delete(id)
		}
	}
	return len(stale)
}

// close shuts every cached handle.
func (l *loader) close() error {
	l.fmu.Lock()
	defer l.fmu.Unlock()

	var firstErr error
	l.files.All(func(_ types.AssetID, cf *cachedFile) bool {
		if err := cf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	l.files = swiss.New[types.AssetID, *cachedFile](8)
	return firstErr
}
