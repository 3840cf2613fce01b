package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/streamkit/pkg/types"
	"github.com/joshuapare/streamkit/stream/pool"
)

func install(t *testing.T, r *Registry, id types.AssetID, lod uint32, off, size int64, frame uint64) {
	t.Helper()
	old, err := r.Install(id, types.TypeTexture, lod, Buffer{Off: off, Size: size}, frame)
	require.NoError(t, err)
	require.False(t, old.Present(), "unexpected displaced buffer for asset %#x", id)
}

func TestRegistry_InstallAndData(t *testing.T) {
	r := New(16)

	install(t, r, 0x1, 0, 0, 4096, 1)

	buf, ok := r.Data(0x1, 0, 2)
	require.True(t, ok)
	assert.Equal(t, int64(0), buf.Off)
	assert.Equal(t, int64(4096), buf.Size)

	_, ok = r.Data(0x2, 0, 2)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

// TestRegistry_ServesFinerLOD: a request for a coarse LOD is served by a
// finer resident level, but never the other way around.
func TestRegistry_ServesFinerLOD(t *testing.T) {
	r := New(16)

	install(t, r, 0x1, 1, 0, 4096, 1)

	assert.True(t, r.Resident(0x1, 1), "exact level")
	assert.True(t, r.Resident(0x1, 3), "coarser request, finer data")
	assert.False(t, r.Resident(0x1, 0), "finer request cannot be served by coarser data")

	buf, ok := r.Data(0x1, 3, 2)
	require.True(t, ok)
	assert.Equal(t, int64(0), buf.Off)
}

func TestRegistry_InstallReplacesLOD(t *testing.T) {
	r := New(16)

	install(t, r, 0x1, 0, 0, 4096, 1)
	old, err := r.Install(0x1, types.TypeTexture, 0, Buffer{Off: 8192, Size: 2048}, 2)
	require.NoError(t, err)
	require.True(t, old.Present())
	assert.Equal(t, int64(0), old.Off)
	assert.Equal(t, int64(4096), old.Size)

	buf, ok := r.Data(0x1, 0, 3)
	require.True(t, ok)
	assert.Equal(t, int64(8192), buf.Off)
	assert.Equal(t, 1, r.Len())
}

// TestRegistry_EvictLRUOrder: the least recently touched asset goes first.
func TestRegistry_EvictLRUOrder(t *testing.T) {
	r := New(16)

	install(t, r, 0xA, 0, 0, 1024, 1)
	install(t, r, 0xB, 0, 1024, 1024, 2)
	install(t, r, 0xC, 0, 2048, 1024, 3)

	// Touch A so B becomes the oldest.
	require.True(t, r.Touch(0xA, 4))

	bufs, freed := r.Evict(1)
	require.Len(t, bufs, 1)
	assert.Equal(t, int64(1024), freed)
	assert.Equal(t, int64(1024), bufs[0].Off, "victim must be B")

	assert.False(t, r.Resident(0xB, 0))
	assert.True(t, r.Resident(0xA, 0))
	assert.True(t, r.Resident(0xC, 0))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_EvictSkipsPinned(t *testing.T) {
	r := New(16)

	install(t, r, 0xA, 0, 0, 1024, 1)
	install(t, r, 0xB, 0, 1024, 1024, 2)

	require.True(t, r.Pin(0xA))

	bufs, freed := r.Evict(1 << 20)
	assert.Equal(t, int64(1024), freed)
	require.Len(t, bufs, 1)
	assert.Equal(t, int64(1024), bufs[0].Off, "pinned A must survive")
	assert.True(t, r.Resident(0xA, 0))

	require.True(t, r.Unpin(0xA))
	_, freed = r.Evict(1 << 20)
	assert.Equal(t, int64(1024), freed)
	assert.Zero(t, r.Len())
}

func TestRegistry_UnpinWithoutPinPanics(t *testing.T) {
	r := New(16)
	install(t, r, 0xA, 0, 0, 1024, 1)
	assert.Panics(t, func() { r.Unpin(0xA) })
}

func TestRegistry_EvictGathersAllLODs(t *testing.T) {
	r := New(16)

	install(t, r, 0xA, 0, 0, 4096, 1)
	_, err := r.Install(0xA, types.TypeTexture, 2, Buffer{Off: 4096, Size: 1024}, 2)
	require.NoError(t, err)

	bufs, freed := r.Evict(1)
	assert.Len(t, bufs, 2)
	assert.Equal(t, int64(5120), freed)
}

func TestRegistry_FullThenRecycle(t *testing.T) {
	r := New(2)

	install(t, r, 0x1, 0, 0, 16, 1)
	install(t, r, 0x2, 0, 16, 16, 2)

	_, err := r.Install(0x3, types.TypeMesh, 0, Buffer{Off: 32, Size: 16}, 3)
	assert.ErrorIs(t, err, ErrFull)

	_, freed := r.Evict(1)
	assert.Equal(t, int64(16), freed)

	install(t, r, 0x3, 0, 32, 16, 4)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_SwitchLOD(t *testing.T) {
	r := New(16)

	install(t, r, 0x1, 0, 0, 4096, 1)
	_, err := r.Install(0x1, types.TypeTexture, 2, Buffer{Off: 4096, Size: 1024}, 2)
	require.NoError(t, err)

	lod, ok := r.CurrentLOD(0x1)
	require.True(t, ok)
	assert.Equal(t, uint32(2), lod)

	assert.True(t, r.SwitchLOD(0x1, 0), "LOD 0 is resident")
	lod, _ = r.CurrentLOD(0x1)
	assert.Equal(t, uint32(0), lod)

	assert.False(t, r.SwitchLOD(0x1, 3), "LOD 3 was never loaded")
	assert.False(t, r.SwitchLOD(0x9, 0), "unknown asset")
}

func TestRegistry_Snapshot(t *testing.T) {
	r := New(16)

	install(t, r, 0xA, 0, 0, 1024, 1)
	install(t, r, 0xB, 1, 1024, 2048, 2)
	require.True(t, r.Touch(0xA, 3))

	infos := r.Snapshot()
	require.Len(t, infos, 2)
	// LRU order: B first, then the re-touched A.
	assert.Equal(t, types.AssetID(0xB), infos[0].ID)
	assert.Equal(t, types.AssetID(0xA), infos[1].ID)
	assert.Equal(t, uint64(3), infos[1].LastAccessFrame)
	assert.Equal(t, int64(1024), infos[1].ResidentBytes)
	assert.Equal(t, int64(3072), r.ResidentBytes())
}

// TestRegistry_HashChurn hammers insert/evict across ids that collide into
// the same buckets and checks lookup stays consistent with membership.
func TestRegistry_HashChurn(t *testing.T) {
	r := New(64)

	for round := 0; round < 8; round++ {
		for i := 0; i < 64; i++ {
			id := types.AssetID(uint64(round)<<32 | uint64(i))
			_, err := r.Install(id, types.TypeAudio, 0, Buffer{Off: int64(i) * 16, Size: 16}, uint64(i))
			require.NoError(t, err)
		}
		require.Equal(t, 64, r.Len())
		for i := 0; i < 64; i++ {
			id := types.AssetID(uint64(round)<<32 | uint64(i))
			require.True(t, r.Resident(id, 0), "round %d asset %d", round, i)
		}
		_, _ = r.Evict(1 << 62)
		require.Zero(t, r.Len())
	}
}

// TestRegistry_Compact verifies pool compaction rewrites the registry's
// buffer offsets and the data stays reachable.
func TestRegistry_Compact(t *testing.T) {
	p, err := pool.New(1 << 20)
	require.NoError(t, err)
	defer p.Close()

	r := New(16)

	offs := make([]int64, 4)
	for i := range offs {
		offs[i], err = p.Alloc(4096)
		require.NoError(t, err)
		b := p.Bytes(offs[i], 4096)
		for j := range b {
			b[j] = byte(i + 1)
		}
	}

	// Keep assets 1 and 3; free the buffers of 0 and 2 to punch holes.
	install(t, r, 0xB1, 0, offs[1], 4096, 1)
	install(t, r, 0xB3, 0, offs[3], 4096, 2)
	p.Free(offs[0], 4096)
	p.Free(offs[2], 4096)

	moved := r.Compact(p)
	assert.Positive(t, moved)

	buf1, ok := r.Data(0xB1, 0, 3)
	require.True(t, ok)
	buf3, ok := r.Data(0xB3, 0, 3)
	require.True(t, ok)

	assert.Equal(t, int64(0), buf1.Off)
	assert.Equal(t, int64(4096), buf3.Off)
	assert.Equal(t, byte(2), p.Bytes(buf1.Off, 4096)[0])
	assert.Equal(t, byte(4), p.Bytes(buf3.Off, 4096)[4095])

	st := p.Stats()
	assert.Zero(t, st.FreeBlocks)
}
