package spatial

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/streamkit/pkg/types"
)

func worldIndex() *Index {
	return New(types.Vec3{X: -1000, Y: -1000, Z: -1000}, types.Vec3{X: 1000, Y: 1000, Z: 1000})
}

func TestIndex_QueryRadiusBasic(t *testing.T) {
	x := worldIndex()

	x.Insert(0x1, types.Vec3{X: 0, Y: 0, Z: 0}, 1)
	x.Insert(0x2, types.Vec3{X: 100, Y: 0, Z: 0}, 1)
	x.Insert(0x3, types.Vec3{X: 0, Y: 500, Z: 0}, 1)

	got := x.QueryRadius(types.Vec3{}, 50, 0)
	require.Len(t, got, 1)
	assert.Equal(t, types.AssetID(0x1), got[0].ID)

	got = x.QueryRadius(types.Vec3{}, 150, 0)
	assert.Len(t, got, 2)

	got = x.QueryRadius(types.Vec3{}, 600, 0)
	assert.Len(t, got, 3)
	assert.Equal(t, 3, x.Len())
}

// TestIndex_OutOfWorldEntriesSurviveSubdivision: a placement beyond the
// world box clamps onto its surface and stays queryable after the root
// splits into octants.
func TestIndex_OutOfWorldEntriesSurviveSubdivision(t *testing.T) {
	x := worldIndex()

	x.Insert(0x1, types.Vec3{X: 5000}, 1)
	// Enough in-world entries to force a subdivision.
	for i := 2; i <= 40; i++ {
		x.Insert(types.AssetID(i), types.Vec3{X: float32(i)}, 1)
	}
	require.Equal(t, 40, x.Len())

	// The stray entry sits clamped on the +X face of the world box.
	got := x.QueryRadius(types.Vec3{X: 1000}, 2, 0)
	found := false
	for _, e := range got {
		if e.ID == 0x1 {
			found = true
		}
	}
	assert.True(t, found)
}

// TestIndex_EntryRadiusCounts: a large placement overlaps queries whose
// center is outside the placement's position.
func TestIndex_EntryRadiusCounts(t *testing.T) {
	x := worldIndex()

	x.Insert(0x1, types.Vec3{X: 200, Y: 0, Z: 0}, 150)

	assert.Len(t, x.QueryRadius(types.Vec3{}, 60, 0), 1, "query sphere reaches the placement's edge")
	assert.Empty(t, x.QueryRadius(types.Vec3{}, 40, 0))
}

// TestIndex_SubdivisionCompleteness inserts enough entries to force several
// levels of subdivision and checks queries against a brute-force scan.
func TestIndex_SubdivisionCompleteness(t *testing.T) {
	x := worldIndex()
	rng := rand.New(rand.NewSource(42))

	type placed struct {
		id  types.AssetID
		pos types.Vec3
		r   float32
	}
	all := make([]placed, 0, 2000)
	for i := 0; i < 2000; i++ {
		p := placed{
			id: types.AssetID(i + 1),
			pos: types.Vec3{
				X: rng.Float32()*2000 - 1000,
				Y: rng.Float32()*2000 - 1000,
				Z: rng.Float32()*2000 - 1000,
			},
			r: rng.Float32() * 20,
		}
		x.Insert(p.id, p.pos, p.r)
		all = append(all, p)
	}
	require.Equal(t, 2000, x.Len())

	for trial := 0; trial < 20; trial++ {
		center := types.Vec3{
			X: rng.Float32()*2000 - 1000,
			Y: rng.Float32()*2000 - 1000,
			Z: rng.Float32()*2000 - 1000,
		}
		radius := rng.Float32()*300 + 50

		want := map[types.AssetID]bool{}
		for _, p := range all {
			d := center.Sub(p.pos)
			rr := radius + p.r
			if d.X*d.X+d.Y*d.Y+d.Z*d.Z <= rr*rr {
				want[p.id] = true
			}
		}

		got := x.QueryRadius(center, radius, 0)
		gotIDs := map[types.AssetID]bool{}
		for _, e := range got {
			require.False(t, gotIDs[e.ID], "duplicate id %d in results", e.ID)
			gotIDs[e.ID] = true
		}
		assert.Equal(t, len(want), len(got), "trial %d", trial)
		for id := range want {
			assert.True(t, gotIDs[id], "trial %d missing asset %d", trial, id)
		}
	}
}

func TestIndex_MaxResults(t *testing.T) {
	x := worldIndex()
	for i := 0; i < 100; i++ {
		x.Insert(types.AssetID(i+1), types.Vec3{X: float32(i), Y: 0, Z: 0}, 1)
	}

	got := x.QueryRadius(types.Vec3{X: 50, Y: 0, Z: 0}, 1000, 10)
	assert.Len(t, got, 10)
}

// TestIndex_SpanningEntry: an entry straddling the octant split planes is
// returned exactly once.
func TestIndex_SpanningEntry(t *testing.T) {
	x := worldIndex()

	// Force subdivision around the origin.
	for i := 0; i < bucketThreshold+8; i++ {
		x.Insert(types.AssetID(i+100), types.Vec3{X: float32(i*7 - 100), Y: float32(i*3 - 50), Z: 1}, 1)
	}
	// Straddles all eight octants.
	x.Insert(0x1, types.Vec3{}, 50)

	got := x.QueryRadius(types.Vec3{}, 10, 0)
	count := 0
	for _, e := range got {
		if e.ID == 0x1 {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
