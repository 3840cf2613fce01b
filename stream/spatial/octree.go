package spatial

import (
	"sync"

	"github.com/joshuapare/streamkit/pkg/types"
)

const (
	maxDepth        = 6
	bucketThreshold = 32
)

// Entry is one indexed placement: an asset occupying a sphere in world space.
type Entry struct {
	ID     types.AssetID
	Pos    types.Vec3
	Radius float32
}

type node struct {
	min, max types.Vec3
	entries  []Entry
	children []node // nil for leaves; length 8 otherwise
}

// Index is a bounded octree over asset placements. Safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	root  node
	count int
}

// New creates an index covering the world box [min, max].
func New(min, max types.Vec3) *Index {
	return &Index{root: node{min: min, max: max}}
}

// Len returns the number of inserted entries. Entries spanning several
// octants count once.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count
}

// Insert adds a placement. A position outside the world box is clamped onto
// its surface so the entry always lands in the nearest octants and stays
// queryable after subdivision.
func (x *Index) Insert(id types.AssetID, pos types.Vec3, radius float32) {
	x.mu.Lock()
	defer x.mu.Unlock()
	pos = clampToBox(pos, x.root.min, x.root.max)
	insert(&x.root, Entry{ID: id, Pos: pos, Radius: radius}, 0)
	x.count++
}

// QueryRadius returns every entry whose sphere overlaps the query sphere,
// deduplicated by asset id. maxResults caps the result length; zero or
// negative means unlimited.
func (x *Index) QueryRadius(center types.Vec3, radius float32, maxResults int) []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []Entry
	seen := make(map[types.AssetID]struct{})
	query(&x.root, center, radius, maxResults, seen, &out)
	return out
}

func insert(n *node, e Entry, depth int) {
	if n.children == nil {
		n.entries = append(n.entries, e)
		if len(n.entries) > bucketThreshold && depth < maxDepth {
			subdivide(n, depth)
		}
		return
	}
	for i := range n.children {
		c := &n.children[i]
		if sphereOverlapsBox(e.Pos, e.Radius, c.min, c.max) {
			insert(c, e, depth+1)
		}
	}
}

// subdivide splits a leaf into eight octants and redistributes its bucket.
// An entry overlapping several octants is stored in each.
func subdivide(n *node, depth int) {
	mid := types.Vec3{
		X: (n.min.X + n.max.X) * 0.5,
		Y: (n.min.Y + n.max.Y) * 0.5,
		Z: (n.min.Z + n.max.Z) * 0.5,
	}
	n.children = make([]node, 8)
	for i := range n.children {
		c := &n.children[i]
		c.min, c.max = n.min, mid
		if i&1 != 0 {
			c.min.X, c.max.X = mid.X, n.max.X
		}
		if i&2 != 0 {
			c.min.Y, c.max.Y = mid.Y, n.max.Y
		}
		if i&4 != 0 {
			c.min.Z, c.max.Z = mid.Z, n.max.Z
		}
		c.entries = make([]Entry, 0, 16)
	}

	entries := n.entries
	n.entries = nil
	for _, e := range entries {
		insert(n, e, depth)
	}
}

func query(n *node, center types.Vec3, radius float32, maxResults int, seen map[types.AssetID]struct{}, out *[]Entry) {
	if !sphereOverlapsBox(center, radius, n.min, n.max) {
		return
	}
	if maxResults > 0 && len(*out) >= maxResults {
		return
	}

	for _, e := range n.entries {
		if maxResults > 0 && len(*out) >= maxResults {
			return
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		if spheresOverlap(center, radius, e.Pos, e.Radius) {
			seen[e.ID] = struct{}{}
			*out = append(*out, e)
		}
	}
	for i := range n.children {
		query(&n.children[i], center, radius, maxResults, seen, out)
	}
}

// sphereOverlapsBox clamps the sphere center to the box per axis and compares
// the squared distance against the squared radius.
func sphereOverlapsBox(c types.Vec3, r float32, min, max types.Vec3) bool {
	var d2 float32
	d2 += axisDist2(c.X, min.X, max.X)
	d2 += axisDist2(c.Y, min.Y, max.Y)
	d2 += axisDist2(c.Z, min.Z, max.Z)
	return d2 <= r*r
}

func clampToBox(p, min, max types.Vec3) types.Vec3 {
	return types.Vec3{
		X: clampAxis(p.X, min.X, max.X),
		Y: clampAxis(p.Y, min.Y, max.Y),
		Z: clampAxis(p.Z, min.Z, max.Z),
	}
}

func clampAxis(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func axisDist2(v, lo, hi float32) float32 {
	if v < lo {
		d := lo - v
		return d * d
	}
	if v > hi {
		d := v - hi
		return d * d
	}
	return 0
}

func spheresOverlap(ca types.Vec3, ra float32, cb types.Vec3, rb float32) bool {
	d := ca.Sub(cb)
	r := ra + rb
	return d.X*d.X+d.Y*d.Y+d.Z*d.Z <= r*r
}
