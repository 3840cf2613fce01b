// Package spatial indexes asset placements for proximity queries.
//
// The index is a loose octree over world space: leaves hold entry buckets and
// subdivide lazily once a bucket overflows, down to a fixed maximum depth. An
// entry is a sphere (position plus radius) and is stored in every child node
// it overlaps, so radius queries deduplicate by asset id before returning.
//
// Streaming rings query the index every frame, so reads take a shared lock
// and never allocate per node.
package spatial
