// Package pool implements the fixed-capacity memory arena that owns every
// byte of resident asset data.
//
// # Overview
//
// A Pool is a single contiguous arena carved out at init time. Allocation is
// best-fit over a singly-linked free list with block splitting; freeing
// pushes the block back and runs an address-adjacency coalescing pass.
// When no free block fits, the allocator bumps from the untouched tail
// region. When that is exhausted too, Alloc fails with ErrNoSpace and the
// caller is responsible for evicting resident assets and retrying.
//
// # Handles
//
// Allocations are identified by byte offset into the arena, not by pointer.
// Offsets stay meaningful across Defragment, which compacts live allocations
// toward the base and rewrites only the offset values handed back to it.
// Byte slices obtained from Bytes are views into the arena and are
// invalidated by Defragment; callers re-fetch views after a compaction pass.
//
// # Fragmentation
//
// Coalescing on free is O(n) in free-list length. This is acceptable because
// eviction batches many frees before the next allocation. Block remainders
// below the split threshold are absorbed by the allocation and become
// reclaimable again only when Defragment collapses the arena.
//
// # Thread Safety
//
// All operations take the pool's own mutex. Defragment holds it for the
// entire pass, which is how the exclusive-access requirement is enforced:
// concurrent allocators simply block until compaction finishes.
//
// Size/offset mismatches on Free are programmer errors and panic; continuing
// past them risks silent memory corruption.
package pool
