// Package registry tracks which assets are resident in the streaming pool.
//
// Assets live in a fixed-capacity slot arena and are referenced everywhere by
// slot index, never by pointer. Two intrusive structures thread through the
// slots: a hash table (splitmix-style finalizer over the asset id, chained by
// slot index) for lookup, and a doubly-linked LRU list for eviction order.
// An asset is reachable from the hash table iff it is reachable from the LRU
// list; both are updated inside the same critical section.
//
// The registry holds pool offsets for each LOD buffer but never frees them
// itself: Evict returns the victims' buffers and the caller releases them to
// the pool after dropping the registry lock, preserving the global lock order
// (queue, then registry, then pool — never nested in reverse).
package registry
