package types

// Stats is a point-in-time snapshot of streaming telemetry. Counters are
// maintained as independent atomics; a snapshot is eventually accurate but
// carries no cross-field consistency guarantee.
type Stats struct {
	TotalRequests     uint64 `json:"total_requests"`
	CompletedRequests uint64 `json:"completed_requests"`
	FailedRequests    uint64 `json:"failed_requests"`
	CacheHits         uint64 `json:"cache_hits"`
	CacheMisses       uint64 `json:"cache_misses"`
	BytesLoaded       uint64 `json:"bytes_loaded"`
	BytesEvicted      uint64 `json:"bytes_evicted"`

	CurrentMemoryUsage uint64 `json:"current_memory_usage"`
	PeakMemoryUsage    uint64 `json:"peak_memory_usage"`
}

// MemoryStats describes the state of the streaming memory pool.
type MemoryStats struct {
	// Used is the number of bytes held by live allocations.
	Used uint64 `json:"used"`
	// Available is the total reusable space: the untouched tail plus free-list bytes.
	Available uint64 `json:"available"`
	// FreeBlocks is the current free-list length.
	FreeBlocks int `json:"free_blocks"`
	// Fragmentation is the fraction of Available that sits in free-list
	// fragments rather than the contiguous tail. 0 means fully compact.
	Fragmentation float32 `json:"fragmentation"`
}
