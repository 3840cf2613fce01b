package pool

import "errors"

var (
	// ErrNoSpace indicates no free block or tail capacity could satisfy the
	// allocation. The caller should evict and retry.
	ErrNoSpace = errors.New("pool: out of memory")
)
