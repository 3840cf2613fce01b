// Package pipeline runs the asynchronous asset loading machinery.
//
// Requests live in a fixed slot pool and are handed out as Handle values: a
// slot index plus a generation counter. Slots recycle in a ring; a recycled
// slot bumps its generation, so a stale handle polls to StatusInvalid instead
// of reading another request's state. Enqueue fails with ErrQueueFull only
// when the ring wraps onto a slot that is still pending or loading.
//
// Each priority level has a LIFO queue: the most recently requested asset is
// usually the one the camera needs right now. Workers drain critical first
// and fall through to lower levels, sleeping briefly when idle. A worker
// rechecks residency after dequeue, so a request duplicated while queued
// settles as a cache hit without touching the disk. All blocking I/O happens
// on worker goroutines; Enqueue and Status never touch the disk, and
// EnqueueFunc callbacks run on the settling worker.
package pipeline
