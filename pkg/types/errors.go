package types

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindFormat      ErrKind = iota // malformed headers/signatures (bad 'HMAS' magic)
	ErrKindCorrupt                    // structural corruption (bad sizes/offsets, decode under-run)
	ErrKindNotFound                   // asset file missing
	ErrKindIO                         // short read or other I/O failure
	ErrKindOutOfMemory                // pool allocation failed after eviction
	ErrKindQueueFull                  // request slot pool exhausted
	ErrKindState                      // invalid operation for current state (e.g. shut down)
)

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so sentinel comparisons via errors.Is work for
// wrapped instances carrying the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels commonly returned by implementations.
var (
	// ErrOutOfMemory indicates pool allocation failed even after eviction.
	// Surfaced as a failed request, never a crash.
	ErrOutOfMemory = &Error{Kind: ErrKindOutOfMemory, Msg: "streaming pool out of memory"}
	// ErrAssetNotFound indicates the asset file is missing on disk.
	ErrAssetNotFound = &Error{Kind: ErrKindNotFound, Msg: "asset not found"}
	// ErrCorruptAsset indicates a bad magic/checksum or a decompression under-run.
	ErrCorruptAsset = &Error{Kind: ErrKindCorrupt, Msg: "corrupt asset"}
	// ErrIO indicates a short read or other I/O failure while loading.
	ErrIO = &Error{Kind: ErrKindIO, Msg: "asset i/o failure"}
	// ErrQueueFull indicates the preallocated request-slot pool is exhausted.
	// Soft failure: the caller should back off and re-enqueue.
	ErrQueueFull = &Error{Kind: ErrKindQueueFull, Msg: "request queue full"}
	// ErrShutdown indicates an operation was attempted after Shutdown.
	ErrShutdown = &Error{Kind: ErrKindState, Msg: "streaming system shut down"}
)
