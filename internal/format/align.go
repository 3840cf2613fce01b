package format

// PoolAlignment is the allocation granularity of the streaming memory pool.
const PoolAlignment = 16

const alignMask = PoolAlignment - 1

// Align16 returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n int64) int64 {
	return (n + alignMask) &^ alignMask
}
