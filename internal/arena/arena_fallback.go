//go:build !unix

package arena

import "fmt"

// Map allocates size bytes from the Go heap on platforms without anonymous
// mmap support. Release is a no-op; the GC reclaims the slice.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("arena: invalid size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}
