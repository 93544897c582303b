//go:build unix

// Package sysmem hands out page-aligned, GC-invisible backing regions for
// the slab allocator's super-blocks. See runtime/mmap.go for the model this
// is translated from: the Go runtime's own page heap never lets the garbage
// collector see its super-block bytes, and neither does this one.
package sysmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Region is one mmap'd, fixed-size slice of raw bytes owned outside the Go
// heap. Callers are responsible for calling Release exactly once.
type Region struct {
	data []byte
}

// Reserve maps a private, anonymous region of at least size bytes.
func Reserve(size int) (*Region, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("sysmem: mmap %d bytes: %w", size, err)
	}
	return &Region{data: data}, nil
}

// Bytes returns the region's backing slice. The slice must not outlive the
// Region; callers needing to retain bytes across a Release must copy them.
func (r *Region) Bytes() []byte { return r.data }

// Release unmaps the region. It must be called at most once.
func (r *Region) Release() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}
