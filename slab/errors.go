package slab

import "errors"

// Error kinds. Exhausted is internal (a full SuperBlock is always
// recovered by fetching another and is never returned past SizeClassBin);
// ForeignPointer, InvalidSize and OutOfMemory are surfaced.
var (
	// ErrExhausted marks a SuperBlock with no free bins. SizeClassBin
	// handles this internally by acquiring another SuperBlock; it never
	// escapes the slab package.
	ErrExhausted = errors.New("slab: superblock exhausted")

	// ErrForeignPointer means a pointer was not owned by the SuperBlock
	// asked to free it. FreeLocal/FreeForeign/MainPool.freeForeign return
	// this only when the address is not owned by any live SuperBlock or
	// large-block record, never for a pointer this allocator actually
	// produced.
	ErrForeignPointer = errors.New("slab: pointer not owned by this allocator")

	// ErrInvalidSize means a request does not fit any defined size class
	// through the path it was routed to, a caller bug.
	ErrInvalidSize = errors.New("slab: invalid allocation size")

	// ErrOutOfMemory means the system allocator refused to back a fresh
	// SuperBlock or large allocation.
	ErrOutOfMemory = errors.New("slab: out of memory")
)
