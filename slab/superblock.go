package slab

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/dailypips/parallel-programming-mipt-2014/internal/sysmem"
)

// SuperBlock manages K fixed-size bins inside one 4 KiB region. Allocate
// and FreeLocal are single-owner-thread operations and are deliberately
// NOT synchronized, the same contract runtime/mfixalloc.go documents for
// fixalloc: "the caller is responsible for locking around FixAlloc
// calls." Only the deferred-free path (FreeForeign/DrainDeferred) takes
// sb.mu, mirroring how rarely that path is exercised relative to the
// owner thread's fast path.
//
// The K*classSize bins are the whole of the backing region; there is no
// header carved out of the 4 KiB for SuperBlock's own bookkeeping. That
// bookkeeping (freeHead, freeCount, the deferred slice) lives in this
// ordinary Go-heap-allocated struct instead, the same separation
// runtime/mheap.go keeps between an mspan's Go-managed metadata and the
// page memory it describes.
type SuperBlock struct {
	classSize int
	k         int
	base      uintptr
	region    *sysmem.Region

	// freeHead is the address of the first free bin; each free bin's
	// first machine word holds the address of the next free bin, 0 for
	// end of list. This is runtime/mfixalloc.go's mlink idea, specialized
	// to one size class instead of one fixalloc.
	freeHead  uintptr
	freeCount int

	mu       sync.Mutex
	deferred []uintptr
}

// newSuperBlockForClass reserves a fresh 4 KiB region and threads a
// freelist through all of its classSize bins.
func newSuperBlockForClass(classSize int) (*SuperBlock, error) {
	region, err := sysmem.Reserve(SuperBlockBytes)
	if err != nil {
		return nil, fmt.Errorf("slab: reserve superblock: %w", err)
	}
	data := region.Bytes()
	base := uintptr(unsafe.Pointer(&data[0]))
	k := len(data) / classSize

	sb := &SuperBlock{
		classSize: classSize,
		k:         k,
		base:      base,
		region:    region,
		freeCount: k,
	}
	for i := 0; i < k; i++ {
		addr := base + uintptr(i*classSize)
		var next uintptr
		if i+1 < k {
			next = base + uintptr((i+1)*classSize)
		}
		*(*uintptr)(unsafe.Pointer(addr)) = next
	}
	sb.freeHead = base
	return sb, nil
}

// ClassSize is the fixed bin size this SuperBlock serves.
func (sb *SuperBlock) ClassSize() int { return sb.classSize }

// FreeCount is the number of currently-unallocated bins. Read without
// synchronization: it is only meaningful when read by the owner thread,
// matching every other fast-path field on SuperBlock.
func (sb *SuperBlock) FreeCount() int { return sb.freeCount }

// Owns reports whether p falls inside this SuperBlock's region at a valid
// bin boundary.
func (sb *SuperBlock) Owns(p unsafe.Pointer) bool {
	addr := uintptr(p)
	end := sb.base + uintptr(sb.k*sb.classSize)
	if addr < sb.base || addr >= end {
		return false
	}
	return (addr-sb.base)%uintptr(sb.classSize) == 0
}

// Allocate detaches the freelist head and returns its address. Not
// synchronized: the caller must be the SuperBlock's owner thread.
func (sb *SuperBlock) Allocate() (unsafe.Pointer, error) {
	if sb.freeHead == 0 {
		return nil, ErrExhausted
	}
	addr := sb.freeHead
	sb.freeHead = *(*uintptr)(unsafe.Pointer(addr))
	sb.freeCount--
	return unsafe.Pointer(addr), nil
}

// FreeLocal pushes p back onto the freelist and drains any deferred
// cross-thread frees that accumulated while this SuperBlock was in use.
// Requires Owns(p); the caller must be the owner thread.
func (sb *SuperBlock) FreeLocal(p unsafe.Pointer) error {
	if !sb.Owns(p) {
		return ErrForeignPointer
	}
	addr := uintptr(p)
	*(*uintptr)(p) = sb.freeHead
	sb.freeHead = addr
	sb.freeCount++
	sb.DrainDeferred()
	return nil
}

// FreeForeign enqueues p into the deferred-free mailbox under sb.mu. This
// is the one point of contention between the owner thread and the rest of
// the world: every other SuperBlock operation is lock-free.
func (sb *SuperBlock) FreeForeign(p unsafe.Pointer) error {
	if !sb.Owns(p) {
		return ErrForeignPointer
	}
	sb.mu.Lock()
	sb.deferred = append(sb.deferred, uintptr(p))
	sb.mu.Unlock()
	return nil
}

// DrainDeferred moves every pending cross-thread free onto the freelist.
// Only safe when called by the owner thread, which is the only caller
// that ever touches freeHead/freeCount outside of this function.
func (sb *SuperBlock) DrainDeferred() {
	sb.mu.Lock()
	pending := sb.deferred
	sb.deferred = nil
	sb.mu.Unlock()
	for _, addr := range pending {
		*(*uintptr)(unsafe.Pointer(addr)) = sb.freeHead
		sb.freeHead = addr
		sb.freeCount++
	}
}

// Release unmaps the SuperBlock's backing region. Called only by
// MainPool.Close, on teardown, for every SuperBlock it minted, whether
// idle in the GlobalCache or still held by some SizeClassBin.
func (sb *SuperBlock) Release() error {
	return sb.region.Release()
}
