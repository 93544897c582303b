package slab

import (
	"unsafe"
)

// LocalPool is a single thread's private allocator handle, one per
// thread. Go has no OS thread-local storage to hook into, so rather than
// an identity-map lookup keyed by thread id, LocalPool is an explicit
// handle the caller owns and passes around, the same way runtime/proc.go
// attaches an mcache to a P via acquirep rather than looking one up
// through thread-local storage.
type LocalPool struct {
	main *MainPool
	bins [numClasses]*SizeClassBin
}

// NewLocalPool asks mp for one SuperBlock per size class up front, so a
// thread's first allocation of any class is always already in hand.
func NewLocalPool(mp *MainPool) (*LocalPool, error) {
	bins, err := mp.initLocal()
	if err != nil {
		return nil, err
	}
	return &LocalPool{main: mp, bins: bins}, nil
}

// Alloc serves n bytes: the matching SizeClassBin for n <= 256, or
// MainPool's large-block path otherwise. Before consulting the target
// bin, it drains that bin's held SuperBlocks of any deferred cross-thread
// frees and re-sorts them, so a block freed from another thread becomes
// available again as soon as this thread next allocates from its class.
func (lp *LocalPool) Alloc(n int) (unsafe.Pointer, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	idx, ok := classIndexFor(n)
	if !ok {
		return lp.main.allocLarge(n)
	}
	lp.bins[idx].update()
	return lp.bins[idx].Allocate(lp.main)
}

// Free returns p to whichever SizeClassBin owns it; if none does (p
// belongs to a SuperBlock owned by another thread, or to the large-block
// path), it falls through to MainPool.freeForeign. A nil p is a no-op.
func (lp *LocalPool) Free(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	for _, bin := range lp.bins {
		if ok, err := bin.FreeIfOwned(p); ok {
			return err
		}
	}
	return lp.main.freeForeign(p)
}

// Release hands every fully-idle SuperBlock this LocalPool holds back to
// MainPool's GlobalCache. Intended for thread teardown; any SuperBlock
// still partially filled is retained until it drains through ordinary
// Free calls or is abandoned with the thread.
func (lp *LocalPool) Release() {
	for _, bin := range lp.bins {
		for _, sb := range bin.relinquishEmpty() {
			lp.main.release(sb)
		}
	}
}
