package slab

import (
	"sort"
	"unsafe"
)

// SizeClassBin is one thread's set of SuperBlocks for a single size
// class, kept in a fill-biased order so the fullest SuperBlock that still
// has a free bin is always tried first. Like SuperBlock, SizeClassBin is single-owner-thread and
// unsynchronized: exactly one LocalPool ever touches a given
// SizeClassBin.
type SizeClassBin struct {
	classSize int
	blocks    []*SuperBlock
}

func newSizeClassBin(classSize int) *SizeClassBin {
	return &SizeClassBin{classSize: classSize}
}

// reorder keeps blocks sorted ascending by FreeCount, a fill-biased
// ordering: allocate from the fullest-but-still-free block first so a
// SuperBlock with room drains before a fresh one is pulled from MainPool.
func (b *SizeClassBin) reorder() {
	sort.Slice(b.blocks, func(i, j int) bool {
		return b.blocks[i].FreeCount() < b.blocks[j].FreeCount()
	})
}

// update drains every held SuperBlock's deferred cross-thread free queue
// and re-sorts the bin. Allocate only ever observes a SuperBlock's own
// freelist, so without update a block freed from another thread stays
// invisible to this bin until something calls FreeLocal/FreeForeign on
// that same SuperBlock again; update is what makes those frees visible on
// the allocation path itself.
func (b *SizeClassBin) update() {
	for _, sb := range b.blocks {
		sb.DrainDeferred()
	}
	b.reorder()
}

// Allocate returns a bin from the first non-exhausted SuperBlock, pulling
// a fresh one from mp if every held SuperBlock is full.
func (b *SizeClassBin) Allocate(mp *MainPool) (unsafe.Pointer, error) {
	for _, sb := range b.blocks {
		if sb.FreeCount() > 0 {
			p, err := sb.Allocate()
			if err == nil {
				b.reorder()
				return p, nil
			}
		}
	}
	sb, err := mp.acquire(b.classSize)
	if err != nil {
		return nil, err
	}
	b.blocks = append(b.blocks, sb)
	p, err := sb.Allocate()
	if err != nil {
		return nil, err
	}
	b.reorder()
	return p, nil
}

// FreeIfOwned frees p into whichever held SuperBlock owns it, reporting
// ok=false if none does; the caller then tries MainPool's foreign-free
// path.
func (b *SizeClassBin) FreeIfOwned(p unsafe.Pointer) (ok bool, err error) {
	for _, sb := range b.blocks {
		if sb.Owns(p) {
			err = sb.FreeLocal(p)
			b.reorder()
			return true, err
		}
	}
	return false, nil
}

// relinquishEmpty removes fully-idle SuperBlocks and returns them so the
// caller (LocalPool.Release) can hand them back to MainPool's GlobalCache.
func (b *SizeClassBin) relinquishEmpty() []*SuperBlock {
	var idle []*SuperBlock
	kept := b.blocks[:0]
	for _, sb := range b.blocks {
		if sb.FreeCount() == sb.k {
			idle = append(idle, sb)
		} else {
			kept = append(kept, sb)
		}
	}
	b.blocks = kept
	return idle
}
