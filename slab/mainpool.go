package slab

import (
	"fmt"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/dailypips/parallel-programming-mipt-2014/internal/obslog"
)

// MainPool is the single process-global coordinator: one mutex, the
// GlobalCache of idle SuperBlocks, the set of SuperBlocks currently on
// loan to some LocalPool, and the large-block path for requests that
// bypass the slab classes entirely.
//
// A recursive mutex is not needed here: no method calls back into
// MainPool while mp.mu is already held. initLocal acquires one class at a
// time, sequentially, never nested inside another locked call, so a plain
// sync.Mutex is used instead; see DESIGN.md's Open Question log.
type MainPool struct {
	mu     sync.Mutex
	cache  *GlobalCache
	used   map[*SuperBlock]struct{}
	logger *obslog.Logger

	// large backs requests strictly larger than the last size class with
	// ordinary GC-managed slices. Go has no manual free(), so the registry
	// exists purely so freeForeign can recognize and release (drop) a
	// large allocation. See DESIGN.md.
	large map[uintptr][]byte
}

// NewMainPool constructs the process-wide allocator coordinator.
func NewMainPool(logger *obslog.Logger) *MainPool {
	if logger == nil {
		logger = obslog.Nop()
	}
	return &MainPool{
		cache:  newGlobalCache(),
		used:   make(map[*SuperBlock]struct{}),
		large:  make(map[uintptr][]byte),
		logger: logger.With("mainpool"),
	}
}

// acquire hands a SuperBlock for classSize to a LocalPool: reuse one from
// the GlobalCache if idle, else mint a fresh one.
func (mp *MainPool) acquire(classSize int) (*SuperBlock, error) {
	idx, ok := classIndex(classSize)
	if !ok {
		return nil, ErrInvalidSize
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if sb := mp.cache.take(idx); sb != nil {
		mp.used[sb] = struct{}{}
		return sb, nil
	}
	sb, err := newSuperBlockForClass(classSize)
	if err != nil {
		mp.logger.Error("superblock allocation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}
	mp.used[sb] = struct{}{}
	return sb, nil
}

// release returns a SuperBlock a LocalPool no longer needs to the
// GlobalCache for reuse by any thread.
func (mp *MainPool) release(sb *SuperBlock) {
	idx, ok := classIndex(sb.ClassSize())
	if !ok {
		return
	}
	mp.mu.Lock()
	delete(mp.used, sb)
	mp.cache.put(idx, sb)
	mp.mu.Unlock()
}

// initLocal hands a fresh LocalPool one SuperBlock per size class so its
// first allocation of any class never blocks on MainPool.
func (mp *MainPool) initLocal() ([numClasses]*SizeClassBin, error) {
	var bins [numClasses]*SizeClassBin
	for i, classSize := range SizeClasses {
		bin := newSizeClassBin(classSize)
		sb, err := mp.acquire(classSize)
		if err != nil {
			return bins, err
		}
		bin.blocks = append(bin.blocks, sb)
		bins[i] = bin
	}
	return bins, nil
}

// allocLarge serves a request strictly larger than the last size class.
// Backed by an ordinary GC-managed slice; recorded in mp.large purely so
// freeForeign can recognize the address later.
func (mp *MainPool) allocLarge(n int) (unsafe.Pointer, error) {
	if n <= SizeClasses[numClasses-1] {
		return nil, ErrInvalidSize
	}
	buf := make([]byte, n)
	addr := uintptr(unsafe.Pointer(&buf[0]))

	mp.mu.Lock()
	mp.large[addr] = buf
	mp.mu.Unlock()
	return unsafe.Pointer(addr), nil
}

// freeForeign is MainPool's fallback when no LocalPool's SizeClassBin
// claims ownership of p: it is either a large-block allocation this
// MainPool made, a slab bin belonging to a SuperBlock currently on loan
// (queued as a deferred free), or unrecognized, which is reported rather
// than silently accepted. See DESIGN.md's Open Question log.
func (mp *MainPool) freeForeign(p unsafe.Pointer) error {
	addr := uintptr(p)

	mp.mu.Lock()
	if _, ok := mp.large[addr]; ok {
		delete(mp.large, addr)
		mp.mu.Unlock()
		return nil
	}
	for sb := range mp.used {
		if sb.Owns(p) {
			mp.mu.Unlock()
			return sb.FreeForeign(p)
		}
	}
	mp.mu.Unlock()
	return ErrForeignPointer
}

// Close releases every SuperBlock this MainPool ever minted, whether idle
// in the GlobalCache or still on loan to a LocalPool that never released
// it. Intended for process or test teardown.
func (mp *MainPool) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var firstErr error
	for sb := range mp.used {
		if err := sb.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(mp.used, sb)
	}
	for _, sb := range mp.cache.all() {
		if err := sb.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	mp.cache = newGlobalCache()
	mp.large = make(map[uintptr][]byte)
	return firstErr
}
