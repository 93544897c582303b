package slab

// numClasses is the number of size classes a LocalPool keeps one
// SizeClassBin for: 8, 16, 32, 64, 128, 256 bytes.
const numClasses = 6

// SizeClasses are the fixed size classes this allocator serves. Requests
// larger than the last class take the large-block path instead.
var SizeClasses = [numClasses]int{8, 16, 32, 64, 128, 256}

// SuperBlockBytes is the fixed region size backing every SuperBlock.
const SuperBlockBytes = 4096

// classIndexFor returns the index of the smallest size class that fits n
// bytes (the allocation size is rounded up to the smallest class that
// fits), and ok=false if n exceeds every class, meaning the large-block
// path applies: only requests strictly larger than the last class bypass
// the slab path. See DESIGN.md's Open Question log for why the boundary
// is c >= n rather than c > n.
func classIndexFor(n int) (int, bool) {
	for i, c := range SizeClasses {
		if n <= c {
			return i, true
		}
	}
	return 0, false
}

// classIndex returns the index of the size class exactly equal to
// classSize, used when a SuperBlock already knows which class it serves.
func classIndex(classSize int) (int, bool) {
	for i, c := range SizeClasses {
		if c == classSize {
			return i, true
		}
	}
	return 0, false
}
