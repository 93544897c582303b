package pqueue_test

import (
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailypips/parallel-programming-mipt-2014/pqueue"
)

func TestEmptyExtract(t *testing.T) {
	h := pqueue.New[string]()
	_, _, ok := h.ExtractMin()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())
}

func TestSequentialOrdering(t *testing.T) {
	h := pqueue.New[int]()
	priorities := []int{5, 3, 7, 1, 4, 9, 2, 8, 6, 0}
	for _, p := range priorities {
		h.Insert(p, p)
	}
	require.Equal(t, len(priorities), h.Len())

	sorted := append([]int(nil), priorities...)
	sort.Ints(sorted)

	var got []int
	for {
		v, p, ok := h.ExtractMin()
		if !ok {
			break
		}
		require.Equal(t, v, p)
		got = append(got, v)
	}
	assert.Equal(t, sorted, got)
	assert.Equal(t, 0, h.Len())
}

// TestConcurrentInsertExtract has 20 goroutines each insert 500 values
// with priority equal to value, then 20 goroutines each extract 500 times;
// at the end the heap is empty and the multiset of extracted values equals
// the multiset inserted.
func TestConcurrentInsertExtract(t *testing.T) {
	const goroutines = 20
	const perGoroutine = 500

	h := pqueue.New[int]()
	var wg sync.WaitGroup

	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				v := base*perGoroutine + i
				h.Insert(v, v)
			}
		}(g)
	}
	wg.Wait()
	require.Equal(t, goroutines*perGoroutine, h.Len())

	var mu sync.Mutex
	extracted := make([]int, 0, goroutines*perGoroutine)

	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				v, _, ok := h.ExtractMin()
				require.True(t, ok)
				mu.Lock()
				extracted = append(extracted, v)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, h.Len())
	_, _, ok := h.ExtractMin()
	assert.False(t, ok)

	sort.Ints(extracted)
	want := make([]int, goroutines*perGoroutine)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, extracted)
}

func TestInsertExtractRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	h := pqueue.New[int]()
	n := 2000
	vals := make([]int, n)
	for i := range vals {
		vals[i] = rng.Intn(10000)
		h.Insert(vals[i], vals[i])
	}
	sort.Ints(vals)
	for i := 0; i < n; i++ {
		v, p, ok := h.ExtractMin()
		require.True(t, ok)
		require.Equal(t, v, p)
		assert.Equal(t, vals[i], v)
	}
}
