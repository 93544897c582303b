// Package workpool implements two queueing strategies (SimpleQueue,
// PriorityQueue) and the ThreadPool built on top of them.
//
// SimpleQueue's wait/signal shape is sync.Cond over a plain slice, the
// FIFO equivalent of runtime/chan.go's unbuffered-channel rendezvous, but
// expressed with the same mutex+condvar idiom runtime/sema.go's
// notifyList uses under sync.Cond. PriorityQueue is the same shape wired
// to a pqueue.PriorityHeap instead of a slice.
package workpool

import (
	"sync"

	"github.com/dailypips/parallel-programming-mipt-2014/pqueue"
)

// Task is one unit of work queued by a ThreadPool: a closure to run plus,
// for PriorityQueue, the priority it was submitted with. Lower priority
// values are more urgent.
type Task struct {
	priority int
	run      func()
}

// taskQueue is what ThreadPool needs from either strategy: pop the next
// task (blocking) and shut down. Submission is strategy-shaped (FIFO has
// no priority argument), so it is not part of this interface. FIFOPool
// and PriorityPool each call their own queue's typed Submit directly.
type taskQueue interface {
	popBlocking() (Task, bool)
	close()
}

// SimpleQueue is the FIFO strategy.
type SimpleQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Task
	closed bool
}

// NewSimpleQueue returns an empty, open FIFO queue.
func NewSimpleQueue() *SimpleQueue {
	q := &SimpleQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Submit appends t and wakes one blocked popper. Submit after Close is
// undefined behavior and is not guarded against here.
func (q *SimpleQueue) Submit(t Task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *SimpleQueue) popBlocking() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return Task{}, false
	}
	t := q.items[0]
	q.items[0] = Task{}
	q.items = q.items[1:]
	return t, true
}

func (q *SimpleQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// PriorityQueue is the priority strategy: submit is PriorityHeap.Insert,
// pop is wait-then-ExtractMin with a retry loop for the race where a
// racing extractor empties the heap between the wakeup and the extract.
type PriorityQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	heap   *pqueue.PriorityHeap[Task]
	closed bool
}

// NewPriorityQueue returns an empty, open priority queue.
func NewPriorityQueue() *PriorityQueue {
	q := &PriorityQueue{heap: pqueue.New[Task]()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Submit inserts t at the given priority and wakes one blocked popper. The
// heap itself has its own internal locking (pqueue.PriorityHeap), so the
// empty lock/unlock below exists only to serialize with a popper that is
// between checking the empty condition and calling cond.Wait, the usual
// safeguard against a lost wakeup on a condition variable whose predicate
// lives outside the condition's own mutex.
func (q *PriorityQueue) Submit(t Task, priority int) {
	t.priority = priority
	q.heap.Insert(t, priority)
	q.mu.Lock()
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *PriorityQueue) popBlocking() (Task, bool) {
	for {
		q.mu.Lock()
		for q.heap.Len() == 0 && !q.closed {
			q.cond.Wait()
		}
		closedEmpty := q.heap.Len() == 0 && q.closed
		q.mu.Unlock()
		if closedEmpty {
			return Task{}, false
		}
		if t, _, ok := q.heap.ExtractMin(); ok {
			return t, true
		}
		// A racing extractor emptied the heap first; loop and wait again.
	}
}

func (q *PriorityQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
