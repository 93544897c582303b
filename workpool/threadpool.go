package workpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dailypips/parallel-programming-mipt-2014/future"
	"github.com/dailypips/parallel-programming-mipt-2014/internal/obslog"
	"github.com/dailypips/parallel-programming-mipt-2014/internal/telemetry"
)

// defaultWorkerCount is hardware concurrency, minimum 2.
func defaultWorkerCount() int {
	if n := runtime.NumCPU(); n > 2 {
		return n
	}
	return 2
}

// Option configures a FIFOPool or PriorityPool at construction.
type Option func(*pool)

// WithLogger attaches a zap logger; the default is silent.
func WithLogger(l *zap.Logger) Option {
	return func(p *pool) { p.logger = obslog.Wrap(l) }
}

// WithTracerProvider attaches an OpenTelemetry TracerProvider used to span
// each submitted task; the default (or a nil tp) uses a local SDK provider
// with no exporter, not the globally registered one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *pool) { p.tracer = telemetry.New(tp) }
}

// pool is the worker-army machinery shared by FIFOPool and PriorityPool,
// parametric over a queue strategy. The two exported types wrap it so
// each gets a Submit signature shaped like its own strategy (PriorityPool's
// takes a priority argument, FIFOPool's doesn't) while sharing the same
// worker loop, lifecycle and instrumentation.
type pool struct {
	queue        taskQueue
	strategyName string
	wg           sync.WaitGroup
	logger       *obslog.Logger
	tracer       *telemetry.Tracer
}

func newPool(strategyName string, q taskQueue, n int, opts []Option) *pool {
	if n <= 0 {
		n = defaultWorkerCount()
	}
	p := &pool{
		queue:        q,
		strategyName: strategyName,
		logger:       obslog.Nop(),
		tracer:       telemetry.New(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	log := p.logger.With("workpool")
	log.Info("starting pool", zap.String("strategy", strategyName), zap.Int("workers", n))

	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker(i, log)
	}
	return p
}

// worker runs the pop-execute loop: pop blocking; if none, exit; else
// execute the task. Every task, once popped, is executed to completion
// before the next pop; there is no task-internal suspension.
func (p *pool) worker(id int, log *obslog.Logger) {
	defer p.wg.Done()
	for {
		t, ok := p.queue.popBlocking()
		if !ok {
			log.Debug("worker exiting", zap.Int("worker", id))
			return
		}
		log.Debug("worker executing task", zap.Int("worker", id))
		t.run()
	}
}

// close closes the queue and joins every worker. No task is silently
// dropped: workers keep popping until the queue is both closed and empty,
// so every task submitted before close has run to completion, and its
// Future is resolved, by the time close returns.
func (p *pool) close() {
	p.queue.close()
	p.wg.Wait()
}

func runTask[R any](fut *future.Future[R], tracer *telemetry.Tracer, strategy string, priority int, hasPriority bool, f func() (R, error)) func() {
	return func() {
		_, span := tracer.StartTask(context.Background(), strategy, priority, hasPriority)
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("workpool: task panicked: %v", r)
				_ = fut.SetError(err)
				telemetry.RecordOutcome(span, err)
			}
		}()
		v, err := f()
		if err != nil {
			_ = fut.SetError(err)
			telemetry.RecordOutcome(span, err)
			return
		}
		_ = fut.SetValue(v)
		telemetry.RecordOutcome(span, nil)
	}
}

func runVoidTask(fut *future.Future[struct{}], tracer *telemetry.Tracer, strategy string, priority int, hasPriority bool, f func() error) func() {
	return func() {
		_, span := tracer.StartTask(context.Background(), strategy, priority, hasPriority)
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("workpool: task panicked: %v", r)
				_ = fut.SetError(err)
				telemetry.RecordOutcome(span, err)
			}
		}()
		if err := f(); err != nil {
			_ = fut.SetError(err)
			telemetry.RecordOutcome(span, err)
			return
		}
		_ = fut.SetVoid()
		telemetry.RecordOutcome(span, nil)
	}
}

// FIFOPool is a ThreadPool backed by SimpleQueue: submit(task) returns a
// Future[R].
type FIFOPool struct {
	*pool
	queue *SimpleQueue
}

// NewFIFOPool starts n workers pulling from a FIFO queue. n <= 0 uses the
// default worker count.
func NewFIFOPool(n int, opts ...Option) *FIFOPool {
	q := NewSimpleQueue()
	return &FIFOPool{pool: newPool("fifo", q, n, opts), queue: q}
}

// Close closes the queue and joins every worker.
func (p *FIFOPool) Close() { p.pool.close() }

// Submit runs f on the pool and returns a Future for its result.
func Submit[R any](p *FIFOPool, f func() (R, error)) *future.Future[R] {
	fut := future.New[R]()
	p.queue.Submit(Task{run: runTask(fut, p.tracer, p.strategyName, 0, false, f)})
	return fut
}

// SubmitVoid runs f on the pool and returns a Future that carries only
// completion-or-error.
func SubmitVoid(p *FIFOPool, f func() error) *future.Future[struct{}] {
	fut := future.New[struct{}]()
	p.queue.Submit(Task{run: runVoidTask(fut, p.tracer, p.strategyName, 0, false, f)})
	return fut
}

// PriorityPool is a ThreadPool backed by PriorityQueue: submit(task,
// priority) returns a Future[R]. Lower priority values run sooner.
type PriorityPool struct {
	*pool
	queue *PriorityQueue
}

// NewPriorityPool starts n workers pulling from a priority queue. n <= 0
// uses the default worker count.
func NewPriorityPool(n int, opts ...Option) *PriorityPool {
	q := NewPriorityQueue()
	return &PriorityPool{pool: newPool("priority", q, n, opts), queue: q}
}

// Close closes the queue and joins every worker.
func (p *PriorityPool) Close() { p.pool.close() }

// SubmitPriority runs f on the pool at the given priority and returns a
// Future for its result.
func SubmitPriority[R any](p *PriorityPool, priority int, f func() (R, error)) *future.Future[R] {
	fut := future.New[R]()
	p.queue.Submit(Task{run: runTask(fut, p.tracer, p.strategyName, priority, true, f)}, priority)
	return fut
}

// SubmitVoidPriority runs f on the pool at the given priority and returns
// a Future that carries only completion-or-error.
func SubmitVoidPriority(p *PriorityPool, priority int, f func() error) *future.Future[struct{}] {
	fut := future.New[struct{}]()
	p.queue.Submit(Task{run: runVoidTask(fut, p.tracer, p.strategyName, priority, true, f)}, priority)
	return fut
}
