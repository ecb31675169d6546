package worker

import (
	"context"
	"sync"
)

// Task is one unit of work. It must honor ctx cancellation.
type Task func(ctx context.Context) error

// Pool runs tasks with bounded concurrency and collects every error.
// Zero value is not usable; create with NewPool.
type Pool struct {
	size  int
	tasks chan Task

	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

// NewPool creates a pool that runs at most size tasks concurrently.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		size:  size,
		tasks: make(chan Task, size*2),
	}
}

// Start launches the workers. Tasks submitted before Start queue up.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			if err := task(ctx); err != nil {
				p.mu.Lock()
				p.errs = append(p.errs, err)
				p.mu.Unlock()
			}
		}
	}
}

// Submit queues a task. Blocks when the queue is full; drops the task
// if ctx is already cancelled.
func (p *Pool) Submit(ctx context.Context, task Task) {
	select {
	case <-ctx.Done():
	case p.tasks <- task:
	}
}

// Wait closes the queue, waits for in-flight tasks, and returns every
// error the tasks produced.
func (p *Pool) Wait() []error {
	close(p.tasks)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs
}
