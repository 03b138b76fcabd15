package session

import (
	"context"
	"sync"
	"sync/atomic"
)

// loop runs posted tasks one at a time on a single goroutine. The queue is
// unbounded so that element callbacks never block.
type loop struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	tasks   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}

	inflight atomic.Int64
}

func newLoop() *loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &loop{
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Post queues fn. Tasks posted after stop are dropped.
func (l *loop) Post(fn func()) {
	l.post(fn)
}

// post queues fn and reports false once the loop is stopped.
func (l *loop) post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Go runs work on its own goroutine and posts then when it returns. The
// context is cancelled when the loop stops.
func (l *loop) Go(work func(ctx context.Context), then func()) {
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Add(-1)
		work(l.ctx)
		l.post(then)
	}()
}

// idle reports whether no task is queued and no work is running. It is
// meaningful from inside a task.
func (l *loop) idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) == 0 && l.inflight.Load() == 0
}

func (l *loop) run(after func()) {
	defer close(l.done)

	for range l.wake {
		for {
			l.mu.Lock()
			if len(l.tasks) == 0 {
				stopped := l.stopped
				l.mu.Unlock()
				if stopped {
					return
				}
				break
			}
			task := l.tasks[0]
			l.tasks[0] = nil
			l.tasks = l.tasks[1:]
			l.mu.Unlock()

			task()
			after()
		}
	}
}

// stop refuses new tasks, cancels running work and lets the loop exit once
// the queued tasks have run.
func (l *loop) stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	l.cancel()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
