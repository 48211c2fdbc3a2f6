package wsclient

import "sync"

// Executor is the callback context completions are marshaled onto.
type Executor interface {
	Post(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Post(fn func()) { f(fn) }

// ImmediateExecutor runs posted work on the posting goroutine.
var ImmediateExecutor Executor = ExecutorFunc(func(fn func()) { fn() })

// SerialExecutor runs posted work one at a time, in order, on a single goroutine.
type SerialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewSerialExecutor starts a SerialExecutor.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.loop()
	return e
}

// Post enqueues fn. It never blocks; work posted after Close is dropped.
func (e *SerialExecutor) Post(fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, fn)
	e.mu.Unlock()
	e.cond.Signal()
}

// Close runs what is already queued, then stops. Must not be called from posted work.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cond.Broadcast()
	<-e.done
}

func (e *SerialExecutor) loop() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		fn := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		fn()
	}
}

var mainExecutor = sync.OnceValue(NewSerialExecutor)

// MainExecutor returns the process-wide SerialExecutor, started on first use.
func MainExecutor() *SerialExecutor { return mainExecutor() }
