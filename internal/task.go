package internal

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// Handlers receive the outcome of an asynchronous request. All callbacks run
// on the task's goroutine. Setting OnChunk selects streaming mode: the body
// is split into JSON documents instead of being buffered, and OnSuccess
// receives a Response without a Body once the stream ends.
type Handlers struct {
	OnSuccess func(*Response)
	OnChunk   func(json.RawMessage)
	OnFailure func(error)
}

// Task is an in-flight asynchronous request.
type Task struct {
	cancel   context.CancelFunc
	canceled atomic.Bool
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// Start sends the request on a new goroutine and returns immediately.
// Exactly one of OnSuccess or OnFailure is called when the request ends,
// unless the task is canceled first, in which case neither is called.
func (e *Engine) Start(ctx context.Context, spec RequestSpec, sign SignFunc, h Handlers) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go t.run(ctx, e, spec, sign, h)
	return t
}

func (t *Task) run(ctx context.Context, e *Engine, spec RequestSpec, sign SignFunc, h Handlers) {
	defer close(t.done)
	defer t.cancel()

	var (
		resp *Response
		err  error
	)
	if h.OnChunk != nil {
		resp, err = e.stream(ctx, spec, sign, func(doc json.RawMessage) bool {
			if t.canceled.Load() {
				return false
			}
			h.OnChunk(doc)
			return true
		})
	} else {
		resp, err = e.Do(ctx, spec, sign)
	}

	if t.canceled.Load() {
		t.setErr(context.Canceled)
		return
	}
	t.setErr(err)

	if err != nil {
		if h.OnFailure != nil {
			h.OnFailure(err)
		}
		return
	}
	if h.OnSuccess != nil {
		h.OnSuccess(resp)
	}
}

// Cancel stops the request and releases its connection. No callback is
// invoked after Cancel returns, except one already running.
func (t *Task) Cancel() {
	t.canceled.Store(true)
	t.cancel()
}

// Done is closed when the task has finished, including its callbacks.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its error. A canceled
// task returns context.Canceled.
func (t *Task) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Task) setErr(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}
