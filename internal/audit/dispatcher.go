package audit

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Stats counts what happened to emitted events. Pending is the number of
// events buffered but not yet handed to the sink.
type Stats struct {
	Delivered uint64
	Dropped   uint64
	Pending   int
}

// Dispatcher forwards audit events to a sink from one background goroutine,
// so a slow sink never sits on the request path.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	// mu guards the close of queue: Emit sends under RLock and Close takes
	// the write lock before closing it.
	mu       sync.RWMutex
	queue    chan Event
	closed   bool
	stopping chan struct{}
	worker   sync.WaitGroup
	stopOnce sync.Once
	closeErr error

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. It returns nil when cfg is
// disabled; a nil *Dispatcher accepts and discards events.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, max(cfg.BufferSize, 1)),
		stopping:   make(chan struct{}),
	}
	d.worker.Add(1)
	go d.forward()
	return d
}

// forward runs until the queue is closed and empty.
func (d *Dispatcher) forward() {
	defer d.worker.Done()
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
		d.delivered.Add(1)
	}
}

// Emit queues event for delivery. With DropIfFull a full queue drops the
// event immediately. Otherwise Emit waits for space until ctx is done or the
// dispatcher starts closing; an event abandoned that way counts as dropped.
// Emit after Close is a no-op.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stopping:
		d.dropped.Add(1)
	}
}

// Close delivers everything already queued, then closes the sink if it is an
// io.Closer. It is safe to call more than once.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	d.stopOnce.Do(func() {
		close(d.stopping)

		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		d.worker.Wait()
		if c, ok := d.sink.(io.Closer); ok {
			d.closeErr = c.Close()
		}
	})
	return d.closeErr
}

// Stats returns the current delivery counters.
func (d *Dispatcher) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	return Stats{
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Pending:   len(d.queue),
	}
}

// Dropped is Stats().Dropped.
func (d *Dispatcher) Dropped() uint64 {
	return d.Stats().Dropped
}

// Delivered is Stats().Delivered.
func (d *Dispatcher) Delivered() uint64 {
	return d.Stats().Delivered
}
