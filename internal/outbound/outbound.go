// Package outbound provides a batched write queue: frames are enqueued
// from any goroutine and flushed by a single dedicated write-loop
// goroutine, guarded by a mutex and condition variable rather than a
// channel so a batch can be drained in one swoop. Each frame of a batch
// is still handed to the sink with its own Write call.
package outbound

import (
	"sync"
	"sync/atomic"

	"github.com/ValerySidorin/zkdispatch/internal/bufpool"
)

// Sink is the minimal write surface an Outbound needs. client.Transport
// satisfies it.
type Sink interface {
	Write(buf []byte) error
}

// Outbound batches queued frames and flushes them from a single
// goroutine, so the dispatcher's submit path never blocks on the
// transport directly: enqueueing a frame is a slice append under a
// mutex, not a syscall.
type Outbound struct {
	sink Sink

	mu     sync.Mutex
	c      *sync.Cond
	queued [][]byte

	closed atomic.Bool
	onErr  func(error)
}

func New(sink Sink, onErr func(error)) *Outbound {
	o := &Outbound{sink: sink, onErr: onErr}
	o.c = sync.NewCond(&o.mu)
	return o
}

// Enqueue queues a frame for the write loop. It never blocks the
// caller on the transport.
func (o *Outbound) Enqueue(frame []byte) {
	if o.closed.Load() {
		return
	}
	o.mu.Lock()
	o.queued = append(o.queued, frame)
	o.mu.Unlock()
	o.c.Signal()
}

// WriteLoop drains queued frames until Close is called. Run it in its
// own goroutine.
func (o *Outbound) WriteLoop() {
	for {
		o.mu.Lock()
		for len(o.queued) == 0 && !o.closed.Load() {
			o.c.Wait()
		}
		if len(o.queued) == 0 && o.closed.Load() {
			o.mu.Unlock()
			return
		}

		batch := o.queued
		o.queued = nil
		o.mu.Unlock()

		for _, frame := range batch {
			err := o.sink.Write(frame)
			bufpool.Put(frame)
			if err != nil {
				if o.onErr != nil {
					o.onErr(err)
				}
				return
			}
		}

		if o.closed.Load() {
			o.mu.Lock()
			drained := len(o.queued) == 0
			o.mu.Unlock()
			if drained {
				return
			}
		}
	}
}

func (o *Outbound) Close() {
	o.closed.Store(true)
	o.c.Broadcast()
}
