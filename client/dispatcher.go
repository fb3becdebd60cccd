package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValerySidorin/zkdispatch/internal/wire"
	"golang.org/x/sync/errgroup"
)

// Conn is the dispatcher orchestrator: it owns the pending queue, the
// writer, the read loop, and the single terminal-failure path (fail).
// Correlation is built around ZooKeeper's single duplex stream,
// which guarantees FIFO reply order, rather than a keyed lookup.
type Conn struct {
	transport Transport
	writer    *Writer
	pending   *pendingQueue

	// submitMu guards the enqueue-then-write pair in Submit so two
	// concurrent submitters can never interleave: without it, the order
	// entries land in the pending queue could diverge from the order
	// their frames reach the writer, and the read loop correlates
	// strictly by queue order.
	submitMu sync.Mutex

	session SessionManager
	watches WatchRegistry
	connMgr ConnectionManager

	xid atomic.Int32

	failed  atomic.Bool
	failErr atomic.Value // error

	// readLoopStarted flips false->true once, the first time start runs.
	readLoopStarted atomic.Bool

	readLoopDone chan struct{}

	// eg supervises the read-loop goroutine: Wait blocks until it exits,
	// surfacing whatever error caused the exit.
	eg *errgroup.Group

	conf    Config
	l       *slog.Logger
	tracer  traceTracer
	metrics *metrics
}

// traceTracer narrows go.opentelemetry.io/otel/trace.Tracer down to what
// dispatcher.go needs, so tests can supply a no-op without importing
// otel (see tracing.go for the real adapter).
type traceTracer interface {
	StartSubmitSpan(ctx context.Context, opName string) (context.Context, func(error))
}

func newConn(t Transport, conf Config, l *slog.Logger, tracer traceTracer, m *metrics) *Conn {
	c := &Conn{
		transport:    t,
		pending:      newPendingQueue(),
		readLoopDone: make(chan struct{}),
		conf:         conf,
		l:            l,
		tracer:       tracer,
		metrics:      m,
	}
	c.writer = newWriter(t, c.fail)
	return c
}

// configure attaches the collaborator handles once they exist: Session,
// WatchRegistry, and ConnectionManager are constructed independently of
// Conn (none of them holds a reference back to it) and wired in via
// PacketConfigureManagers.
func (c *Conn) configure(m *Managers) {
	c.session = m.Session
	c.watches = m.Watches
	c.connMgr = m.Connection
}

func (c *Conn) start() {
	if !c.readLoopStarted.CompareAndSwap(false, true) {
		return
	}
	c.eg = &errgroup.Group{}
	c.eg.Go(func() error {
		return c.readLoop()
	})
}

// Wait blocks until the read loop has exited, returning the error that
// caused it to (nil only if start was never called).
func (c *Conn) Wait() error {
	if c.eg == nil {
		return nil
	}
	return c.eg.Wait()
}

// nextXid assigns request identifiers for protocol-record packets. xid 0
// is reserved for nothing special here; ZooKeeper only forbids -1/-2,
// which xid.Add never produces starting from 0 upward within int32
// range for the lifetime of a session in practice.
func (c *Conn) nextXid() int32 {
	return c.xid.Add(1)
}

// Submit enqueues rec and hands its bytes to the writer inside one
// critical section so the read loop can never observe a reply for an
// entry that is not yet in the pending queue. It blocks until the
// result slot is completed, the context is canceled, or the dispatcher
// fails. There is no dispatcher-level request timeout: ctx is purely a
// caller concern, and canceling it only unblocks this call — it does
// not touch the shared transport or any other in-flight request.
func (c *Conn) Submit(ctx context.Context, pkt RequestPacket) (ReplyPacket, error) {
	if c.failed.Load() {
		return ReplyPacket{}, c.currentFailErr()
	}

	switch pkt.Kind {
	case PacketConfigureManagers:
		c.configure(pkt.Managers)
		return ReplyPacket{}, nil
	case PacketConfigureDone:
		c.start()
		return ReplyPacket{}, nil
	}

	var spanEnd func(error)
	if c.tracer != nil {
		ctx, spanEnd = c.tracer.StartSubmitSpan(ctx, pkt.Opcode.String())
	}

	rec := requestRecord{opcode: pkt.Opcode}
	if pkt.Kind == PacketConnect {
		rec.kind = recordConnect
	} else {
		rec.kind = recordProtocol
		rec.xid = c.nextXid()
	}

	slot := newResultSlot()

	// Enqueue and write must be indivisible with respect to the read
	// loop's dequeue-and-correlate, and with respect to each other
	// across concurrent Submit calls: submitMu makes the two lines below
	// a single critical section so no other submitter's enqueue or write
	// can land between them.
	c.submitMu.Lock()
	c.pending.enqueue(pendingEntry{record: rec, slot: slot})
	c.writer.Write(rec, pkt.Body)
	c.submitMu.Unlock()

	if c.metrics != nil {
		c.metrics.submits.Inc()
		c.metrics.queueDepth.Set(float64(c.pending.len()))
	}

	submitted := time.Now()
	select {
	case res := <-slot.ch:
		if c.metrics != nil {
			c.metrics.correlation.Observe(time.Since(submitted).Seconds())
			c.metrics.queueDepth.Set(float64(c.pending.len()))
		}
		if spanEnd != nil {
			spanEnd(res.err)
		}
		return res.reply, res.err
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		if spanEnd != nil {
			spanEnd(err)
		}
		return ReplyPacket{}, err
	case <-c.readLoopDone:
		err := c.currentFailErr()
		if spanEnd != nil {
			spanEnd(err)
		}
		return ReplyPacket{}, err
	}
}

func (c *Conn) currentFailErr() error {
	if e, ok := c.failErr.Load().(error); ok && e != nil {
		return e
	}
	return ErrDispatcherFailed
}

// fail is the single terminal-failure path: mark failed, invalidate the
// connection, cancel the session's ping scheduler, and drain the
// pending queue exactly once, completing every outstanding slot with
// err.
func (c *Conn) fail(err error) {
	if !c.failed.CompareAndSwap(false, true) {
		return
	}
	c.failErr.Store(err)

	c.l.Error("dispatcher failed", "err", err)
	if c.metrics != nil {
		c.metrics.failures.Inc()
	}

	if c.connMgr != nil {
		c.connMgr.Invalidate()
	}
	if c.session != nil {
		c.session.CancelPingScheduler()
	}

	for _, e := range c.pending.drain() {
		e.slot.complete(ReplyPacket{}, err)
	}

	close(c.readLoopDone)
	_ = c.transport.Close()
	c.writer.Close()
}

// readLoop is the sole reader of the transport: it pulls one frame,
// decodes its header (or, for the headerless CREATE_SESSION reply,
// decodes its body directly), correlates it against the pending queue,
// decodes the body or dispatches a watch event, and completes the
// matched slot. It runs until the transport fails, a decode is
// unrecoverable, or the session is closing, returning the error that
// ended it so the supervising errgroup can surface it via Wait.
//
// It intentionally takes no per-call context: it serves every
// outstanding Submit call on this connection, not just one, so it
// cannot be tied to any single caller's cancellation. A dead peer is
// instead bounded by the transport's configured socket timeout, which
// periodically wakes the loop with a non-fatal TransportOther error:
// that error cancels the front pending entry (if any) and the loop
// keeps reading. An actual failure closes the transport out from under
// it via fail.
func (c *Conn) readLoop() error {
	for {
		if c.session != nil && c.session.IsClosingSession() {
			c.fail(ErrConnClosed)
			return ErrConnClosed
		}

		buf, err := c.transport.Read()
		if err != nil {
			var te *TransportError
			if errors.As(err, &te) && !te.Fatal() {
				c.l.Warn("transport read: non-fatal error, continuing", "err", err)
				if entry, ok := c.pending.dequeue(); ok {
					entry.slot.complete(ReplyPacket{}, err)
				}
				continue
			}
			c.fail(err)
			return err
		}
		if len(buf) == 0 {
			continue
		}

		// The CREATE_SESSION reply carries no ResponseHeader at all — its
		// body is decoded directly off the frame. It is always the first
		// reply on the stream, so it is recognized by the pending queue's
		// head being the connect record rather than by any bytes in buf.
		if front, ok := c.pending.front(); ok && front.record.kind == recordConnect {
			var resp wire.ConnectResponse
			if _, err := wire.Decode(buf, &resp); err != nil {
				c.fail(err)
				return err
			}
			entry, _ := c.pending.dequeue()
			entry.slot.complete(ReplyPacket{Body: resp}, nil)
			continue
		}

		header, rest, err := wire.DecodeHeader(buf)
		if err != nil {
			c.fail(err)
			return err
		}

		entry, outcome := correlate(c.pending, header.Xid)
		switch outcome {
		case outcomeWatch:
			c.dispatchWatchEvent(rest)
			continue
		case outcomeEmptyQueue:
			c.fail(ErrUnexpectedNotification)
			return ErrUnexpectedNotification
		case outcomeMismatch:
			c.fail(ErrXidMismatch)
			return ErrXidMismatch
		}

		if header.Xid == wire.XidPing {
			entry.slot.complete(ReplyPacket{Header: header}, nil)
			continue
		}

		body, _, err := wire.DecodeBody(entry.record.opcode, header.Err, rest)
		if err != nil {
			entry.slot.complete(ReplyPacket{Header: header}, err)
			continue
		}

		var replyErr error
		if header.Err != 0 {
			replyErr = zkError(header.Err)
		}
		entry.slot.complete(ReplyPacket{Header: header, Body: body}, replyErr)
	}
}

func (c *Conn) dispatchWatchEvent(buf []byte) {
	ev, err := wire.DecodeWatchEvent(buf)
	if err != nil {
		c.l.Error("watch event decode failed", "err", err)
		return
	}
	if c.session != nil {
		c.session.ParseWatchEvent(ev)
	}
	if c.watches != nil {
		c.watches.Process(ev)
	}
}
