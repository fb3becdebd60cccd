package client

import (
	"github.com/ValerySidorin/zkdispatch/internal/bufpool"
	"github.com/ValerySidorin/zkdispatch/internal/outbound"
	"github.com/ValerySidorin/zkdispatch/internal/wire"
)

// Writer serializes a request packet and hands its bytes to the
// outbound write-loop, which owns the physical transport write. Write
// itself never blocks on the transport: Enqueue returns immediately,
// and the caller instead suspends on its own result slot (see
// Conn.Submit) until the read loop correlates a reply. A write failure
// surfaces through onErr, which fails the whole dispatcher: individual
// writes never fail a single request, only the dispatcher as a whole.
type Writer struct {
	transport Transport
	out       *outbound.Outbound
}

func newWriter(t Transport, onErr func(error)) *Writer {
	w := &Writer{transport: t}
	w.out = outbound.New(sinkFunc(t.Write), onErr)
	go w.out.WriteLoop()
	return w
}

type sinkFunc func([]byte) error

func (f sinkFunc) Write(buf []byte) error { return f(buf) }

// Write serializes packet's full wire form (header inline when present)
// and queues it for the write loop.
func (w *Writer) Write(rec requestRecord, body any) {
	buf := bufpool.Get(64)
	if rec.kind == recordProtocol {
		buf = append(buf, wire.RequestHeader{Xid: rec.xid, Opcode: rec.opcode}.Encode()...)
	}
	if body != nil {
		buf = append(buf, wire.Encode(body)...)
	}
	w.out.Enqueue(buf)
}

func (w *Writer) Close() {
	w.out.Close()
}
