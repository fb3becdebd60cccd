package client

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	zk "github.com/Shopify/zk"
	"github.com/ValerySidorin/zkdispatch/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTransport is an in-memory Transport double: Write appends frames a
// test drives replies from, and replies pushed onto in are handed back
// one per Read call. It exercises the dispatcher end to end without a
// real socket.
type memTransport struct {
	mu       sync.Mutex
	writes   [][]byte
	in       chan []byte
	closed   bool
	closeErr error
}

func newMemTransport() *memTransport {
	return &memTransport{in: make(chan []byte, 16)}
}

func (m *memTransport) Read() ([]byte, error) {
	buf, ok := <-m.in
	if !ok {
		return nil, &TransportError{Kind: TransportChannelError, Err: errors.New("closed")}
	}
	return buf, nil
}

func (m *memTransport) Write(buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return &TransportError{Kind: TransportWriteError, Err: errors.New("closed")}
	}
	cp := append([]byte(nil), buf...)
	m.writes = append(m.writes, cp)
	return nil
}

func (m *memTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.in)
	}
	return m.closeErr
}

func (m *memTransport) pushReply(hdr wire.ResponseHeader, body any) {
	buf := wire.Encode(hdr)
	if body != nil {
		buf = append(buf, wire.Encode(body)...)
	}
	m.in <- buf
}

// requestXid reads the Xid off a written request frame: RequestHeader
// is {Xid,Opcode} (8 bytes), shorter than ResponseHeader, so it cannot
// be read with wire.DecodeHeader the way a reply frame can.
func requestXid(buf []byte) int32 {
	return int32(binary.BigEndian.Uint32(buf[0:4]))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestConn(t *testing.T) (*Conn, *memTransport) {
	t.Helper()
	mt := newMemTransport()
	conf := Config{}
	conf.SetDefaults()
	c := newConn(mt, conf, testLogger(), nil, nil)

	session := NewSession()
	watches, err := newWatchRegistry(WatchDispatchConfig{}, testLogger())
	require.NoError(t, err)
	connMgr := newConnManager()

	_, err = c.Submit(context.Background(), RequestPacket{
		Kind:     PacketConfigureManagers,
		Managers: &Managers{Session: session, Watches: watches, Connection: connMgr},
	})
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), RequestPacket{Kind: PacketConfigureDone})
	require.NoError(t, err)

	return c, mt
}

// scenario: a request submitted concurrently with its reply must
// correlate correctly once the read loop observes it.
func TestConn_SubmitCorrelatesReply(t *testing.T) {
	c, mt := newTestConn(t)

	done := make(chan struct{})
	var reply ReplyPacket
	var submitErr error
	go func() {
		defer close(done)
		reply, submitErr = c.Submit(context.Background(), RequestPacket{
			Kind:   PacketProtocol,
			Opcode: wire.OpExists,
			Body:   wire.ExistsRequest{Path: "/a"},
		})
	}()

	require.Eventually(t, func() bool { return len(mt.writes) == 1 }, time.Second, time.Millisecond)

	xid := requestXid(mt.writes[0])
	mt.pushReply(wire.ResponseHeader{Xid: xid, Zxid: 1, Err: 0}, wire.ExistsResponse{Stat: &zk.Stat{Version: 2}})

	<-done
	require.NoError(t, submitErr)
	resp, ok := reply.Body.(wire.ExistsResponse)
	require.True(t, ok)
	assert.EqualValues(t, 2, resp.Stat.Version)
}

// A non-zero header err surfaces as a zk sentinel error and an empty
// body, without failing the dispatcher.
func TestConn_ServerErrorReplyDoesNotFailDispatcher(t *testing.T) {
	c, mt := newTestConn(t)

	done := make(chan struct{})
	var submitErr error
	go func() {
		defer close(done)
		_, submitErr = c.Submit(context.Background(), RequestPacket{
			Kind:   PacketProtocol,
			Opcode: wire.OpCreate,
			Body:   wire.CreateRequest{Path: "/a"},
		})
	}()

	require.Eventually(t, func() bool { return len(mt.writes) == 1 }, time.Second, time.Millisecond)
	xid := requestXid(mt.writes[0])
	mt.pushReply(wire.ResponseHeader{Xid: xid, Err: -110}, nil) // NodeExists

	<-done
	assert.ErrorIs(t, submitErr, zk.ErrNodeExists)
	assert.False(t, c.failed.Load())
}

// A watch notification (xid -1) never dequeues a pending entry and
// reaches the registered observer.
func TestConn_WatchEventDispatchesToObserver(t *testing.T) {
	c, mt := newTestConn(t)

	events := make(chan wire.WatchEvent, 1)
	c.watches.(*defaultWatchRegistry).Register("/a", func(ev wire.WatchEvent) {
		events <- ev
	})

	mt.pushReply(wire.ResponseHeader{Xid: wire.XidWatchEvent}, wire.WatchEvent{
		Type: zk.EventNodeDataChanged, State: zk.StateConnected, Path: "/a",
	})

	select {
	case ev := <-events:
		assert.Equal(t, "/a", ev.Path)
	case <-time.After(time.Second):
		t.Fatal("watch event never dispatched")
	}
}

// An xid mismatch against the pending queue's head is fatal, failing
// every other outstanding Submit call too.
func TestConn_XidMismatchFailsDispatcher(t *testing.T) {
	c, mt := newTestConn(t)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), RequestPacket{
			Kind: PacketProtocol, Opcode: wire.OpExists, Body: wire.ExistsRequest{Path: "/a"},
		})
		errCh <- err
	}()

	require.Eventually(t, func() bool { return len(mt.writes) == 1 }, time.Second, time.Millisecond)
	mt.pushReply(wire.ResponseHeader{Xid: 99999}, nil)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrXidMismatch)
	case <-time.After(time.Second):
		t.Fatal("submit never returned")
	}
	assert.True(t, c.failed.Load())
}

// fail must drain and cancel every outstanding entry exactly once.
func TestConn_FailCancelsAllPending(t *testing.T) {
	c, _ := newTestConn(t)

	n := 5
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := c.Submit(context.Background(), RequestPacket{
				Kind: PacketProtocol, Opcode: wire.OpExists, Body: wire.ExistsRequest{Path: "/a"},
			})
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return c.pending.len() == n }, time.Second, time.Millisecond)
	c.fail(ErrConnClosed)

	for i := 0; i < n; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrConnClosed)
		case <-time.After(time.Second):
			t.Fatal("submit never unblocked after fail")
		}
	}
	assert.False(t, c.connMgr.IsValid())
}
