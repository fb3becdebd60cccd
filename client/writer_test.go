package client

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ValerySidorin/zkdispatch/internal/outbound"
	"github.com/ValerySidorin/zkdispatch/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu      sync.Mutex
	writes  [][]byte
	failAll error
}

func (f *fakeSink) Write(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	cp := append([]byte(nil), buf...)
	f.writes = append(f.writes, cp)
	return nil
}

func (f *fakeSink) all() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.writes...)
}

func newTestWriter(sink outbound.Sink, onErr func(error)) *Writer {
	w := &Writer{}
	w.out = outbound.New(sink, onErr)
	go w.out.WriteLoop()
	return w
}

func TestWriter_EncodesHeaderForProtocolRecords(t *testing.T) {
	sink := &fakeSink{}
	w := newTestWriter(sink, func(error) {})
	defer w.Close()

	w.Write(requestRecord{xid: 7, opcode: wire.OpExists, kind: recordProtocol},
		wire.ExistsRequest{Path: "/a"})

	require.Eventually(t, func() bool { return len(sink.all()) == 1 }, time.Second, time.Millisecond)

	got := sink.all()[0]
	// The wire form is RequestHeader{Xid,Opcode} + encoded body, not a
	// ResponseHeader; decode its two int32 fields directly.
	require.GreaterOrEqual(t, len(got), 8)
	assert.Equal(t, int32(7), int32(got[0])<<24|int32(got[1])<<16|int32(got[2])<<8|int32(got[3]))
	assert.Equal(t, int32(wire.OpExists), int32(got[4])<<24|int32(got[5])<<16|int32(got[6])<<8|int32(got[7]))
}

func TestWriter_ConnectRecordHasNoHeader(t *testing.T) {
	sink := &fakeSink{}
	w := newTestWriter(sink, func(error) {})
	defer w.Close()

	w.Write(requestRecord{kind: recordConnect}, wire.ConnectRequest{Timeout: 1000})

	require.Eventually(t, func() bool { return len(sink.all()) == 1 }, time.Second, time.Millisecond)
	var decoded wire.ConnectRequest
	_, err := wire.Decode(sink.all()[0], &decoded)
	require.NoError(t, err)
	assert.Equal(t, int32(1000), decoded.Timeout)
}

func TestWriter_WriteErrorInvokesOnErrAndStopsLoop(t *testing.T) {
	sink := &fakeSink{failAll: errors.New("boom")}
	errCh := make(chan error, 1)
	w := newTestWriter(sink, func(err error) { errCh <- err })

	w.Write(requestRecord{kind: recordConnect}, wire.ConnectRequest{})

	select {
	case err := <-errCh:
		assert.EqualError(t, err, "boom")
	case <-time.After(time.Second):
		t.Fatal("onErr was never called")
	}

	// The loop returned after the first failure, so a later frame never
	// reaches the sink and onErr is not called a second time.
	w.Write(requestRecord{kind: recordConnect}, wire.ConnectRequest{})
	select {
	case err := <-errCh:
		t.Fatalf("onErr called again after the write loop stopped: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}
