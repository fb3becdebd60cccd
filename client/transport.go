package client

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// TransportErrorKind classifies a transport failure by how the
// dispatcher should react to it.
type TransportErrorKind int

const (
	// TransportChannelError is a connection-level failure (EOF, reset,
	// closed) discovered on read or write. Fails the dispatcher.
	TransportChannelError TransportErrorKind = iota
	// TransportWriteError is a write-side failure surfaced by the
	// transport. Fails the dispatcher.
	TransportWriteError
	// TransportOther is any other transport error. Cancels only the
	// current front pending entry; the read loop may continue.
	TransportOther
)

// TransportError wraps a transport-layer failure with its
// classification.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Fatal() bool {
	return e.Kind == TransportChannelError || e.Kind == TransportWriteError
}

// Transport is the byte-oriented duplex stream the dispatcher sits on
// top of. Framing is the transport's responsibility: Read returns
// exactly one framed buffer per call.
type Transport interface {
	Read() ([]byte, error)
	Write(buf []byte) error
	Close() error
}

// tcpTransport is the default Transport: a length-prefixed framing over
// a net.Conn, matching ZooKeeper's real wire framing (a big-endian
// uint32 length prefix precedes every packet).
type tcpTransport struct {
	conn net.Conn

	readTimeout  time.Duration
	writeTimeout time.Duration
}

func dialTCP(addr string, connTimeout, socketTimeout time.Duration) (*tcpTransport, error) {
	conn, err := net.DialTimeout("tcp", addr, connTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &tcpTransport{conn: conn, readTimeout: socketTimeout, writeTimeout: socketTimeout}, nil
}

func (t *tcpTransport) Read() ([]byte, error) {
	if t.readTimeout > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(t.readTimeout))
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(t.conn, lenBuf[:]); err != nil {
		return nil, classifyReadErr(err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, nil
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(t.conn, buf); err != nil {
		return nil, classifyReadErr(err)
	}
	return buf, nil
}

func (t *tcpTransport) Write(buf []byte) error {
	if t.writeTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(buf)))
	if _, err := t.conn.Write(lenBuf[:]); err != nil {
		return &TransportError{Kind: TransportWriteError, Err: err}
	}
	if _, err := t.conn.Write(buf); err != nil {
		return &TransportError{Kind: TransportWriteError, Err: err}
	}
	return nil
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func classifyReadErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return &TransportError{Kind: TransportChannelError, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && !netErr.Timeout() {
		return &TransportError{Kind: TransportChannelError, Err: err}
	}
	return &TransportError{Kind: TransportOther, Err: err}
}
