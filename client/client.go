package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	zk "github.com/Shopify/zk"
	"github.com/ValerySidorin/zkdispatch/internal/wire"
	"github.com/prometheus/client_golang/prometheus"
)

// Connect dials addr, performs the ZooKeeper session handshake, and
// returns a running Conn ready for Submit calls.
func Connect(ctx context.Context, addr string, opts ...Option) (*Conn, error) {
	conf := Config{Addr: addr}
	conf.SetDefaults()

	c := &Conn{conf: conf, l: slog.New(slog.NewTextHandler(os.Stderr, nil))}
	for _, opt := range opts {
		opt(c)
	}
	conf = c.conf

	t, err := dialTCP(conf.Addr, conf.ConnectTimeout, conf.SocketTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	var m *metrics
	if conf.Metrics.Enabled {
		m = newMetrics(prometheus.DefaultRegisterer)
	}

	conn := newConn(t, conf, c.l, wrapTracer(c.tracer), m)

	watches, err := newWatchRegistry(conf.WatchDispatch, conn.l)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	session := NewSession()
	connMgr := newConnManager()

	if err := handshake(ctx, conn, session, watches, connMgr, conf.SessionTimeout); err != nil {
		_ = t.Close()
		return nil, err
	}

	return conn, nil
}

// handshake wires the collaborator handles into conn, starts its read
// loop, and performs the ZooKeeper session handshake: a headerless
// CREATE_SESSION request whose reply is likewise headerless. Split out
// of Connect so it can be driven against any Transport, real or faked,
// in tests.
func handshake(ctx context.Context, conn *Conn, session *Session, watches WatchRegistry, connMgr ConnectionManager, sessionTimeout time.Duration) error {
	if _, err := conn.Submit(ctx, RequestPacket{
		Kind: PacketConfigureManagers,
		Managers: &Managers{
			Session:    session,
			Watches:    watches,
			Connection: connMgr,
		},
	}); err != nil {
		return err
	}
	if _, err := conn.Submit(ctx, RequestPacket{Kind: PacketConfigureDone}); err != nil {
		return err
	}

	reply, err := conn.Submit(ctx, RequestPacket{
		Kind:   PacketConnect,
		Opcode: wire.OpCreateSession,
		Body: wire.ConnectRequest{
			ProtocolVersion: 0,
			LastZxidSeen:    0,
			Timeout:         int32(sessionTimeout.Milliseconds()),
			SessionID:       0,
			Passwd:          make([]byte, 16),
		},
	})
	if err != nil {
		conn.fail(err)
		return fmt.Errorf("connect: session handshake: %w", err)
	}
	connResp, ok := reply.Body.(wire.ConnectResponse)
	if !ok {
		err := fmt.Errorf("connect: unexpected reply body type %T for session handshake", reply.Body)
		conn.fail(err)
		return err
	}
	session.EstablishSession(connResp)

	return nil
}

// wrapTracer returns the tracer WithTracer installed (already adapted to
// the internal traceTracer contract), defaulting to a real OpenTelemetry
// tracer when none was configured.
func wrapTracer(t traceTracer) traceTracer {
	if t != nil {
		return t
	}
	return newOtelTracer(nil)
}

// Close terminates the session by submitting CLOSE_SESSION and failing
// the dispatcher.
func (c *Conn) Close(ctx context.Context) error {
	if s, ok := c.session.(*Session); ok {
		s.MarkClosing()
	}
	_, err := c.Submit(ctx, RequestPacket{Kind: PacketProtocol, Opcode: wire.OpClose})
	c.fail(ErrConnClosed)
	if wr, ok := c.watches.(*defaultWatchRegistry); ok {
		wr.Close()
	}
	return err
}

// State reports the session's current ZooKeeper connection state.
func (c *Conn) State() zk.State {
	if s, ok := c.session.(*Session); ok {
		return s.State()
	}
	return zk.StateDisconnected
}
