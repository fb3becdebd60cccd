package client

import (
	"sync"
	"sync/atomic"

	zk "github.com/Shopify/zk"
	"github.com/ValerySidorin/zkdispatch/internal/wire"
)

// SessionManager is the narrow interface the dispatcher programs
// against: whether the session is closing, parsing a watch event, the
// heartbeat scheduler's cancel, and a settable state. The dispatcher
// never reaches back into the session manager beyond this surface, so
// session bookkeeping can't grow a dependency back onto the dispatcher.
type SessionManager interface {
	IsClosingSession() bool
	ParseWatchEvent(ev wire.WatchEvent)
	CancelPingScheduler()
	SetState(zk.State)
	EstablishSession(resp wire.ConnectResponse)
}

// pingScheduler is the session's heartbeat cancel handle: the dispatcher
// cancels it the instant it fails. It runs no timer and sends no pings
// itself; Cancel only closes its stop channel, once.
type pingScheduler struct {
	stop chan struct{}
	once sync.Once
}

func newPingScheduler() *pingScheduler {
	return &pingScheduler{stop: make(chan struct{})}
}

func (p *pingScheduler) Cancel() {
	p.once.Do(func() { close(p.stop) })
}

// Session is the default SessionManager. It tracks connection state and
// the fields a watch event needs to be interpreted (session id, last
// seen zxid), matching the fields ConnectResponse establishes.
type Session struct {
	mu sync.Mutex

	sessionID    int64
	passwd       []byte
	timeout      int32
	lastZxidSeen int64

	state        atomic.Value // zk.State
	closing      atomic.Bool
	firstConnect atomic.Bool

	ping *pingScheduler
}

func NewSession() *Session {
	s := &Session{ping: newPingScheduler()}
	s.state.Store(zk.StateDisconnected)
	s.firstConnect.Store(true)
	return s
}

func (s *Session) IsClosingSession() bool {
	return s.closing.Load()
}

func (s *Session) MarkClosing() {
	s.closing.Store(true)
}

func (s *Session) SetState(state zk.State) {
	s.state.Store(state)
}

func (s *Session) State() zk.State {
	return s.state.Load().(zk.State)
}

func (s *Session) CancelPingScheduler() {
	s.ping.Cancel()
}

// EstablishSession is invoked on receipt of the CREATE_SESSION reply:
// it records the session id, password, and negotiated timeout, and
// marks the session connected with first-connect cleared.
func (s *Session) EstablishSession(resp wire.ConnectResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = resp.SessionID
	s.passwd = resp.Passwd
	s.timeout = resp.Timeout
	s.state.Store(zk.StateConnected)
	s.firstConnect.Store(false)
}

func (s *Session) ParseWatchEvent(ev wire.WatchEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Store(ev.State)
}
