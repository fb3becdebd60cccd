package client

import (
	"github.com/ValerySidorin/zkdispatch/internal/wire"
)

// requestRecord is created at submission and destroyed once its result
// slot is completed. The xid is absent (kind == recordConnect) only for
// the session-establishment request, which has no header.
type requestRecord struct {
	opcode wire.OpCode
	xid    int32
	kind   recordKind
}

type recordKind int

const (
	recordProtocol recordKind = iota
	recordConnect
)

// packetKind tags the request packet variants for exhaustive dispatch,
// in place of an implicit "headerless means connect" convention.
type packetKind int

const (
	// PacketProtocol is a header + body request routed through the
	// pending queue and correlated against its reply.
	PacketProtocol packetKind = iota
	// PacketConnect is the headerless session-establishment request.
	PacketConnect
	// PacketConfigureManagers attaches collaborator handles. It bypasses
	// the pending queue entirely.
	PacketConfigureManagers
	// PacketConfigureDone signals that dispatcher setup is complete.
	PacketConfigureDone
)

// RequestPacket is a tagged union: dispatch over it is exhaustive in
// Conn.Submit's switch.
type RequestPacket struct {
	Kind   packetKind
	Opcode wire.OpCode
	Body   any // encodable request body (wire.ConnectRequest for PacketConnect); nil for opcodes with no body

	// Managers is populated only for PacketConfigureManagers.
	Managers *Managers
}

// ReplyPacket is a header plus an optional decoded body. Body is nil
// when header.Err != 0 or when the opcode carries no body.
type ReplyPacket struct {
	Header wire.ResponseHeader
	Body   any
}

// Managers bundles the collaborator handles attached via
// PacketConfigureManagers.
type Managers struct {
	Session    SessionManager
	Watches    WatchRegistry
	Connection ConnectionManager
}
