package wire

import zk "github.com/Shopify/zk"

// ConnectRequest is the headerless session-establishment body.
type ConnectRequest struct {
	ProtocolVersion int32
	LastZxidSeen    int64
	Timeout         int32
	SessionID       int64
	Passwd          []byte
}

type CreateRequest struct {
	Path  string
	Data  []byte
	Acl   []zk.ACL
	Flags int32
}

type DeleteRequest struct {
	Path    string
	Version int32
}

type pathWatchRequest struct {
	Path  string
	Watch bool
}

type ExistsRequest pathWatchRequest
type GetDataRequest pathWatchRequest
type GetChildrenRequest pathWatchRequest
type GetChildren2Request pathWatchRequest

type SetDataRequest struct {
	Path    string
	Data    []byte
	Version int32
}

type GetAclRequest struct {
	Path string
}

type SetAclRequest struct {
	Path    string
	Acl     []zk.ACL
	Version int32
}

type SyncRequest struct {
	Path string
}

type SetAuthRequest struct {
	Type   int32
	Scheme string
	Auth   []byte
}

type SetWatchesRequest struct {
	RelativeZxid int64
	DataWatches  []string
	ExistWatches []string
	ChildWatches []string
}

// MultiRequestOp is one operation inside a MULTI transaction. Encode
// writes Header and then the op body, chosen by the Go type of Op
// (CreateRequest, DeleteRequest or SetDataRequest); Header.Type is not
// consulted, and any other Op type adds no body.
type MultiRequestOp struct {
	Header MultiHeader
	Op     any
}

type MultiHeader struct {
	Type OpCode
	Done bool
	Err  zk.ErrCode
}

func (r MultiRequestOp) Encode() []byte {
	buf := Encode(r.Header)
	switch op := r.Op.(type) {
	case CreateRequest:
		buf = append(buf, Encode(op)...)
	case DeleteRequest:
		buf = append(buf, Encode(op)...)
	case SetDataRequest:
		buf = append(buf, Encode(op)...)
	case nil:
	}
	return buf
}
