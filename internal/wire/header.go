package wire

import (
	"encoding/binary"

	zk "github.com/Shopify/zk"
)

// RequestHeader is the first bytes for all request packets except the
// headerless session-connect request.
type RequestHeader struct {
	Xid    int32
	Opcode OpCode
}

func (h RequestHeader) Encode() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], uint32(h.Xid))
	binary.BigEndian.PutUint32(buf[4:8], uint32(h.Opcode))
	return buf
}

// ResponseHeader is the fixed-shape prefix of every reply packet except
// the CREATE_SESSION reply, which has no header.
//
// Xid -1 denotes a watch notification, -2 a heartbeat (ping) reply; any
// other value is matched against a pending request record.
type ResponseHeader struct {
	Xid  int32
	Zxid int64
	Err  zk.ErrCode
}

const (
	XidWatchEvent int32 = -1
	XidPing       int32 = -2
)

const responseHeaderLen = 4 + 8 + 4

// DecodeHeader implements the Header Decoder (C2): a pure function over
// a buffer prefix. If Err is non-zero the header is still returned
// successfully — the caller decides whether to skip the body.
func DecodeHeader(buf []byte) (ResponseHeader, []byte, error) {
	if len(buf) < responseHeaderLen {
		return ResponseHeader{}, nil, &DecodeError{Stage: "header", Err: ErrShortBuffer}
	}
	h := ResponseHeader{
		Xid:  int32(binary.BigEndian.Uint32(buf[0:4])),
		Zxid: int64(binary.BigEndian.Uint64(buf[4:12])),
		Err:  zk.ErrCode(int32(binary.BigEndian.Uint32(buf[12:16]))),
	}
	return h, buf[responseHeaderLen:], nil
}
