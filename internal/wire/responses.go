package wire

import zk "github.com/Shopify/zk"

// ConnectResponse is CREATE_SESSION's body. It has no ResponseHeader:
// the body is decoded directly off the frame.
type ConnectResponse struct {
	ProtocolVersion int32
	Timeout         int32
	SessionID       int64
	Passwd          []byte
}

type CreateResponse struct {
	Path string
}

type Create2Response struct {
	Path string
	Stat *zk.Stat
}

type ExistsResponse struct {
	Stat *zk.Stat
}

type GetDataResponse struct {
	Data []byte
	Stat *zk.Stat
}

type SetDataResponse struct {
	Stat *zk.Stat
}

type GetChildrenResponse struct {
	Children []string
}

type GetChildren2Response struct {
	Children []string
	Stat     *zk.Stat
}

type GetAclResponse struct {
	Acl  []zk.ACL
	Stat *zk.Stat
}

type SetAclResponse struct {
	Stat *zk.Stat
}

type SyncResponse struct {
	Path string
}

// MultiResponseOp mirrors jeffbean/zkpacket's proto/decode.go
// multiResponseOp: a tagged union decoded from MultiHeader.Type.
type MultiResponseOp struct {
	Header MultiHeader
	String string
	Stat   *zk.Stat
	Err    zk.ErrCode
}

// MultiResponse decodes a MULTI reply's repeated op stream. Every op's
// outcome, including per-op errors, is surfaced to the caller (Ops):
// it is the caller's choice whether to treat any res.Err != 0 as fatal
// to the whole transaction rather than collapsing it into one
// transaction-level error.
type MultiResponse struct {
	Ops []MultiResponseOp
}

func (r *MultiResponse) Decode(buf []byte) (int, error) {
	total := 0
	for {
		header := MultiHeader{}
		rest, err := Decode(buf[total:], &header)
		if err != nil {
			return total, err
		}
		total += len(buf[total:]) - len(rest)

		if header.Done {
			break
		}

		res := MultiResponseOp{Header: header}
		switch header.Type {
		case OpError:
			rest, err := Decode(buf[total:], &res.Err)
			if err != nil {
				return total, err
			}
			total += len(buf[total:]) - len(rest)
		case OpCreate, OpCreate2:
			rest, err := Decode(buf[total:], &res.String)
			if err != nil {
				return total, err
			}
			total += len(buf[total:]) - len(rest)
		case OpSetData:
			res.Stat = new(zk.Stat)
			rest, err := Decode(buf[total:], res.Stat)
			if err != nil {
				return total, err
			}
			total += len(buf[total:]) - len(rest)
		case OpCheck, OpDelete:
			// no body
		default:
			return total, &DecodeError{Stage: "body", Err: ErrUnknownOpcode}
		}

		r.Ops = append(r.Ops, res)
	}
	return total, nil
}
