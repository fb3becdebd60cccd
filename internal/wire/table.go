package wire

import zk "github.com/Shopify/zk"

// BodyDecoder decodes a reply body from the bytes remaining after the
// header, returning the number of bytes consumed.
type BodyDecoder func(buf []byte) (body any, consumed int, err error)

// bodyTable is keyed by opcode. Opcodes without a body (AUTH, PING,
// CLOSE_SESSION, DELETE, SET_WATCHES) are intentionally absent —
// DecodeBody never consults the table for them.
var bodyTable = map[OpCode]BodyDecoder{
	OpCreate: func(buf []byte) (any, int, error) {
		var r CreateResponse
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpCreate2: func(buf []byte) (any, int, error) {
		var r Create2Response
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpExists: func(buf []byte) (any, int, error) {
		var r ExistsResponse
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpGetData: func(buf []byte) (any, int, error) {
		var r GetDataResponse
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpSetData: func(buf []byte) (any, int, error) {
		var r SetDataResponse
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpSync: func(buf []byte) (any, int, error) {
		var r SyncResponse
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpGetACL: func(buf []byte) (any, int, error) {
		var r GetAclResponse
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpSetACL: func(buf []byte) (any, int, error) {
		var r SetAclResponse
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpGetChildren: func(buf []byte) (any, int, error) {
		var r GetChildrenResponse
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpGetChildren2: func(buf []byte) (any, int, error) {
		var r GetChildren2Response
		rest, err := Decode(buf, &r)
		return r, len(buf) - len(rest), err
	},
	OpMulti: func(buf []byte) (any, int, error) {
		r := &MultiResponse{}
		n, err := r.Decode(buf)
		return r, n, err
	},
}

// DecodeBody implements the Body Decoder Table (C3): dispatch on opcode,
// honoring the header error code. If err != 0 the reply packet carries
// an empty body regardless of the opcode's normal shape.
func DecodeBody(op OpCode, headerErr zk.ErrCode, buf []byte) (body any, consumed int, err error) {
	if headerErr != 0 {
		return nil, 0, nil
	}
	if !op.HasBody() {
		return nil, 0, nil
	}
	dec, ok := bodyTable[op]
	if !ok {
		return nil, 0, &DecodeError{Stage: "body", Err: ErrUnknownOpcode}
	}
	body, consumed, err = dec(buf)
	if err != nil {
		return nil, consumed, &DecodeError{Stage: "body", Err: err}
	}
	return body, consumed, nil
}
