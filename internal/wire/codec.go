package wire

import (
	"encoding/binary"
	"reflect"
)

// decoder lets a type take over its own decoding, the way MultiResponse
// (responses.go) does for MULTI's repeated, heterogeneous op stream.
type decoder interface {
	Decode(buf []byte) (int, error)
}

type encoder interface {
	Encode() []byte
}

// DecodeValue reflects over a struct (or one of the scalar kinds it
// bottoms out at) and consumes bytes from buf in field order.
//
// Grounded directly on jeffbean/zkpacket's proto/decode.go
// decodePacketValue: the same reflect-and-recurse walk over Bool,
// Int32, Int64, String and Slice fields, generalized here to also serve
// as the encoder's mirror image.
func DecodeValue(buf []byte, v reflect.Value) (int, error) {
	rv := v
	kind := v.Kind()
	if kind == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
		kind = v.Kind()
	}

	n := 0
	switch kind {
	default:
		return n, &DecodeError{Stage: "body", Err: ErrShortBuffer}
	case reflect.Struct:
		if de, ok := rv.Interface().(decoder); ok {
			return de.Decode(buf)
		}
		for i := 0; i < v.NumField(); i++ {
			n2, err := DecodeValue(buf[n:], v.Field(i))
			n += n2
			if err != nil {
				return n, err
			}
		}
	case reflect.Bool:
		if len(buf) < n+1 {
			return n, &DecodeError{Stage: "body", Err: ErrShortBuffer}
		}
		v.SetBool(buf[n] != 0)
		n++
	case reflect.Int32:
		if len(buf) < n+4 {
			return n, &DecodeError{Stage: "body", Err: ErrShortBuffer}
		}
		v.SetInt(int64(int32(binary.BigEndian.Uint32(buf[n : n+4]))))
		n += 4
	case reflect.Int64:
		if len(buf) < n+8 {
			return n, &DecodeError{Stage: "body", Err: ErrShortBuffer}
		}
		v.SetInt(int64(binary.BigEndian.Uint64(buf[n : n+8])))
		n += 8
	case reflect.String:
		if len(buf) < n+4 {
			return n, &DecodeError{Stage: "body", Err: ErrShortBuffer}
		}
		ln := int(binary.BigEndian.Uint32(buf[n : n+4]))
		if ln < 0 || len(buf) < n+4+ln {
			return n, &DecodeError{Stage: "body", Err: ErrShortBuffer}
		}
		v.SetString(string(buf[n+4 : n+4+ln]))
		n += 4 + ln
	case reflect.Slice:
		switch v.Type().Elem().Kind() {
		default:
			if len(buf) < n+4 {
				return n, &DecodeError{Stage: "body", Err: ErrShortBuffer}
			}
			count := int(int32(binary.BigEndian.Uint32(buf[n : n+4])))
			n += 4
			if count < 0 {
				v.Set(reflect.Zero(v.Type()))
				return n, nil
			}
			values := reflect.MakeSlice(v.Type(), count, count)
			v.Set(values)
			for i := 0; i < count; i++ {
				n2, err := DecodeValue(buf[n:], values.Index(i))
				n += n2
				if err != nil {
					return n, err
				}
			}
		case reflect.Uint8:
			if len(buf) < n+4 {
				return n, &DecodeError{Stage: "body", Err: ErrShortBuffer}
			}
			ln := int(int32(binary.BigEndian.Uint32(buf[n : n+4])))
			if ln < 0 {
				n += 4
				v.SetBytes(nil)
				return n, nil
			}
			if len(buf) < n+4+ln {
				return n, &DecodeError{Stage: "body", Err: ErrShortBuffer}
			}
			bytes := make([]byte, ln)
			copy(bytes, buf[n+4:n+4+ln])
			v.SetBytes(bytes)
			n += 4 + ln
		}
	}
	return n, nil
}

// EncodeValue is DecodeValue's mirror: it appends v's wire form to buf
// and returns the extended slice.
func EncodeValue(buf []byte, v reflect.Value) []byte {
	if en, ok := v.Interface().(encoder); ok {
		return append(buf, en.Encode()...)
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return EncodeValue(buf, reflect.New(v.Type().Elem()).Elem())
		}
		return EncodeValue(buf, v.Elem())
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			buf = EncodeValue(buf, v.Field(i))
		}
	case reflect.Bool:
		if v.Bool() {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case reflect.Int32:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(v.Int()))
		buf = append(buf, tmp[:]...)
	case reflect.Int64:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], uint64(v.Int()))
		buf = append(buf, tmp[:]...)
	case reflect.String:
		s := v.String()
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(len(s)))
		buf = append(buf, tmp[:]...)
		buf = append(buf, s...)
	case reflect.Slice:
		switch v.Type().Elem().Kind() {
		case reflect.Uint8:
			b := v.Bytes()
			var tmp [4]byte
			if b == nil {
				var nilLen int32 = -1
				binary.BigEndian.PutUint32(tmp[:], uint32(nilLen))
				buf = append(buf, tmp[:]...)
			} else {
				binary.BigEndian.PutUint32(tmp[:], uint32(len(b)))
				buf = append(buf, tmp[:]...)
				buf = append(buf, b...)
			}
		default:
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], uint32(v.Len()))
			buf = append(buf, tmp[:]...)
			for i := 0; i < v.Len(); i++ {
				buf = EncodeValue(buf, v.Index(i))
			}
		}
	}
	return buf
}

// Encode appends v's wire encoding to a fresh buffer.
func Encode(v any) []byte {
	return EncodeValue(nil, reflect.ValueOf(v))
}

// Decode consumes v's wire encoding from buf, returning the remainder.
func Decode(buf []byte, v any) ([]byte, error) {
	n, err := DecodeValue(buf, reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return buf[n:], nil
}
