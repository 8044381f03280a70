package value

import (
	"fmt"

	"github.com/goevtx/evtx/cursor"
	"github.com/goevtx/evtx/errs"
)

// Decode reads one value of the given type from r. length is the declared
// byte length of the value as carried by the substitution/template-instance
// value-array entry; it is authoritative for variable-length and array
// types (spec §4.2 "Array decoding uses the byte length"). ptrWidth is the
// producer's platform word size (4 or 8), needed only for TypeSizeT.
func Decode(tag Type, length int, r *cursor.Reader, ptrWidth int) (Value, error) {
	if !tag.Known() {
		return Value{}, fmt.Errorf("%w: 0x%02X", errs.ErrInvalidValueType, uint8(tag))
	}

	start := r.Offset()

	var (
		v   Value
		err error
	)

	if tag.IsArray() {
		v, err = decodeArray(tag, length, r, ptrWidth)
	} else {
		v, err = decodeScalar(tag, length, r, ptrWidth)
	}

	v.SourceOffset = start

	return v, err
}

func decodeScalar(tag Type, length int, r *cursor.Reader, ptrWidth int) (Value, error) {
	v := Value{Type: tag}

	switch tag {
	case TypeNull:
		return v, nil

	case TypeString:
		s, err := decodeUTF16Bytes(r, length)
		if err != nil {
			return v, err
		}
		v.Str = s

	case TypeAnsiString:
		b, err := r.FixedBytes(length)
		if err != nil {
			return v, err
		}
		v.Bytes = b

	case TypeInt8:
		n, err := r.I8()
		v.I64 = int64(n)
		return v, err
	case TypeUInt8:
		n, err := r.U8()
		v.U64 = uint64(n)
		return v, err
	case TypeInt16:
		n, err := r.I16()
		v.I64 = int64(n)
		return v, err
	case TypeUInt16:
		n, err := r.U16()
		v.U64 = uint64(n)
		return v, err
	case TypeInt32:
		n, err := r.I32()
		v.I64 = int64(n)
		return v, err
	case TypeUInt32:
		n, err := r.U32()
		v.U64 = uint64(n)
		return v, err
	case TypeInt64:
		n, err := r.I64()
		v.I64 = n
		return v, err
	case TypeUInt64:
		n, err := r.U64()
		v.U64 = n
		return v, err
	case TypeReal32:
		f, err := r.F32()
		v.F64 = float64(f)
		return v, err
	case TypeReal64:
		f, err := r.F64()
		v.F64 = f
		return v, err

	case TypeBool:
		// Declared as a 4-byte BOOL on the wire but spec §3 notes "one
		// byte, 0/1, with looser tolerance on render" — any non-zero byte
		// in the declared length is treated as true.
		n := length
		if n <= 0 {
			n = 4
		}
		b, err := r.FixedBytes(n)
		if err != nil {
			return v, err
		}
		for _, byt := range b {
			if byt != 0 {
				v.Bool = true
				break
			}
		}

	case TypeBinary:
		b, err := r.FixedBytes(length)
		if err != nil {
			return v, err
		}
		v.Bytes = b

	case TypeGUID:
		g, err := r.GUID()
		v.GUID = g
		return v, err

	case TypeSizeT:
		width := ptrWidth
		if width != 4 && width != 8 {
			width = 8
		}
		if width == 4 {
			n, err := r.U32()
			v.U64 = uint64(n)
			v.PtrWidth = 4
			return v, err
		}
		n, err := r.U64()
		v.U64 = n
		v.PtrWidth = 8
		return v, err

	case TypeFileTime:
		n, err := r.U64()
		v.U64 = n
		return v, err

	case TypeSysTime:
		st, err := decodeSysTime(r)
		v.SysTime = st
		return v, err

	case TypeSID:
		b, sidLen, err := decodeSID(r, length)
		if err != nil {
			return v, err
		}
		_ = sidLen
		v.SID = b

	case TypeHexInt32:
		n, err := r.U32()
		v.U64 = uint64(n)
		return v, err
	case TypeHexInt64:
		n, err := r.U64()
		v.U64 = n
		return v, err

	case TypeBinXML, TypeEvtXML:
		b, err := r.FixedBytes(length)
		if err != nil {
			return v, err
		}
		v.BinXML = b

	case TypeEvtHandle:
		n, err := r.U64()
		v.U64 = n
		return v, err

	default:
		return v, fmt.Errorf("%w: 0x%02X", errs.ErrInvalidValueType, uint8(tag))
	}

	return v, nil
}

func decodeUTF16Bytes(r *cursor.Reader, length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("%w: negative string length", errs.ErrInvalidValueType)
	}

	n := length / 2
	s, err := r.FixedUTF16(n)
	if err != nil {
		return "", err
	}
	// A trailing NUL code unit is common in fixed-length value arrays; trim
	// it from the rendered text the way the reference decoder does.
	if len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}

	return s, nil
}

func decodeSysTime(r *cursor.Reader) (SystemTime, error) {
	var st SystemTime

	fields := []*uint16{
		&st.Year, &st.Month, &st.DayOfWeek, &st.Day,
		&st.Hour, &st.Minute, &st.Second, &st.Milliseconds,
	}

	for _, f := range fields {
		v, err := r.U16()
		if err != nil {
			return st, err
		}
		*f = v
	}

	return st, nil
}

// decodeSID reads a self-delimiting SID: 1-byte revision, 1-byte
// sub-authority count, 6-byte big-endian authority, then count x 4-byte LE
// sub-authorities. length is not consulted: the sub-authority count alone
// determines how many bytes are read.
func decodeSID(r *cursor.Reader, length int) ([]byte, int, error) {
	start := r.Pos()

	rev, err := r.U8()
	if err != nil {
		return nil, 0, err
	}
	subCount, err := r.U8()
	if err != nil {
		return nil, 0, err
	}
	authority, err := r.FixedBytes(6)
	if err != nil {
		return nil, 0, err
	}

	subAuths := make([]uint32, subCount)
	for i := range subAuths {
		v, err := r.U32()
		if err != nil {
			return nil, 0, err
		}
		subAuths[i] = v
	}

	total := r.Pos() - start
	out := make([]byte, 0, total)
	out = append(out, rev, subCount)
	out = append(out, authority...)
	for _, sa := range subAuths {
		out = append(out, byte(sa), byte(sa>>8), byte(sa>>16), byte(sa>>24))
	}

	return out, total, nil
}
