package value

import (
	"fmt"

	"github.com/goevtx/evtx/cursor"
	"github.com/goevtx/evtx/errs"
)

// boolArrayElemSize is the wire width of one BOOL array element — the
// format's BOOL is a 4-byte int32, unlike the tolerant 1-or-more-byte
// scalar Bool decode above.
const boolArrayElemSize = 4

func decodeArray(tag Type, length int, r *cursor.Reader, ptrWidth int) (Value, error) {
	v := Value{Type: tag}

	if length <= 0 {
		v.Array = []Value{}
		return v, nil
	}

	elem := tag.Elem()

	switch elem {
	case TypeString:
		elems, err := decodeStringArray(r, length)
		if err != nil {
			return v, err
		}
		v.Array = elems
		return v, nil

	case TypeAnsiString:
		elems, err := decodeAnsiStringArray(r, length)
		if err != nil {
			return v, err
		}
		v.Array = elems
		return v, nil

	case TypeSID:
		elems, err := decodeSIDArray(r, length)
		if err != nil {
			return v, err
		}
		v.Array = elems
		return v, nil
	}

	elemSize := elem.FixedElemSize()
	switch elem {
	case TypeBool:
		elemSize = boolArrayElemSize
	case TypeSizeT:
		elemSize = ptrWidth
		if elemSize != 4 && elemSize != 8 {
			elemSize = 8
		}
	}

	if elemSize == 0 {
		return v, fmt.Errorf("%w: array element type %s has no fixed width", errs.ErrInvalidValueType, elem)
	}

	if length%elemSize != 0 {
		return v, fmt.Errorf("%w: array byte length %d not a multiple of element size %d for %s",
			errs.ErrInvalidValueType, length, elemSize, elem)
	}

	count := length / elemSize
	elems := make([]Value, 0, count)
	for i := 0; i < count; i++ {
		ev, err := decodeScalar(elem, elemSize, r, ptrWidth)
		if err != nil {
			return v, err
		}
		elems = append(elems, ev)
	}

	v.Array = elems

	return v, nil
}

// decodeStringArray reads back-to-back NUL-terminated UTF-16 strings packed
// into exactly length bytes.
func decodeStringArray(r *cursor.Reader, length int) ([]Value, error) {
	sub, err := r.Sub(length)
	if err != nil {
		return nil, err
	}

	var out []Value
	for sub.Len() > 0 {
		s, err := sub.NullTerminatedUTF16()
		if err != nil {
			break
		}
		out = append(out, Value{Type: TypeString, Str: s})
	}

	if out == nil {
		out = []Value{}
	}

	return out, nil
}

// decodeAnsiStringArray reads back-to-back NUL-terminated byte strings
// packed into exactly length bytes.
func decodeAnsiStringArray(r *cursor.Reader, length int) ([]Value, error) {
	sub, err := r.Sub(length)
	if err != nil {
		return nil, err
	}

	var out []Value
	var cur []byte
	for sub.Len() > 0 {
		b, err := sub.U8()
		if err != nil {
			break
		}
		if b == 0 {
			out = append(out, Value{Type: TypeAnsiString, Bytes: cur})
			cur = nil
			continue
		}
		cur = append(cur, b)
	}
	if len(cur) > 0 {
		out = append(out, Value{Type: TypeAnsiString, Bytes: cur})
	}

	if out == nil {
		out = []Value{}
	}

	return out, nil
}

// decodeSIDArray reads back-to-back self-delimiting SIDs until length bytes
// are consumed.
func decodeSIDArray(r *cursor.Reader, length int) ([]Value, error) {
	sub, err := r.Sub(length)
	if err != nil {
		return nil, err
	}

	var out []Value
	for sub.Len() > 0 {
		b, _, err := decodeSID(sub, -1)
		if err != nil {
			break
		}
		out = append(out, Value{Type: TypeSID, SID: b})
	}

	if out == nil {
		out = []Value{}
	}

	return out, nil
}
