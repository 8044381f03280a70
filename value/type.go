// Package value decodes the BinXML typed-value wire format (spec §3 "Typed
// value", §4.2) into a tagged variant, and renders each variant to its
// canonical text form (spec §4.5 "type coercion for text").
//
// Grounded on other_examples/d6ec8c43_2igosha-igevtx__igevtx-parse.go.go's
// TemplateInstance type switch, generalized from that file's partial type
// table (it only covers the types a handful of sample logs exercised) to
// the full set the format defines, including every array form.
package value

import "fmt"

// Type is the one-byte type tag BinXML uses to identify a value's shape.
// Array types set the high bit (0x80) over their scalar element type.
type Type uint8

const (
	TypeNull         Type = 0x00
	TypeString       Type = 0x01 // UTF-16LE; byte length comes from the value's descriptor
	TypeAnsiString   Type = 0x02 // ANSI-code-page string
	TypeInt8         Type = 0x03
	TypeUInt8        Type = 0x04
	TypeInt16        Type = 0x05
	TypeUInt16       Type = 0x06
	TypeInt32        Type = 0x07
	TypeUInt32       Type = 0x08
	TypeInt64        Type = 0x09
	TypeUInt64       Type = 0x0A
	TypeReal32       Type = 0x0B
	TypeReal64       Type = 0x0C
	TypeBool         Type = 0x0D
	TypeBinary       Type = 0x0E
	TypeGUID         Type = 0x0F
	TypeSizeT        Type = 0x10 // pointer-sized int, width = producer's platform word size
	TypeFileTime     Type = 0x11
	TypeSysTime      Type = 0x12
	TypeSID          Type = 0x13
	TypeHexInt32     Type = 0x14
	TypeHexInt64     Type = 0x15
	TypeEvtHandle    Type = 0x20
	TypeBinXML       Type = 0x21
	TypeEvtXML       Type = 0x22

	typeArrayFlag Type = 0x80

	TypeStringArray     = TypeString | typeArrayFlag
	TypeAnsiStringArray = TypeAnsiString | typeArrayFlag
	TypeInt8Array       = TypeInt8 | typeArrayFlag
	TypeUInt8Array      = TypeUInt8 | typeArrayFlag
	TypeInt16Array      = TypeInt16 | typeArrayFlag
	TypeUInt16Array     = TypeUInt16 | typeArrayFlag
	TypeInt32Array      = TypeInt32 | typeArrayFlag
	TypeUInt32Array     = TypeUInt32 | typeArrayFlag
	TypeInt64Array      = TypeInt64 | typeArrayFlag
	TypeUInt64Array     = TypeUInt64 | typeArrayFlag
	TypeReal32Array     = TypeReal32 | typeArrayFlag
	TypeReal64Array     = TypeReal64 | typeArrayFlag
	TypeBoolArray       = TypeBool | typeArrayFlag
	TypeBinaryArray     = TypeBinary | typeArrayFlag
	TypeGUIDArray       = TypeGUID | typeArrayFlag
	TypeSizeTArray      = TypeSizeT | typeArrayFlag
	TypeFileTimeArray   = TypeFileTime | typeArrayFlag
	TypeSysTimeArray    = TypeSysTime | typeArrayFlag
	TypeSIDArray        = TypeSID | typeArrayFlag
	TypeHexInt32Array   = TypeHexInt32 | typeArrayFlag
	TypeHexInt64Array   = TypeHexInt64 | typeArrayFlag
)

// IsArray reports whether t is the array form of some scalar type.
func (t Type) IsArray() bool {
	return t&typeArrayFlag != 0 && t != typeArrayFlag
}

// Elem returns the scalar element type backing an array type. For a
// non-array type, Elem returns t unchanged.
func (t Type) Elem() Type {
	if t.IsArray() {
		return t &^ typeArrayFlag
	}

	return t
}

// Known reports whether t is one of the recognised type tags (scalar or array).
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

var typeNames = map[Type]string{
	TypeNull:       "Null",
	TypeString:     "String",
	TypeAnsiString: "AnsiString",
	TypeInt8:       "Int8",
	TypeUInt8:      "UInt8",
	TypeInt16:      "Int16",
	TypeUInt16:     "UInt16",
	TypeInt32:      "Int32",
	TypeUInt32:     "UInt32",
	TypeInt64:      "Int64",
	TypeUInt64:     "UInt64",
	TypeReal32:     "Real32",
	TypeReal64:     "Real64",
	TypeBool:       "Bool",
	TypeBinary:     "Binary",
	TypeGUID:       "GUID",
	TypeSizeT:      "SizeT",
	TypeFileTime:   "FileTime",
	TypeSysTime:    "SysTime",
	TypeSID:        "SID",
	TypeHexInt32:   "HexInt32",
	TypeHexInt64:   "HexInt64",
	TypeEvtHandle:  "EvtHandle",
	TypeBinXML:     "BinXml",
	TypeEvtXML:     "EvtXml",

	TypeStringArray:     "StringArray",
	TypeAnsiStringArray: "AnsiStringArray",
	TypeInt8Array:       "Int8Array",
	TypeUInt8Array:      "UInt8Array",
	TypeInt16Array:      "Int16Array",
	TypeUInt16Array:     "UInt16Array",
	TypeInt32Array:      "Int32Array",
	TypeUInt32Array:     "UInt32Array",
	TypeInt64Array:      "Int64Array",
	TypeUInt64Array:     "UInt64Array",
	TypeReal32Array:     "Real32Array",
	TypeReal64Array:     "Real64Array",
	TypeBoolArray:       "BoolArray",
	TypeBinaryArray:     "BinaryArray",
	TypeGUIDArray:       "GUIDArray",
	TypeSizeTArray:      "SizeTArray",
	TypeFileTimeArray:   "FileTimeArray",
	TypeSysTimeArray:    "SysTimeArray",
	TypeSIDArray:        "SIDArray",
	TypeHexInt32Array:   "HexInt32Array",
	TypeHexInt64Array:   "HexInt64Array",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
}

// FixedElemSize returns the on-disk size in bytes of one element of a
// fixed-width scalar type, or 0 if the type's elements are self-delimiting
// (strings, SIDs) and must be scanned rather than divided.
func (t Type) FixedElemSize() int {
	switch t.Elem() {
	case TypeInt8, TypeUInt8, TypeBool:
		return 1
	case TypeInt16, TypeUInt16:
		return 2
	case TypeInt32, TypeUInt32, TypeReal32, TypeHexInt32:
		return 4
	case TypeInt64, TypeUInt64, TypeReal64, TypeFileTime, TypeHexInt64:
		return 8
	case TypeGUID:
		return 16
	case TypeSysTime:
		return 16
	default:
		return 0
	}
}
