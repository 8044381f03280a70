package value

import "time"

// SystemTime is the 16-byte SYSTEMTIME structure (spec §3): year, month,
// dayOfWeek, day, hour, minute, second, milliseconds, each a little-endian
// uint16.
type SystemTime struct {
	Year         uint16
	Month        uint16
	DayOfWeek    uint16
	Day          uint16
	Hour         uint16
	Minute       uint16
	Second       uint16
	Milliseconds uint16
}

// Value is a tagged variant over every BinXML scalar and array type (spec
// §3 "Typed value", §9 "dynamic dispatch on value type": "implement as a
// tagged variant ... avoid a trait-object-per-value design"). Exactly one of
// the scalar fields below is meaningful for a given Type; Array holds the
// decoded elements when Type.IsArray() is true.
type Value struct {
	Type Type

	// Scalar payload. Which field is valid is determined by Type.
	I64     int64       // Int8/16/32/64
	U64     uint64      // UInt8/16/32/64, SizeT, EvtHandle, FileTime raw ticks, HexInt32/64 unsigned bits
	F64     float64     // Real32 (widened) and Real64
	Bool    bool        // Bool
	Str     string      // String
	Bytes   []byte      // Binary, AnsiString (raw code-page bytes)
	GUID    [16]byte    // GUID, on-disk mixed-endian layout
	SID     []byte      // SID, raw self-delimiting bytes (revision, count, authority, subauthorities)
	SysTime SystemTime  // SysTime
	BinXML  []byte      // BinXml: raw embedded fragment bytes, decoded recursively by model
	Array   []Value     // non-nil and populated when Type.IsArray()

	// PtrWidth records the producer's platform word size (4 or 8) used to
	// decode a SizeT value, so RenderText can format it without needing the
	// header back.
	PtrWidth int

	// SourceOffset is the absolute file offset at which this value's bytes
	// began. Only meaningful for TypeBinXML/TypeEvtXML, where the model
	// assembler needs it to reconstruct a correctly-based cursor over the
	// embedded fragment so its own name/template back-references resolve
	// against the right chunk-relative offsets.
	SourceOffset int64
}

// IsNull reports whether v represents the format's null/void value — used
// by the model assembler's optional-substitution pruning (spec §4.5).
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// Time converts a FileTime value to a UTC time.Time. Only valid when
// v.Type == TypeFileTime.
func (v Value) Time() time.Time {
	return fileTimeToTime(v.U64)
}

const fileTimeEpochDiff = 116444736000000000 // 100ns ticks between 1601-01-01 and 1970-01-01

// FileTimeToTime converts raw FILETIME ticks (100ns intervals since
// 1601-01-01) to a UTC time.Time — exported for callers outside this
// package that hold raw ticks without a Value wrapper (section.RecordHeader.FileTime).
func FileTimeToTime(ticks uint64) time.Time {
	return fileTimeToTime(ticks)
}

func fileTimeToTime(ticks uint64) time.Time {
	unixTicks := int64(ticks) - fileTimeEpochDiff
	sec := unixTicks / 10_000_000
	nsec := (unixTicks % 10_000_000) * 100

	return time.Unix(sec, nsec).UTC()
}
