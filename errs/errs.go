// Package errs defines the sentinel errors shared across goevtx's decoding
// pipeline, plus the error-kind taxonomy callers can switch over instead of
// matching error strings.
//
// Every package wraps these sentinels with fmt.Errorf("...: %w", errs.ErrX)
// so that errors.Is still matches while the message carries position detail.
package errs

import "errors"

// Kind classifies an error into the taxonomy a caller can act on without
// string-matching. It mirrors the "error taxonomy (kinds, not types)" used
// throughout the decode pipeline: every sentinel below belongs to exactly
// one Kind, reported via Of.
type Kind int

const (
	KindUnknown Kind = iota
	KindIO
	KindInvalidMagic
	KindChecksum
	KindTruncatedInput
	KindInvalidToken
	KindInvalidValueType
	KindUnresolvedCacheRef
	KindSubstitutionMismatch
	KindRecursionLimit
	KindSerialisation
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IO"
	case KindInvalidMagic:
		return "InvalidMagic"
	case KindChecksum:
		return "Checksum"
	case KindTruncatedInput:
		return "TruncatedInput"
	case KindInvalidToken:
		return "InvalidToken"
	case KindInvalidValueType:
		return "InvalidValueType"
	case KindUnresolvedCacheRef:
		return "UnresolvedCacheRef"
	case KindSubstitutionMismatch:
		return "SubstitutionMismatch"
	case KindRecursionLimit:
		return "RecursionLimit"
	case KindSerialisation:
		return "SerialisationError"
	default:
		return "Unknown"
	}
}

// Sentinel errors. Each belongs to exactly one Kind (see Of).
var (
	ErrUnexpectedEOF          = errors.New("cursor: unexpected end of data")
	ErrInvalidFileMagic       = errors.New("file: invalid magic")
	ErrInvalidChunkMagic      = errors.New("chunk: invalid magic")
	ErrInvalidRecordMagic     = errors.New("record: invalid magic")
	ErrInvalidVersion         = errors.New("file: unsupported version")
	ErrChunkHeaderChecksum    = errors.New("chunk: header checksum mismatch")
	ErrChunkDataChecksum      = errors.New("chunk: data checksum mismatch")
	ErrRecordLengthMismatch   = errors.New("record: leading/trailing length mismatch")
	ErrInvalidToken           = errors.New("binxml: unrecognised token")
	ErrInvalidValueType       = errors.New("value: unrecognised type tag")
	ErrUnresolvedCacheRef     = errors.New("cache: back-reference to unpopulated offset")
	ErrCacheOffsetEscapesChunk = errors.New("cache: offset escapes chunk bounds")
	ErrSubstitutionMismatch   = errors.New("model: substitution slot/value count mismatch")
	ErrSubstitutionIndexRange = errors.New("model: substitution slot index out of range")
	ErrRecursionLimit         = errors.New("model: embedded BinXml recursion limit exceeded")
	ErrSerialisation          = errors.New("serialize: value not representable in target format")
	ErrUnsupportedCodePage    = errors.New("serialize: unsupported ANSI code page, falling back")
	ErrNameHashMismatch       = errors.New("cache: declared name hash does not match recomputed hash")
	ErrFileHeaderChecksum     = errors.New("file: header checksum mismatch")
	ErrIO                     = errors.New("io: read failure")
)

var kindOf = map[error]Kind{
	ErrUnexpectedEOF:           KindTruncatedInput,
	ErrInvalidFileMagic:        KindInvalidMagic,
	ErrInvalidChunkMagic:       KindInvalidMagic,
	ErrInvalidRecordMagic:      KindInvalidMagic,
	ErrInvalidVersion:          KindInvalidMagic,
	ErrChunkHeaderChecksum:     KindChecksum,
	ErrChunkDataChecksum:       KindChecksum,
	ErrRecordLengthMismatch:    KindTruncatedInput,
	ErrInvalidToken:            KindInvalidToken,
	ErrInvalidValueType:        KindInvalidValueType,
	ErrUnresolvedCacheRef:      KindUnresolvedCacheRef,
	ErrCacheOffsetEscapesChunk: KindUnresolvedCacheRef,
	ErrSubstitutionMismatch:    KindSubstitutionMismatch,
	ErrSubstitutionIndexRange:  KindSubstitutionMismatch,
	ErrRecursionLimit:          KindRecursionLimit,
	ErrSerialisation:           KindSerialisation,
	ErrUnsupportedCodePage:     KindSerialisation,
	ErrNameHashMismatch:        KindChecksum,
	ErrFileHeaderChecksum:      KindChecksum,
	ErrIO:                      KindIO,
}

// Of reports the Kind of err by walking its wrap chain against the sentinel
// table above. Returns KindUnknown if neither err nor anything in its chain
// is one of this package's sentinels.
func Of(err error) Kind {
	for sentinel, kind := range kindOf {
		if errors.Is(err, sentinel) {
			return kind
		}
	}

	return KindUnknown
}
