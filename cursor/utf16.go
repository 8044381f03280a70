package cursor

// DecodeUTF16 decodes a slice of UTF-16 code units into a string, replacing
// unpaired surrogates with U+FFFD rather than aborting (spec §4.2: decoders
// "must detect and reject unpaired surrogates, replacing them with the
// Unicode replacement character rather than aborting").
//
// This reimplements unicode/utf16.Decode's surrogate pairing by hand instead
// of calling it directly: utf16.Decode already replaces lone surrogates with
// the replacement character, but doing it inline here lets FixedUTF16 and
// NullTerminatedUTF16 share one ASCII-only fast path (see isASCIIRun) without
// an extra allocation/copy through the standard package's []rune result.
const (
	surrHighStart = 0xD800
	surrHighEnd   = 0xDBFF
	surrLowStart  = 0xDC00
	surrLowEnd    = 0xDFFF
	replacement   = 0xFFFD
)

func DecodeUTF16(units []uint16) string {
	if isASCIIRun(units) {
		return decodeASCIIRun(units)
	}

	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u < surrHighStart || u > surrLowEnd:
			runes = append(runes, rune(u))
		case u <= surrHighEnd:
			// High surrogate: needs a following low surrogate to pair with.
			if i+1 < len(units) && units[i+1] >= surrLowStart && units[i+1] <= surrLowEnd {
				lo := units[i+1]
				r := 0x10000 + (rune(u)-surrHighStart)<<10 + (rune(lo) - surrLowStart)
				runes = append(runes, r)
				i++
			} else {
				runes = append(runes, replacement)
			}
		default:
			// Lone low surrogate, never preceded by a matching high one.
			runes = append(runes, replacement)
		}
	}

	return string(runes)
}

func isASCIIRun(units []uint16) bool {
	for _, u := range units {
		if u > 0x7F {
			return false
		}
	}

	return true
}

func decodeASCIIRun(units []uint16) string {
	b := make([]byte, len(units))
	for i, u := range units {
		b[i] = byte(u)
	}

	return string(b)
}
