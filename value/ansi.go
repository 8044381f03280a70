package value

import "sync/atomic"

// ansiDecoder holds the function RenderText uses to turn a TypeAnsiString
// value's raw bytes into text. It defaults to a plain byte-for-byte cast
// (valid only for 7-bit ASCII content) until SetANSIDecoder installs a
// code-page-aware one.
var ansiDecoder atomic.Pointer[func([]byte) string]

// SetANSIDecoder installs the function used to decode TypeAnsiString bytes
// (reader.RecordStream installs a golang.org/x/text/encoding/charmap-backed
// decoder for Config.ANSICodePage before starting). Passing nil reverts to
// the raw-byte default.
//
// The decoder is process-global: two RecordStream calls over files with
// different ANSI code pages running concurrently in the same process will
// race on this setting. goevtx's usage pattern — one reader driving one
// file's iteration to completion before the next begins — never triggers
// this, but it is not enforced.
func SetANSIDecoder(fn func([]byte) string) {
	if fn == nil {
		ansiDecoder.Store(nil)
		return
	}
	ansiDecoder.Store(&fn)
}

func decodeAnsiBytes(b []byte) string {
	if p := ansiDecoder.Load(); p != nil {
		return (*p)(b)
	}

	return string(b)
}
