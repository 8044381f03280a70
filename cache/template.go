package cache

// Template is a cached, reusable BinXML skeleton: the raw token-stream bytes
// between a TemplateInstance's inline definition and its terminating EOF
// token, keyed by the chunk-local byte offset at which it was first defined
// (spec §3 "Template skeleton").
type Template struct {
	Offset     uint32
	ID         [16]byte // template identifier (spec §3: "16-byte template identifier")
	NextOffset uint32   // the format's rolling-cache chain pointer (spec §3)
	Body       []byte   // raw token-stream bytes of the skeleton, EOF-terminated
	SlotCount  int      // substitution slot count this skeleton expects
}
