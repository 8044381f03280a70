// Package cache implements the two per-chunk, offset-keyed caches the
// BinXML token stream leans on: interned element/attribute Names and
// reusable Template skeletons (spec §3 "Name", "Template skeleton", §4.3).
//
// Both caches are populated lazily as the token decoder walks a chunk, are
// never evicted within the chunk's lifetime, and are discarded wholesale at
// chunk boundaries — grounded on the teacher's offset/length-table shape in
// section.NumericIndexEntry, generalized from a fixed index array to a
// sparse, insert-as-you-go map since BinXML names and templates appear at
// unpredictable offsets rather than a packed index.
package cache

// Name is a cached element/attribute name: a length-prefixed UTF-16 string
// with an advisory 16-bit hash (spec §3 "Name": "hash mismatch ... is a
// warning, not a fatal error", spec §4.4). HashMatched records whether the
// declared Hash agreed with the hash binxml.Decoder recomputed from Text
// when this name was first declared; a false value never fails decoding on
// its own, but is available to callers that want to surface it.
type Name struct {
	Offset      uint32
	Hash        uint16
	Text        string
	HashMatched bool
}
