// Package hash provides a fast fingerprint used to detect whether bytes
// cached at the same chunk offset are byte-identical across repeated
// declarations, per the format's "later references either re-declare
// (structurally identical) or point back to the cached offset" invariant.
//
// This is an internal integrity aid, not a re-implementation of the
// on-disk producer's own 16-bit name hash (that algorithm is undocumented
// and the format tolerates it being wrong — see cache.Name).
package hash

import "github.com/cespare/xxhash/v2"

// Fingerprint computes the xxHash64 of data, used to compare cached
// template-skeleton or name bytes across repeated declarations at the same
// chunk offset without keeping two full copies around.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}
