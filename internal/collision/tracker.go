// Package collision tracks per-chunk cache offsets and the fingerprint of
// the bytes declared at each one, flagging divergence without aborting
// decoding — the format tolerates a redeclaration at a previously-seen
// offset as long as the bytes agree; it's the producer's bug, not ours, if
// they don't (spec: "Name hashes are advisory; mismatch ... is a warning,
// not a fatal error").
package collision

// Tracker records, for each chunk-local byte offset seen so far, the
// fingerprint of the bytes declared there. It never errors; callers ask
// HasDiverged after every Track call and decide for themselves whether to
// turn that into a warning.
type Tracker struct {
	seen     map[uint32]uint64 // offset -> fingerprint of first declaration
	diverged map[uint32]bool
}

// NewTracker creates a new, empty offset/fingerprint tracker.
func NewTracker() *Tracker {
	return &Tracker{
		seen:     make(map[uint32]uint64),
		diverged: make(map[uint32]bool),
	}
}

// Track records fingerprint for offset. Returns true if this is the first
// time offset has been seen, false if it was seen before (in which case
// the caller should compare the returned diverged flag).
func (t *Tracker) Track(offset uint32, fingerprint uint64) (firstSeen bool, diverged bool) {
	existing, ok := t.seen[offset]
	if !ok {
		t.seen[offset] = fingerprint
		return true, false
	}

	if existing != fingerprint {
		t.diverged[offset] = true
		return false, true
	}

	return false, false
}

// HasDiverged reports whether offset was ever redeclared with different
// bytes than its first declaration.
func (t *Tracker) HasDiverged(offset uint32) bool {
	return t.diverged[offset]
}

// Count returns the number of distinct offsets tracked so far.
func (t *Tracker) Count() int {
	return len(t.seen)
}

// Reset clears all tracked offsets, preserving allocated map capacity.
func (t *Tracker) Reset() {
	for k := range t.seen {
		delete(t.seen, k)
	}
	for k := range t.diverged {
		delete(t.diverged, k)
	}
}
