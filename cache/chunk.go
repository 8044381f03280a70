package cache

import (
	"fmt"

	"github.com/goevtx/evtx/errs"
	"github.com/goevtx/evtx/internal/collision"
	"github.com/goevtx/evtx/internal/hash"
)

// Chunk owns one chunk's string and template caches. It is constructed
// fresh per chunk per goroutine and discarded when the chunk's records are
// done decoding — it is never shared across chunks or across threads
// (spec §5 "per-chunk and per-thread — never shared").
type Chunk struct {
	Strings   map[uint32]*Name
	Templates map[uint32]*Template

	nameFingerprints     *collision.Tracker
	templateFingerprints *collision.Tracker
}

// NewChunk creates an empty Chunk cache.
func NewChunk() *Chunk {
	return &Chunk{
		Strings:              make(map[uint32]*Name),
		Templates:            make(map[uint32]*Template),
		nameFingerprints:     collision.NewTracker(),
		templateFingerprints: collision.NewTracker(),
	}
}

// PutName inserts or redeclares a name at offset. A redeclaration at an
// already-populated offset is tolerated; diverged reports whether its
// fingerprint disagrees with the first declaration (a non-fatal condition
// the caller may turn into a warning, spec §3/§4.3).
func (c *Chunk) PutName(offset uint32, n Name, raw []byte) (diverged bool) {
	fp := hash.Fingerprint(raw)
	_, diverged = c.nameFingerprints.Track(offset, fp)

	if _, exists := c.Strings[offset]; !exists {
		n.Offset = offset
		c.Strings[offset] = &n
	}

	return diverged
}

// GetName resolves a name by its chunk-local offset. A reference to an
// offset that was never populated is fatal (spec §4.3).
func (c *Chunk) GetName(offset uint32) (*Name, error) {
	n, ok := c.Strings[offset]
	if !ok {
		return nil, fmt.Errorf("%w: name offset %d", errs.ErrUnresolvedCacheRef, offset)
	}

	return n, nil
}

// PutTemplate inserts or redeclares a template skeleton at offset. Per spec
// §4.4 ("Template-instance may redefine an already-cached skeleton at the
// same offset: the cached entry wins"), a later declaration at a
// previously-populated offset never replaces the cached body, but divergence
// is still tracked and reported to the caller.
func (c *Chunk) PutTemplate(offset uint32, tmpl Template) (diverged bool) {
	fp := hash.Fingerprint(tmpl.Body)
	_, diverged = c.templateFingerprints.Track(offset, fp)

	if _, exists := c.Templates[offset]; !exists {
		tmpl.Offset = offset
		c.Templates[offset] = &tmpl
	}

	return diverged
}

// GetTemplate resolves a template skeleton by its chunk-local offset. A
// reference to an offset that was never populated is fatal (spec §4.3).
func (c *Chunk) GetTemplate(offset uint32) (*Template, error) {
	t, ok := c.Templates[offset]
	if !ok {
		return nil, fmt.Errorf("%w: template offset %d", errs.ErrUnresolvedCacheRef, offset)
	}

	return t, nil
}
