package binxml

import (
	"fmt"
	"iter"
	"unicode/utf16"

	"github.com/goevtx/evtx/cache"
	"github.com/goevtx/evtx/cursor"
	"github.com/goevtx/evtx/errs"
	"github.com/goevtx/evtx/value"
)

// elementFrame tracks one open element's declared byte extent, so the
// decoder can cross-check the producer's own skip hint against where the
// element actually ends (spec §4.4: "after processing children, the cursor
// position must match the start-plus-length; a mismatch fails the record").
type elementFrame struct {
	start        int
	declaredEnd  int
	dependencyID int32
}

// Decoder reads the BinXML token stream from a fragment (a record body, a
// template skeleton body, or an embedded BinXml value) and emits model
// Events, resolving name and template-skeleton references against a shared
// chunk-local cache.Chunk as it goes (spec §4.4).
//
// A Decoder never recurses into a template skeleton's own body or an
// embedded BinXml fragment: it captures their raw bytes as TemplateValues /
// Event.Text and lets the model assembler (package model) construct a fresh
// Decoder over that nested fragment, per spec §4.5's recursion-with-bound
// design and §9's "cyclic ownership: arena + index" strategy.
type Decoder struct {
	r          *cursor.Reader
	chunkCache *cache.Chunk
	chunkStart int64
	ptrWidth   int

	stack []elementFrame

	// Warnings accumulates non-fatal findings (name hash mismatches, cache
	// divergence) discovered while decoding. The caller drains it after
	// Events() completes.
	Warnings []string
}

// NewDecoder creates a Decoder over r, a cursor scoped to one fragment
// (record body, template skeleton, or embedded BinXml value). chunkStart is
// the absolute file offset of the owning chunk's first byte, used to
// compute chunk-relative offsets for cache lookups; chunkCache is that
// chunk's shared string/template cache. ptrWidth is the producer's platform
// word size (4 or 8), needed to decode TypeSizeT values.
func NewDecoder(r *cursor.Reader, chunkCache *cache.Chunk, chunkStart int64, ptrWidth int) *Decoder {
	return &Decoder{
		r:          r,
		chunkCache: chunkCache,
		chunkStart: chunkStart,
		ptrWidth:   ptrWidth,
	}
}

// Events returns an iterator over this fragment's decoded model events. It
// stops after yielding the terminating EOF event, or after yielding one
// (Event{}, err) pair on the first decode error.
func (d *Decoder) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := d.next()
			if err != nil {
				yield(Event{}, err)
				return
			}

			if !yield(ev, nil) {
				return
			}

			if ev.Kind == EventEOF {
				return
			}
		}
	}
}

func (d *Decoder) chunkOffset() uint32 {
	return uint32(d.r.Offset() - d.chunkStart)
}

// Next decodes and returns the single next event, for callers (package
// model) that need to pull tokens synchronously rather than range over
// Events — e.g. to read an attribute's value token, or to peek one token
// ahead when deciding whether a substitution is an element's sole content.
func (d *Decoder) Next() (Event, error) {
	return d.next()
}

// SkipElement discards the remainder of an open element's body without
// decoding it, using the declared byte length from ev (which must be an
// EventOpenElement previously returned by this same Decoder). Used by the
// model assembler to prune a subtree whose governing dependency slot is
// null (spec §4.5's "skip the element's body using the element byte-length").
func (d *Decoder) SkipElement(ev Event) error {
	if ev.Kind != EventOpenElement {
		return fmt.Errorf("%w: SkipElement called on a non-element event", errs.ErrInvalidToken)
	}

	if err := d.r.Seek(ev.ElemEnd); err != nil {
		return err
	}

	if len(d.stack) > 0 {
		d.stack = d.stack[:len(d.stack)-1]
	}

	return nil
}

func (d *Decoder) next() (Event, error) {
	b, err := d.r.U8()
	if err != nil {
		return Event{}, err
	}

	kind, more := splitToken(b)

	switch kind {
	case TokenEOF:
		return Event{Kind: EventEOF}, nil

	case TokenOpenStartElement:
		return d.readOpenStartElement(more)

	case TokenCloseStartElement:
		return Event{Kind: EventCloseStartElement}, nil

	case TokenCloseEmptyElement:
		return d.readCloseEmptyElement()

	case TokenEndElement:
		return d.readEndElement()

	case TokenValue:
		return d.readValue(more)

	case TokenAttribute:
		return d.readAttribute(more)

	case TokenCDATA:
		return d.readCDATA()

	case TokenCharRef:
		return d.readCharRef()

	case TokenEntityRef:
		return d.readEntityRef()

	case TokenPITarget:
		return d.readPITarget()

	case TokenPIData:
		return d.readPIData()

	case TokenTemplateInstance:
		return d.readTemplateInstance()

	case TokenNormalSubstitution:
		return d.readSubstitution(false)

	case TokenOptionalSubstitution:
		return d.readSubstitution(true)

	case TokenFragmentHeader:
		return d.readFragmentHeader()

	default:
		return Event{}, fmt.Errorf("%w: token byte 0x%02X at offset %d", errs.ErrInvalidToken, b, d.r.Offset())
	}
}

func (d *Decoder) readFragmentHeader() (Event, error) {
	major, err := d.r.U8()
	if err != nil {
		return Event{}, err
	}
	minor, err := d.r.U8()
	if err != nil {
		return Event{}, err
	}
	flags, err := d.r.U8()
	if err != nil {
		return Event{}, err
	}

	return Event{Kind: EventFragmentHeader, Major: major, Minor: minor, Flags: flags}, nil
}

func (d *Decoder) readOpenStartElement(hasAttrs bool) (Event, error) {
	start := d.r.Pos() - 1 // include the already-consumed token byte

	depID, err := d.r.I16()
	if err != nil {
		return Event{}, err
	}

	size, err := d.r.U32()
	if err != nil {
		return Event{}, err
	}

	name, err := d.readNameRef()
	if err != nil {
		return Event{}, err
	}

	if hasAttrs {
		// Attribute-list byte length: a skip hint only, consumed here and
		// not independently cross-checked (spec §4.4 "tie-break": zero
		// attributes following a set has-attrs bit is simply the empty list).
		if _, err := d.r.U32(); err != nil {
			return Event{}, err
		}
	}

	declaredEnd := start + int(size)
	d.stack = append(d.stack, elementFrame{start: start, declaredEnd: declaredEnd, dependencyID: int32(depID)})

	return Event{
		Kind:         EventOpenElement,
		Name:         name,
		HasAttrs:     hasAttrs,
		DependencyID: int32(depID),
		ElemEnd:      declaredEnd,
	}, nil
}

func (d *Decoder) popFrame() error {
	if len(d.stack) == 0 {
		return nil
	}

	frame := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]

	if d.r.Pos() != frame.declaredEnd {
		return fmt.Errorf("%w: element opened at %d: declared end %d, actual end %d",
			errs.ErrInvalidToken, frame.start, frame.declaredEnd, d.r.Pos())
	}

	return nil
}

func (d *Decoder) readCloseEmptyElement() (Event, error) {
	if err := d.popFrame(); err != nil {
		return Event{}, err
	}
	return Event{Kind: EventCloseEmptyElement}, nil
}

func (d *Decoder) readEndElement() (Event, error) {
	if err := d.popFrame(); err != nil {
		return Event{}, err
	}
	return Event{Kind: EventEndElement}, nil
}

func (d *Decoder) readValue(more bool) (Event, error) {
	typeTag, err := d.r.U8()
	if err != nil {
		return Event{}, err
	}

	if value.Type(typeTag) != value.TypeString {
		return Event{}, fmt.Errorf("%w: value token declared non-string type 0x%02X", errs.ErrInvalidValueType, typeTag)
	}

	text, err := d.r.LengthPrefixedUTF16()
	if err != nil {
		return Event{}, err
	}

	return Event{Kind: EventText, Text: text, More: more}, nil
}

func (d *Decoder) readAttribute(more bool) (Event, error) {
	name, err := d.readNameRef()
	if err != nil {
		return Event{}, err
	}

	return Event{Kind: EventAttribute, Name: name, More: more}, nil
}

func (d *Decoder) readCDATA() (Event, error) {
	text, err := d.r.LengthPrefixedUTF16()
	if err != nil {
		return Event{}, err
	}

	return Event{Kind: EventCDATA, Text: text}, nil
}

func (d *Decoder) readCharRef() (Event, error) {
	cp, err := d.r.U16()
	if err != nil {
		return Event{}, err
	}

	return Event{Kind: EventCharRef, CharRef: rune(cp)}, nil
}

func (d *Decoder) readEntityRef() (Event, error) {
	name, err := d.readNameRef()
	if err != nil {
		return Event{}, err
	}

	return Event{Kind: EventEntityRef, Name: name}, nil
}

func (d *Decoder) readPITarget() (Event, error) {
	name, err := d.readNameRef()
	if err != nil {
		return Event{}, err
	}

	return Event{Kind: EventPITarget, Name: name}, nil
}

func (d *Decoder) readPIData() (Event, error) {
	text, err := d.r.LengthPrefixedUTF16()
	if err != nil {
		return Event{}, err
	}

	return Event{Kind: EventPIData, Text: text}, nil
}

func (d *Decoder) readSubstitution(optional bool) (Event, error) {
	slot, err := d.r.U16()
	if err != nil {
		return Event{}, err
	}

	typeTag, err := d.r.U8()
	if err != nil {
		return Event{}, err
	}

	return Event{
		Kind:      EventSubstitution,
		SlotIndex: slot,
		TypeTag:   value.Type(typeTag),
		Optional:  optional,
	}, nil
}

// readNameRef reads a 4-byte name offset. If it equals the chunk-relative
// offset immediately following the field, the name's full body (next-offset
// chain pointer, hash, character count, text, NUL terminator) is declared
// inline here and cached; otherwise it must already be cached from an
// earlier point in this chunk's token stream (spec §4.3/§4.4).
func (d *Decoder) readNameRef() (string, error) {
	offsetField, err := d.r.U32()
	if err != nil {
		return "", err
	}

	here := d.chunkOffset()
	if offsetField != here {
		n, err := d.chunkCache.GetName(offsetField)
		if err != nil {
			return "", err
		}

		return n.Text, nil
	}

	_, err = d.r.U32() // next-offset hash-bucket chain pointer, unused by rendering
	if err != nil {
		return "", err
	}

	hashVal, err := d.r.U16()
	if err != nil {
		return "", err
	}

	charCount, err := d.r.U16()
	if err != nil {
		return "", err
	}

	text, err := d.r.FixedUTF16(int(charCount))
	if err != nil {
		return "", err
	}

	if _, err := d.r.U16(); err != nil { // NUL terminator
		return "", err
	}

	computedHash := recomputeNameHash(text)
	matched := computedHash == hashVal
	if !matched {
		d.Warnings = append(d.Warnings, fmt.Errorf(
			"%w: name at offset %d declared hash 0x%04X, recomputed 0x%04X", errs.ErrNameHashMismatch, here, hashVal, computedHash).Error())
	}

	diverged := d.chunkCache.PutName(here, cache.Name{Hash: hashVal, Text: text, HashMatched: matched}, []byte(text))
	if diverged {
		d.Warnings = append(d.Warnings, fmt.Sprintf("name at offset %d redeclared with different text", here))
	}

	return text, nil
}

// recomputeNameHash reproduces EVTX's 16-bit element/attribute name hash
// over name's UTF-16 code units: a standard multiplicative string hash
// (multiplier 65599, as used by libyal's libevtx for this same field),
// folded to 16 bits. The on-disk hash is advisory (spec §4.4): a mismatch
// never fails decoding, only raises a warning.
func recomputeNameHash(name string) uint16 {
	var hash uint32
	for _, unit := range utf16.Encode([]rune(name)) {
		hash = hash*65599 + uint32(unit)
	}

	return uint16(hash)
}

// readTemplateInstance reads a TemplateInstanceToken: a reference to a
// skeleton (captured as raw, uninterpreted bytes — see the Decoder doc
// comment) paired with a value array (spec §3 "Template instance", §4.4).
func (d *Decoder) readTemplateInstance() (Event, error) {
	if _, err := d.r.U8(); err != nil { // always 0x01
		return Event{}, err
	}
	if _, err := d.r.U16(); err != nil { // reserved
		return Event{}, err
	}
	if _, err := d.r.U32(); err != nil { // template id (in-memory dedup key, unused here)
		return Event{}, err
	}

	defOffsetField, err := d.r.U32()
	if err != nil {
		return Event{}, err
	}

	here := d.chunkOffset()
	isNew := defOffsetField == here

	var tmpl *cache.Template

	if isNew {
		nextOffset, err := d.r.U32()
		if err != nil {
			return Event{}, err
		}

		guid, err := d.r.GUID()
		if err != nil {
			return Event{}, err
		}

		dataSize, err := d.r.U32()
		if err != nil {
			return Event{}, err
		}

		body, err := d.r.FixedBytes(int(dataSize))
		if err != nil {
			return Event{}, err
		}

		slotCount, err := peekSlotCount(body)
		if err != nil {
			return Event{}, err
		}

		t := cache.Template{ID: guid, NextOffset: nextOffset, Body: body, SlotCount: slotCount}
		if diverged := d.chunkCache.PutTemplate(here, t); diverged {
			d.Warnings = append(d.Warnings, fmt.Sprintf("template at offset %d redeclared with different body", here))
		}

		tmpl, err = d.chunkCache.GetTemplate(here)
		if err != nil {
			return Event{}, err
		}
	} else {
		tmpl, err = d.chunkCache.GetTemplate(defOffsetField)
		if err != nil {
			return Event{}, err
		}
	}

	numValues, err := d.r.U32()
	if err != nil {
		return Event{}, err
	}

	type descriptor struct {
		size int
		typ  value.Type
	}

	descs := make([]descriptor, numValues)
	for i := range descs {
		size, err := d.r.U16()
		if err != nil {
			return Event{}, err
		}
		typ, err := d.r.U8()
		if err != nil {
			return Event{}, err
		}
		if _, err := d.r.U8(); err != nil { // padding
			return Event{}, err
		}
		descs[i] = descriptor{size: int(size), typ: value.Type(typ)}
	}

	values := make([]value.Value, len(descs))
	for i, desc := range descs {
		sub, err := d.r.Sub(desc.size)
		if err != nil {
			return Event{}, err
		}
		v, err := value.Decode(desc.typ, desc.size, sub, d.ptrWidth)
		if err != nil {
			return Event{}, err
		}
		values[i] = v
	}

	return Event{
		Kind:           EventTemplateInstance,
		TemplateOffset: tmpl.Offset,
		TemplateValues: values,
		TemplateNew:    isNew,
	}, nil
}

// peekSlotCount scans a template skeleton's raw bytes for the highest
// substitution slot index referenced, without fully decoding it — used to
// validate value-array/slot-count agreement (spec §3 "Template skeleton"
// invariant) before the model assembler walks it for real.
func peekSlotCount(body []byte) (int, error) {
	r := cursor.New(body, 0)
	d := NewDecoder(r, cache.NewChunk(), 0, 8)

	max := -1
	for ev, err := range d.Events() {
		if err != nil {
			// A malformed skeleton surfaces its real error later, when the
			// model assembler decodes it against actual chunk caches; here
			// we only need a best-effort slot count.
			break
		}
		if ev.Kind == EventSubstitution && int(ev.SlotIndex) > max {
			max = int(ev.SlotIndex)
		}
		if ev.Kind == EventEOF {
			break
		}
	}

	return max + 1, nil
}
