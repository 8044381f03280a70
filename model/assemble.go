package model

import (
	"fmt"
	"strings"

	"github.com/goevtx/evtx/binxml"
	"github.com/goevtx/evtx/cache"
	"github.com/goevtx/evtx/cursor"
	"github.com/goevtx/evtx/errs"
	"github.com/goevtx/evtx/value"
)

// templateBodyHeaderSize is the byte span of a template definition's fixed
// prefix (next-offset chain pointer, GUID, data size) preceding its
// token-stream body, needed to compute the body's absolute file offset from
// the definition's chunk-relative offset (spec §3 "Template skeleton").
const templateBodyHeaderSize = 4 + 16 + 4

// AssembleRecord walks a record body's own token stream (FragmentHeader
// followed by a top-level TemplateInstance, spec §3 "Record") directly,
// rather than a cached skeleton's. The record's TemplateInstance token
// drives the same substitution logic Assemble uses for nested instances.
func AssembleRecord(r *cursor.Reader, chunkCache *cache.Chunk, chunkStart int64, ptrWidth int) (*Node, []Warning, error) {
	dec := binxml.NewDecoder(r, chunkCache, chunkStart, ptrWidth)

	a := &assembler{
		dec:        dec,
		chunkCache: chunkCache,
		chunkStart: chunkStart,
		ptrWidth:   ptrWidth,
	}

	root, err := a.walkFragment()
	if err != nil {
		return nil, a.warnings, err
	}

	return root, a.warnings, nil
}

// Assemble walks skeleton's token stream, substituting each Normal and
// Optional substitution token against values, and returns the resulting
// element tree along with any non-fatal findings (spec §4.5).
func Assemble(skeleton *cache.Template, values []value.Value, chunkCache *cache.Chunk, chunkStart int64, ptrWidth int, depth int) (*Node, []Warning, error) {
	if depth > MaxRecursionDepth {
		return nil, nil, fmt.Errorf("%w: depth %d exceeds limit %d", errs.ErrRecursionLimit, depth, MaxRecursionDepth)
	}

	// skeleton.SlotCount is the highest substitution slot index the skeleton
	// references, plus one (binxml.peekSlotCount); a value array shorter
	// than that can never satisfy every substitution the skeleton will ask
	// for (spec §3 "value count matches skeleton slot count"). A longer
	// array is not an error: a skeleton is free to leave trailing values
	// unreferenced.
	if len(values) < skeleton.SlotCount {
		return nil, nil, fmt.Errorf("%w: skeleton at offset %d references %d slot(s), value array has %d",
			errs.ErrSubstitutionMismatch, skeleton.Offset, skeleton.SlotCount, len(values))
	}

	base := chunkStart + int64(skeleton.Offset) + templateBodyHeaderSize
	r := cursor.New(skeleton.Body, base)
	dec := binxml.NewDecoder(r, chunkCache, chunkStart, ptrWidth)

	a := &assembler{
		dec:        dec,
		chunkCache: chunkCache,
		chunkStart: chunkStart,
		ptrWidth:   ptrWidth,
		depth:      depth,
		values:     values,
	}

	root, err := a.walkFragment()
	if err != nil {
		return nil, a.warnings, err
	}

	return root, a.warnings, nil
}

// assembler holds the mutable state of one Assemble call (and any nested
// calls it spawns for embedded BinXML fragments and inner template
// instances).
type assembler struct {
	dec        *binxml.Decoder
	chunkCache *cache.Chunk
	chunkStart int64
	ptrWidth   int
	depth      int
	values     []value.Value
	warnings   []Warning
}

func (a *assembler) warnf(format string, args ...any) {
	a.warnings = append(a.warnings, Warning{Message: fmt.Sprintf(format, args...)})
}

// walkFragment consumes events until EOF, returning the fragment's single
// top-level node (nil for an empty fragment).
func (a *assembler) walkFragment() (*Node, error) {
	var root *Node
	var stack []*Node

	for {
		ev, err := a.dec.Next()
		if err != nil {
			a.drainDecoderWarnings()
			return nil, err
		}

		if ev.Kind == binxml.EventEOF {
			a.drainDecoderWarnings()
			return root, nil
		}

		if err := a.handle(ev, &root, &stack); err != nil {
			a.drainDecoderWarnings()
			return nil, err
		}
	}
}

// drainDecoderWarnings copies any findings binxml.Decoder accumulated while
// producing this fragment's events (name/template redeclaration,
// name-hash mismatches) into this
// assembler's own Warning list, so callers that only drain Assemble's
// return value still see them.
func (a *assembler) drainDecoderWarnings() {
	for _, w := range a.dec.Warnings {
		a.warnf("%s", w)
	}
	a.dec.Warnings = nil
}

func (a *assembler) handle(ev binxml.Event, root **Node, stack *[]*Node) error {
	switch ev.Kind {
	case binxml.EventFragmentHeader:
		return nil

	case binxml.EventOpenElement:
		return a.handleOpenElement(ev, root, stack)

	case binxml.EventCloseStartElement:
		return nil

	case binxml.EventCloseEmptyElement, binxml.EventEndElement:
		if len(*stack) > 0 {
			*stack = (*stack)[:len(*stack)-1]
		}
		return nil

	case binxml.EventAttribute:
		attr, skip, err := a.readAttributeValue(ev.Name)
		if err != nil {
			return err
		}
		if !skip && len(*stack) > 0 {
			top := (*stack)[len(*stack)-1]
			top.Attributes = append(top.Attributes, attr)
		}
		return nil

	case binxml.EventText, binxml.EventCDATA:
		kind := KindText
		if ev.Kind == binxml.EventCDATA {
			kind = KindCDATA
		}
		a.appendLeaf(*stack, &Node{Kind: kind, Text: ev.Text})
		return nil

	case binxml.EventCharRef:
		a.appendLeaf(*stack, &Node{Kind: KindCharRef, CharRef: ev.CharRef})
		return nil

	case binxml.EventEntityRef:
		a.appendLeaf(*stack, &Node{Kind: KindEntityRef, Name: ev.Name})
		return nil

	case binxml.EventPITarget:
		a.appendLeaf(*stack, &Node{Kind: KindPI, Name: ev.Name})
		return nil

	case binxml.EventPIData:
		if len(*stack) > 0 {
			top := (*stack)[len(*stack)-1]
			if n := len(top.Children); n > 0 && top.Children[n-1].Kind == KindPI {
				top.Children[n-1].Text = ev.Text
			}
		}
		return nil

	case binxml.EventSubstitution:
		return a.handleSubstitution(ev, root, stack)

	case binxml.EventTemplateInstance:
		return a.handleTemplateInstance(ev, root, stack)

	default:
		return nil
	}
}

func (a *assembler) handleOpenElement(ev binxml.Event, root **Node, stack *[]*Node) error {
	if ev.DependencyID >= 0 && int(ev.DependencyID) < len(a.values) && a.values[ev.DependencyID].IsNull() {
		return a.dec.SkipElement(ev)
	}

	n := newElement(ev.Name)
	if len(*stack) == 0 {
		*root = n
	} else {
		(*stack)[len(*stack)-1].addChild(n)
	}
	*stack = append(*stack, n)

	return nil
}

func (a *assembler) appendLeaf(stack []*Node, n *Node) {
	if len(stack) == 0 {
		return
	}
	stack[len(stack)-1].addChild(n)
}

func (a *assembler) resolveSlot(slot uint16) (value.Value, error) {
	if int(slot) >= len(a.values) {
		return value.Value{}, fmt.Errorf("%w: slot %d (have %d)", errs.ErrSubstitutionIndexRange, slot, len(a.values))
	}

	return a.values[slot], nil
}

// handleSubstitution resolves a Normal/Optional substitution token. An
// array-typed value that is an element's sole content fans the element out
// once per array value (spec §4.5 "the element is emitted once per array
// element"); otherwise it renders as the value's comma-joined text form.
func (a *assembler) handleSubstitution(ev binxml.Event, root **Node, stack *[]*Node) error {
	v, err := a.resolveSlot(ev.SlotIndex)
	if err != nil {
		return err
	}

	if ev.Optional && v.IsNull() {
		return nil
	}

	if v.Type.IsArray() && len(*stack) > 0 && len((*stack)[len(*stack)-1].Children) == 0 {
		next, err := a.dec.Next()
		if err != nil {
			return err
		}

		if next.Kind == binxml.EventEndElement || next.Kind == binxml.EventCloseEmptyElement {
			return a.fanOutArray(v, root, stack)
		}

		// Not the element's sole content after all: render the array as
		// comma-joined text, then replay the token we peeked ahead at.
		a.appendLeaf(*stack, &Node{Kind: KindText, Text: v.Text()})
		return a.handle(next, root, stack)
	}

	if v.Type == value.TypeBinXML || v.Type == value.TypeEvtXML {
		if v.IsNull() {
			return nil
		}

		embedded, err := a.decodeEmbeddedRoot(v)
		if err != nil {
			return err
		}

		if embedded != nil {
			if len(*stack) == 0 {
				*root = embedded
			} else {
				(*stack)[len(*stack)-1].addChild(embedded)
			}
		}

		return nil
	}

	vCopy := v
	a.appendLeaf(*stack, &Node{Kind: KindText, Text: v.Text(), Scalar: &vCopy})

	return nil
}

// fanOutArray replaces the current top-of-stack element — already confirmed
// to hold the just-resolved array substitution as its sole content, with the
// closing token already consumed — with one sibling clone per array value.
// A zero-length array yields zero element instances (spec §4.5 "An array
// substitution of length zero renders as zero element instances").
func (a *assembler) fanOutArray(v value.Value, root **Node, stack *[]*Node) error {
	top := (*stack)[len(*stack)-1]
	*stack = (*stack)[:len(*stack)-1]

	var parent *Node
	if len(*stack) > 0 {
		parent = (*stack)[len(*stack)-1]
	}

	clones := make([]*Node, 0, len(v.Array))
	for i := range v.Array {
		clone := newElement(top.Name)
		clone.Attributes = append([]Attribute(nil), top.Attributes...)
		clone.addChild(&Node{Kind: KindText, Text: v.Array[i].Text(), Scalar: &v.Array[i]})
		clones = append(clones, clone)
	}

	if parent != nil {
		parent.Children = parent.Children[:len(parent.Children)-1]
		parent.Children = append(parent.Children, clones...)
		return nil
	}

	if len(clones) > 0 {
		*root = clones[0]
		if len(clones) > 1 {
			a.warnf("array substitution fanned the document root out to %d elements; only the first is retained as root", len(clones))
		}
	} else {
		*root = nil
	}

	return nil
}

// readAttributeValue consumes the single value token following an Attribute
// event. skip reports that the attribute must be omitted entirely (its sole
// value was an optional substitution resolving to null, spec §4.5 "the
// nearest enclosing element or attribute").
func (a *assembler) readAttributeValue(name string) (Attribute, bool, error) {
	ev, err := a.dec.Next()
	if err != nil {
		return Attribute{}, false, err
	}

	switch ev.Kind {
	case binxml.EventText:
		return Attribute{Name: name, Value: ev.Text}, false, nil

	case binxml.EventSubstitution:
		v, err := a.resolveSlot(ev.SlotIndex)
		if err != nil {
			return Attribute{}, false, err
		}

		if ev.Optional && v.IsNull() {
			return Attribute{}, true, nil
		}

		if v.IsNull() {
			return Attribute{Name: name, Value: ""}, false, nil
		}

		if v.Type == value.TypeBinXML || v.Type == value.TypeEvtXML {
			embedded, err := a.decodeEmbeddedRoot(v)
			if err != nil {
				return Attribute{}, false, err
			}
			return Attribute{Name: name, Value: flattenText(embedded)}, false, nil
		}

		return Attribute{Name: name, Value: v.Text()}, false, nil

	default:
		return Attribute{}, false, fmt.Errorf("%w: unexpected token as attribute value", errs.ErrInvalidToken)
	}
}

// handleTemplateInstance assembles a nested template instance (a skeleton
// that itself contains a TemplateInstance token, distinct from the
// top-level instance Assemble was called for) and splices its result in as
// a child (or the fragment's root, if encountered before any element opened).
func (a *assembler) handleTemplateInstance(ev binxml.Event, root **Node, stack *[]*Node) error {
	tmpl, err := a.chunkCache.GetTemplate(ev.TemplateOffset)
	if err != nil {
		return err
	}

	node, warnings, err := Assemble(tmpl, ev.TemplateValues, a.chunkCache, a.chunkStart, a.ptrWidth, a.depth+1)
	a.warnings = append(a.warnings, warnings...)
	if err != nil {
		return err
	}

	if node == nil {
		return nil
	}

	if len(*stack) == 0 {
		*root = node
	} else {
		(*stack)[len(*stack)-1].addChild(node)
	}

	return nil
}

// decodeEmbeddedRoot assembles an embedded BinXml/EvtXml fragment (a
// self-contained FragmentHeader..EOF token stream carried as a value's raw
// bytes, spec §3 "embedded BinXML fragment") as a nested, depth-bounded
// sub-tree.
func (a *assembler) decodeEmbeddedRoot(v value.Value) (*Node, error) {
	if a.depth+1 > MaxRecursionDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds limit %d", errs.ErrRecursionLimit, a.depth+1, MaxRecursionDepth)
	}

	r := cursor.New(v.BinXML, v.SourceOffset)
	dec := binxml.NewDecoder(r, a.chunkCache, a.chunkStart, a.ptrWidth)
	nested := &assembler{dec: dec, chunkCache: a.chunkCache, chunkStart: a.chunkStart, ptrWidth: a.ptrWidth, depth: a.depth + 1}

	root, err := nested.walkFragment()
	a.warnings = append(a.warnings, nested.warnings...)

	return root, err
}

// flattenText reduces a node sub-tree to its depth-first concatenated text,
// for contexts (attribute values) that cannot hold structured children.
func flattenText(n *Node) string {
	if n == nil {
		return ""
	}

	switch n.Kind {
	case KindText, KindCDATA:
		return n.Text
	case KindCharRef:
		return string(n.CharRef)
	case KindEntityRef:
		return n.Name
	}

	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(flattenText(c))
	}

	return sb.String()
}
