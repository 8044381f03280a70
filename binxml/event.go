package binxml

import "github.com/goevtx/evtx/value"

// EventKind identifies the shape of a decoded model event.
type EventKind uint8

const (
	EventOpenElement EventKind = iota
	EventCloseStartElement
	EventCloseEmptyElement
	EventEndElement
	EventAttribute
	EventText
	EventCDATA
	EventCharRef
	EventEntityRef
	EventPITarget
	EventPIData
	EventSubstitution
	EventTemplateInstance
	EventFragmentHeader
	EventEOF
)

// Event is one decoded BinXML model event (spec §4.4: "a stream of 'model
// events' ... rather than allocating a full tree eagerly").
type Event struct {
	Kind EventKind

	Name string // OpenElement, Attribute, EntityRef, PITarget

	Text string // Value, CDATA, PIData
	More bool   // Value: another Value token with the same content follows

	CharRef rune // CharRef

	// Substitution
	SlotIndex  uint16
	TypeTag    value.Type
	Optional   bool

	// OpenElement
	DependencyID int32 // -1 when absent; identifies the slot whose null-ness prunes this element
	HasAttrs     bool
	ElemEnd      int // cursor position (relative to the decoder's buffer) this element's declared byte length implies

	// TemplateInstance
	TemplateOffset uint32
	TemplateValues []value.Value
	TemplateNew    bool // true if this occurrence defined the skeleton body inline

	// FragmentHeader
	Major, Minor, Flags uint8
}
