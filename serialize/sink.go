package serialize

import (
	"github.com/goevtx/evtx/model"
	"github.com/goevtx/evtx/value"
)

// Sink receives a depth-first walk of a model.Node tree (spec §4.8). XML
// and JSON each implement Sink over their own output shape; Walk drives
// either one identically so the two formats never derive structure
// independently.
type Sink interface {
	OpenElement(name string)
	Attribute(name, value string)
	Text(s string)
	CDATA(s string)
	CharRef(r rune)
	EntityRef(name string)
	PI(target, data string)
	CloseElement(name string)
}

// typedTextSink is an optional capability a Sink may implement to receive a
// substitution's original typed value alongside its rendered text (spec
// §4.8 "Typed values preserve their JSON-native form"). serialize.JSON
// implements it; serialize.XML does not, since XML has no native numeric/
// boolean/null form to preserve and falls back to Text.
type typedTextSink interface {
	TextValue(v value.Value, rendered string)
}

// Walk drives sink over n's tree in document order. A nil n is a no-op,
// matching model.Assemble's empty-fragment result.
func Walk(n *model.Node, sink Sink) {
	if n == nil {
		return
	}

	switch n.Kind {
	case model.KindElement:
		sink.OpenElement(n.Name)
		for _, a := range n.Attributes {
			sink.Attribute(a.Name, a.Value)
		}
		for _, c := range n.Children {
			Walk(c, sink)
		}
		sink.CloseElement(n.Name)

	case model.KindText:
		if n.Scalar != nil {
			if ts, ok := sink.(typedTextSink); ok {
				ts.TextValue(*n.Scalar, n.Text)
				break
			}
		}
		sink.Text(n.Text)

	case model.KindCDATA:
		sink.CDATA(n.Text)

	case model.KindCharRef:
		sink.CharRef(n.CharRef)

	case model.KindEntityRef:
		sink.EntityRef(n.Name)

	case model.KindPI:
		sink.PI(n.Name, n.Text)
	}
}
