// Package model assembles a BinXML template skeleton and its substitution
// value array into a concrete element tree (spec §4.5 "Model assembler"),
// handling optional-substitution pruning, array-substitution fan-out, and
// bounded recursion into embedded BinXML fragments.
package model

import "github.com/goevtx/evtx/value"

// Kind identifies the shape of one assembled node.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindCDATA
	KindCharRef
	KindEntityRef
	KindPI
)

// Attribute is one assembled element attribute: a name paired with its
// already-substituted, already-rendered text value.
type Attribute struct {
	Name  string
	Value string
}

// Node is one assembled tree node. Which fields are meaningful depends on
// Kind: KindElement uses Name/Attributes/Children, KindText/KindCDATA use
// Text, KindCharRef uses CharRef, KindEntityRef uses Name, KindPI uses Name
// (target) and Text (data).
//
// Scalar is non-nil only for a KindText node produced directly from a
// single substitution value (spec §4.5's normal-substitution case, and each
// element of an array fan-out) — never for literal element-content text
// tokens or for a substitution rendered into multi-part/joined text. It
// lets serialize.JSON recover the value's native JSON-native form (spec
// §4.8: "numbers as numbers, booleans as booleans, null for null") instead
// of re-deriving it from the already-rendered XML-style text in Text.
type Node struct {
	Kind Kind

	Name       string
	Text       string
	CharRef    rune
	Scalar     *value.Value
	Attributes []Attribute
	Children   []*Node
}

func newElement(name string) *Node {
	return &Node{Kind: KindElement, Name: name}
}

func (n *Node) addChild(c *Node) {
	n.Children = append(n.Children, c)
}

// MaxRecursionDepth bounds embedded-BinXML recursion (spec §4.5).
const MaxRecursionDepth = 100

// Warning is a non-fatal finding surfaced while assembling a tree.
type Warning struct {
	Message string
}

func (a Attribute) String() string {
	return a.Name + "=" + a.Value
}
