package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goevtx/evtx/cache"
	"github.com/goevtx/evtx/value"
)

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// nameHashForTest reproduces binxml's recomputeNameHash so these fixtures
// declare a name hash that actually matches its text, the way a real EVTX
// producer does, rather than tripping the advisory hash-mismatch warning.
func nameHashForTest(name string) uint16 {
	var hash uint32
	for _, c := range name {
		hash = hash*65599 + uint32(c)
	}

	return uint16(hash)
}

// buildSimpleSkeleton constructs a skeleton body encoding:
//
//	<FragmentHeader/><Event><Data>SUB[0]</Data></Event>
//
// where the Event/Data names are declared inline and SUB[0] is a Normal
// Substitution of slot 0.
func buildSimpleSkeleton() []byte {
	var buf []byte
	buf = append(buf, 0x0F, 1, 1, 0) // fragment header

	writeOpenElement := func(name string) (sizePos int) {
		buf = append(buf, 0x01) // OpenStartElement, no attrs
		buf = appendU16(buf, 0xFFFF)
		sizePos = len(buf)
		buf = appendU32(buf, 0) // size placeholder

		nameFieldPos := len(buf)
		buf = appendU32(buf, 0)
		selfOff := len(buf)
		buf[nameFieldPos] = byte(selfOff)
		buf[nameFieldPos+1] = byte(selfOff >> 8)
		buf[nameFieldPos+2] = byte(selfOff >> 16)
		buf[nameFieldPos+3] = byte(selfOff >> 24)

		buf = append(buf, 0, 0, 0, 0)
		buf = appendU16(buf, nameHashForTest(name))
		buf = appendU16(buf, uint16(len(name)))
		for _, c := range name {
			buf = appendU16(buf, uint16(c))
		}
		buf = appendU16(buf, 0)

		return sizePos
	}

	patchSize := func(start, sizePos int) {
		size := len(buf) - start
		buf[sizePos] = byte(size)
		buf[sizePos+1] = byte(size >> 8)
		buf[sizePos+2] = byte(size >> 16)
		buf[sizePos+3] = byte(size >> 24)
	}

	eventStart := len(buf)
	eventSizePos := writeOpenElement("Event")
	buf = append(buf, 0x02) // CloseStartElement

	dataStart := len(buf)
	dataSizePos := writeOpenElement("Data")
	buf = append(buf, 0x02) // CloseStartElement

	buf = append(buf, 0x0D) // Normal Substitution
	buf = appendU16(buf, 0)
	buf = append(buf, byte(value.TypeString))

	buf = append(buf, 0x04) // EndElement (closes Data)
	patchSize(dataStart, dataSizePos)

	buf = append(buf, 0x04) // EndElement (closes Event)
	patchSize(eventStart, eventSizePos)

	buf = append(buf, 0x00) // EOF

	return buf
}

func TestAssembleSimpleSubstitution(t *testing.T) {
	body := buildSimpleSkeleton()
	tmpl := &cache.Template{Offset: 0, Body: body}
	values := []value.Value{{Type: value.TypeString, Str: "hello"}}

	root, warnings, err := Assemble(tmpl, values, cache.NewChunk(), 0, 8, 0)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.NotNil(t, root)
	require.Equal(t, "Event", root.Name)
	require.Len(t, root.Children, 1)

	data := root.Children[0]
	require.Equal(t, "Data", data.Name)
	require.Len(t, data.Children, 1)
	require.Equal(t, KindText, data.Children[0].Kind)
	require.Equal(t, "hello", data.Children[0].Text)
}

// buildZeroSlotSkeleton constructs <FragmentHeader/><Event><Data>literal</Data></Event>
// with the text embedded directly as a Value token rather than a substitution
// slot, exercising a template with no substitutions at all.
func buildZeroSlotSkeleton(literal string) []byte {
	var buf []byte
	buf = append(buf, 0x0F, 1, 1, 0) // fragment header

	writeOpenElement := func(name string) (sizePos int) {
		buf = append(buf, 0x01)
		buf = appendU16(buf, 0xFFFF)
		sizePos = len(buf)
		buf = appendU32(buf, 0)

		nameFieldPos := len(buf)
		buf = appendU32(buf, 0)
		selfOff := len(buf)
		buf[nameFieldPos] = byte(selfOff)
		buf[nameFieldPos+1] = byte(selfOff >> 8)
		buf[nameFieldPos+2] = byte(selfOff >> 16)
		buf[nameFieldPos+3] = byte(selfOff >> 24)

		buf = append(buf, 0, 0, 0, 0)
		buf = appendU16(buf, nameHashForTest(name))
		buf = appendU16(buf, uint16(len(name)))
		for _, c := range name {
			buf = appendU16(buf, uint16(c))
		}
		buf = appendU16(buf, 0)

		return sizePos
	}

	patchSize := func(start, sizePos int) {
		size := len(buf) - start
		buf[sizePos] = byte(size)
		buf[sizePos+1] = byte(size >> 8)
		buf[sizePos+2] = byte(size >> 16)
		buf[sizePos+3] = byte(size >> 24)
	}

	eventStart := len(buf)
	eventSizePos := writeOpenElement("Event")
	buf = append(buf, 0x02)

	dataStart := len(buf)
	dataSizePos := writeOpenElement("Data")
	buf = append(buf, 0x02)

	buf = append(buf, 0x05) // Value token, no "more" bit
	buf = append(buf, byte(value.TypeString))
	buf = appendU16(buf, uint16(len(literal)*2))
	for _, c := range literal {
		buf = appendU16(buf, uint16(c))
	}

	buf = append(buf, 0x04)
	patchSize(dataStart, dataSizePos)

	buf = append(buf, 0x04)
	patchSize(eventStart, eventSizePos)

	buf = append(buf, 0x00)

	return buf
}

func TestAssembleZeroSlotTemplate(t *testing.T) {
	body := buildZeroSlotSkeleton("fixed")
	tmpl := &cache.Template{Offset: 0, Body: body}

	root, warnings, err := Assemble(tmpl, nil, cache.NewChunk(), 0, 8, 0)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "Event", root.Name)
	require.Len(t, root.Children, 1)

	data := root.Children[0]
	require.Equal(t, "Data", data.Name)
	require.Len(t, data.Children, 1)
	require.Equal(t, KindText, data.Children[0].Kind)
	require.Equal(t, "fixed", data.Children[0].Text)
}

func TestAssembleRecursionLimit(t *testing.T) {
	tmpl := &cache.Template{Offset: 0, Body: []byte{0x00}}
	_, _, err := Assemble(tmpl, nil, cache.NewChunk(), 0, 8, MaxRecursionDepth+1)
	require.Error(t, err)
}

func TestFlattenText(t *testing.T) {
	n := &Node{Kind: KindElement, Name: "X", Children: []*Node{
		{Kind: KindText, Text: "a"},
		{Kind: KindElement, Name: "Y", Children: []*Node{{Kind: KindText, Text: "b"}}},
	}}
	require.Equal(t, "ab", flattenText(n))
}
