package evtx

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goevtx/evtx/reader"
	"github.com/goevtx/evtx/section"
	"github.com/goevtx/evtx/value"
)

const (
	chunkHeaderChecksumOff = 0x7C
	chunkDataChecksumOff   = 0x80
)

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// buildSkeleton constructs a template skeleton body encoding
// <FragmentHeader/><Event><Data>SUB[0]</Data></Event><EOF/>, with the
// Event/Data names declared inline and SUB[0] a Normal Substitution of slot 0.
func buildSkeleton() []byte {
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

		buf = append(buf, 0, 0, 0, 0) // next-offset chain pointer
		buf = append(buf, 0, 0)       // name hash
		buf = appendU16(buf, uint16(len(name)))
		for _, c := range name {
			buf = appendU16(buf, uint16(c))
		}
		buf = appendU16(buf, 0) // NUL terminator

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

// buildRecordBody constructs a record's own token stream: a FragmentHeader
// followed by a top-level TemplateInstance that inlines skeleton as a fresh
// definition and carries a single string substitution value, then EOF.
// chunkBodyOffset is this body's chunk-relative byte offset (needed because
// the template definition's self-reference is chunk-relative, not
// body-relative — spec §4.3/§4.4).
func buildRecordBody(skeleton []byte, value_ string, chunkBodyOffset int) []byte {
	var buf []byte
	buf = append(buf, 0x0F, 1, 1, 0) // fragment header

	buf = append(buf, 0x0C)       // TemplateInstance token
	buf = append(buf, 0x01)       // reserved, conventionally 0x01
	buf = appendU16(buf, 0)       // reserved
	buf = appendU32(buf, 0)       // template id (unused by this decoder)

	defOffsetPos := len(buf)
	buf = appendU32(buf, 0) // placeholder, patched below

	here := chunkBodyOffset + len(buf)
	buf[defOffsetPos] = byte(here)
	buf[defOffsetPos+1] = byte(here >> 8)
	buf[defOffsetPos+2] = byte(here >> 16)
	buf[defOffsetPos+3] = byte(here >> 24)

	buf = appendU32(buf, 0)               // next-offset chain pointer
	buf = append(buf, make([]byte, 16)...) // GUID
	buf = appendU32(buf, uint32(len(skeleton)))
	buf = append(buf, skeleton...)

	buf = appendU32(buf, 1) // one substitution value
	size := len(value_) * 2
	buf = appendU16(buf, uint16(size))
	buf = append(buf, byte(value.TypeString))
	buf = append(buf, 0) // padding
	for _, c := range value_ {
		buf = appendU16(buf, uint16(c))
	}

	buf = append(buf, 0x00) // EOF

	return buf
}

// buildSingleRecordFile assembles a complete in-memory EVTX file containing
// exactly one chunk with exactly one record rendering
// <Event><Data>hello</Data></Event>.
func buildSingleRecordFile(t *testing.T) []byte {
	t.Helper()

	const recordChunkOffset = section.ChunkHeaderBlockSize // first record in the chunk
	bodyChunkOffset := recordChunkOffset + section.RecordHeaderSize

	skeleton := buildSkeleton()
	body := buildRecordBody(skeleton, "hello", bodyChunkOffset)

	recHdr := section.RecordHeader{
		Size:     uint32(section.RecordHeaderSize + len(body) + section.RecordTrailerSize),
		RecordID: 1,
		FileTime: 0,
	}
	recordBytes := recHdr.Bytes()
	recordBytes = append(recordBytes, body...)
	trailer := make([]byte, section.RecordTrailerSize)
	binary.LittleEndian.PutUint32(trailer, recHdr.Size)
	recordBytes = append(recordBytes, trailer...)

	chunkBuf := make([]byte, section.ChunkSize)
	copy(chunkBuf[recordChunkOffset:], recordBytes)

	chunkHdr := section.ChunkHeader{
		FirstRecordNumber: 1,
		LastRecordNumber:  1,
		FirstRecordID:     1,
		LastRecordID:      1,
		FreeSpaceOffset:   uint32(recordChunkOffset + len(recordBytes)),
	}
	copy(chunkBuf[0:section.ChunkHeaderBlockSize], chunkHdr.Bytes())

	headerChecksum := crc32.ChecksumIEEE(chunkBuf[0:chunkHeaderChecksumOff])
	binary.LittleEndian.PutUint32(chunkBuf[chunkHeaderChecksumOff:chunkHeaderChecksumOff+4], headerChecksum)

	dataChecksum := crc32.ChecksumIEEE(chunkBuf[section.ChunkHeaderBlockSize:section.ChunkSize])
	binary.LittleEndian.PutUint32(chunkBuf[chunkDataChecksumOff:chunkDataChecksumOff+4], dataChecksum)

	fileHdr := section.FileHeader{
		NextRecordID: 2,
		MinorVersion: 1,
		MajorVersion: 3,
		ChunkCount:   1,
	}
	fileBytes := fileHdr.Bytes()

	return append(fileBytes, chunkBuf...)
}

func TestOpenBytesAndRecordsXML(t *testing.T) {
	data := buildSingleRecordFile(t)

	r, err := OpenBytes(data)
	require.NoError(t, err)
	defer r.Close()

	var got []reader.Record
	for rec, err := range r.Records() {
		require.NoError(t, err)
		got = append(got, rec)
	}

	require.Len(t, got, 1)
	require.Equal(t, uint64(1), got[0].EventRecordID)
	require.Equal(t, "<Event><Data>hello</Data></Event>", got[0].Data)
}

func TestOpenBytesRecordsJSON(t *testing.T) {
	data := buildSingleRecordFile(t)

	r, err := OpenBytes(data)
	require.NoError(t, err)
	defer r.Close()

	var got []reader.Record
	for rec, err := range r.RecordsJSON() {
		require.NoError(t, err)
		got = append(got, rec)
	}

	require.Len(t, got, 1)
	require.JSONEq(t, `{"Data":{"#text":"hello"}}`, got[0].Data)
}

func TestOpenBytesParallelMatchesSerial(t *testing.T) {
	data := buildSingleRecordFile(t)

	r1, err := OpenBytes(data)
	require.NoError(t, err)
	defer r1.Close()

	r2, err := OpenBytes(data)
	require.NoError(t, err)
	defer r2.Close()

	var serial, parallel []string
	for rec, err := range r1.Records(reader.WithThreads(1)) {
		require.NoError(t, err)
		serial = append(serial, rec.Data)
	}
	for rec, err := range r2.Records(reader.WithThreads(4)) {
		require.NoError(t, err)
		parallel = append(parallel, rec.Data)
	}

	require.Equal(t, serial, parallel)
}
