package reader

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goevtx/evtx/compress"
	"github.com/goevtx/evtx/section"
	"github.com/goevtx/evtx/value"
)

func appendU16(buf []byte, v uint16) []byte { return append(buf, byte(v), byte(v>>8)) }
func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// buildSkeleton constructs <FragmentHeader/><Event><Data>SUB[0]</Data></Event>
// with both names declared inline and SUB[0] a Normal Substitution of slot 0,
// mirroring model/assemble_test.go's buildSimpleSkeleton.
func buildSkeleton() []byte {
	var buf []byte
	buf = append(buf, 0x0F, 1, 1, 0)

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
		buf = append(buf, 0, 0)
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

	buf = append(buf, 0x0D)
	buf = appendU16(buf, 0)
	buf = append(buf, byte(value.TypeString))

	buf = append(buf, 0x04)
	patchSize(dataStart, dataSizePos)

	buf = append(buf, 0x04)
	patchSize(eventStart, eventSizePos)

	buf = append(buf, 0x00)

	return buf
}

// buildRecordBody wraps skeleton in an inline TemplateInstance carrying a
// single string substitution value. chunkBodyOffset is this body's
// chunk-relative byte offset.
func buildRecordBody(skeleton []byte, text string, chunkBodyOffset int) []byte {
	var buf []byte
	buf = append(buf, 0x0F, 1, 1, 0)

	buf = append(buf, 0x0C)
	buf = append(buf, 0x01)
	buf = appendU16(buf, 0)
	buf = appendU32(buf, 0)

	defOffsetPos := len(buf)
	buf = appendU32(buf, 0)

	here := chunkBodyOffset + len(buf)
	buf[defOffsetPos] = byte(here)
	buf[defOffsetPos+1] = byte(here >> 8)
	buf[defOffsetPos+2] = byte(here >> 16)
	buf[defOffsetPos+3] = byte(here >> 24)

	buf = appendU32(buf, 0)
	buf = append(buf, make([]byte, 16)...)
	buf = appendU32(buf, uint32(len(skeleton)))
	buf = append(buf, skeleton...)

	buf = appendU32(buf, 1)
	size := len(text) * 2
	buf = appendU16(buf, uint16(size))
	buf = append(buf, byte(value.TypeString))
	buf = append(buf, 0)
	for _, c := range text {
		buf = appendU16(buf, uint16(c))
	}

	buf = append(buf, 0x00)

	return buf
}

// buildChunkWithDecodableRecords places one decodable record per text value,
// starting right after the fixed chunk header block, and returns a
// checksum-valid chunk buffer.
func buildChunkWithDecodableRecords(t *testing.T, firstID uint64, texts []string) []byte {
	t.Helper()

	var recordsBytes [][]byte
	pos := section.ChunkHeaderBlockSize

	for i, text := range texts {
		bodyChunkOffset := pos + section.RecordHeaderSize
		body := buildRecordBody(buildSkeleton(), text, bodyChunkOffset)

		hdr := section.RecordHeader{
			Size:     uint32(section.RecordHeaderSize + len(body) + section.RecordTrailerSize),
			RecordID: firstID + uint64(i),
		}
		rb := hdr.Bytes()
		rb = append(rb, body...)
		trailer := make([]byte, section.RecordTrailerSize)
		binary.LittleEndian.PutUint32(trailer, hdr.Size)
		rb = append(rb, trailer...)

		recordsBytes = append(recordsBytes, rb)
		pos += len(rb)
	}

	return buildChunkWithRecords(t, recordsBytes)
}

func buildMultiChunkFile(t *testing.T, chunks [][]string) ([]byte, *File) {
	t.Helper()

	hdr := section.FileHeader{MajorVersion: 3, MinorVersion: 1, ChunkCount: uint16(len(chunks))}
	data := hdr.Bytes()

	id := uint64(1)
	for _, texts := range chunks {
		data = append(data, buildChunkWithDecodableRecords(t, id, texts)...)
		id += uint64(len(texts))
	}

	f, err := OpenBytes(data, true)
	require.NoError(t, err)

	return data, f
}

func TestRecordStreamOrderAcrossChunks(t *testing.T) {
	_, f := buildMultiChunkFile(t, [][]string{{"a", "b"}, {"c"}, {"d", "e", "f"}})

	cfg, err := NewConfig(WithThreads(1))
	require.NoError(t, err)

	var got []string
	for rec, err := range RecordStream(f, cfg) {
		require.NoError(t, err)
		got = append(got, rec.Data)
	}

	require.Equal(t, []string{
		"<Event><Data>a</Data></Event>",
		"<Event><Data>b</Data></Event>",
		"<Event><Data>c</Data></Event>",
		"<Event><Data>d</Data></Event>",
		"<Event><Data>e</Data></Event>",
		"<Event><Data>f</Data></Event>",
	}, got)
}

func TestRecordStreamParallelMatchesSerialOrder(t *testing.T) {
	_, fSerial := buildMultiChunkFile(t, [][]string{{"a", "b"}, {"c"}, {"d", "e"}, {"f"}})
	_, fParallel := buildMultiChunkFile(t, [][]string{{"a", "b"}, {"c"}, {"d", "e"}, {"f"}})

	serialCfg, err := NewConfig(WithThreads(1))
	require.NoError(t, err)
	parallelCfg, err := NewConfig(WithThreads(4))
	require.NoError(t, err)

	var serial, parallel []string
	for rec, err := range RecordStream(fSerial, serialCfg) {
		require.NoError(t, err)
		serial = append(serial, rec.Data)
	}
	for rec, err := range RecordStream(fParallel, parallelCfg) {
		require.NoError(t, err)
		parallel = append(parallel, rec.Data)
	}

	require.Equal(t, serial, parallel)
}

func TestRecordStreamRecordIDFilter(t *testing.T) {
	_, f := buildMultiChunkFile(t, [][]string{{"a", "b", "c"}})

	cfg, err := NewConfig(WithRecordIDRange(2, 2))
	require.NoError(t, err)

	var got []uint64
	for rec, err := range RecordStream(f, cfg) {
		require.NoError(t, err)
		got = append(got, rec.EventRecordID)
	}

	require.Equal(t, []uint64{2}, got)
}

func TestRecordStreamJSONFormat(t *testing.T) {
	_, f := buildMultiChunkFile(t, [][]string{{"hello"}})

	cfg, err := NewConfig(WithFormat(FormatJSON))
	require.NoError(t, err)

	var got []string
	for rec, err := range RecordStream(f, cfg) {
		require.NoError(t, err)
		got = append(got, rec.Data)
	}

	require.Len(t, got, 1)
	require.JSONEq(t, `{"Data":{"#text":"hello"}}`, got[0])
}

func TestRecordStreamJSONPrettyFormat(t *testing.T) {
	_, f := buildMultiChunkFile(t, [][]string{{"hello"}})

	cfg, err := NewConfig(WithFormat(FormatJSONPretty))
	require.NoError(t, err)

	var got []string
	for rec, err := range RecordStream(f, cfg) {
		require.NoError(t, err)
		got = append(got, rec.Data)
	}

	require.Len(t, got, 1)
	require.JSONEq(t, `{"Data":{"#text":"hello"}}`, got[0])
	require.Contains(t, got[0], "\n", "json-pretty output should be indented across multiple lines")
}

func TestRecordStreamSpoolCompressionAlgorithms(t *testing.T) {
	for _, algo := range []compress.Algorithm{compress.AlgorithmNone, compress.AlgorithmLZ4, compress.AlgorithmS2, compress.AlgorithmZstd} {
		_, f := buildMultiChunkFile(t, [][]string{{"a", "b"}, {"c"}})

		cfg, err := NewConfig(WithSpoolCompression(algo))
		require.NoError(t, err, "algorithm %s", algo)

		var got []string
		for rec, err := range RecordStream(f, cfg) {
			require.NoError(t, err, "algorithm %s", algo)
			got = append(got, rec.Data)
		}

		require.Equal(t, []string{
			"<Event><Data>a</Data></Event>",
			"<Event><Data>b</Data></Event>",
			"<Event><Data>c</Data></Event>",
		}, got, "algorithm %s", algo)
	}
}

func TestRecordStreamEmptyChunkYieldsNothing(t *testing.T) {
	_, f := buildMultiChunkFile(t, [][]string{nil, {"only"}})

	cfg, err := NewConfig()
	require.NoError(t, err)

	var got []string
	for rec, err := range RecordStream(f, cfg) {
		require.NoError(t, err)
		got = append(got, rec.Data)
	}

	require.Equal(t, []string{"<Event><Data>only</Data></Event>"}, got)
}

func TestRecordStreamStopsEarlyOnConsumerBreak(t *testing.T) {
	_, f := buildMultiChunkFile(t, [][]string{{"a", "b"}, {"c", "d"}})

	cfg, err := NewConfig(WithThreads(2))
	require.NoError(t, err)

	var got []string
	for rec, err := range RecordStream(f, cfg) {
		require.NoError(t, err)
		got = append(got, rec.Data)
		if len(got) == 1 {
			break
		}
	}

	require.Len(t, got, 1)
}
