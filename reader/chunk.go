package reader

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/goevtx/evtx/errs"
	"github.com/goevtx/evtx/section"
)

func recordFramingError(offset int64, size uint32) error {
	return fmt.Errorf("%w: record at offset %d declares size %d, which overruns the chunk", errs.ErrRecordLengthMismatch, offset, size)
}

// Chunk wraps one validated 65536-byte chunk and walks its records.
type Chunk struct {
	Index  int
	Offset int64
	Header section.ChunkHeader
	Data   []byte
}

// NewChunk validates data (exactly one ChunkSize-byte chunk starting at
// offset in the file) and returns a Chunk ready to iterate.
func NewChunk(index int, data []byte, offset int64, validateChecksums bool) (*Chunk, error) {
	var h section.ChunkHeader
	if err := h.Parse(data, validateChecksums); err != nil {
		return nil, fmt.Errorf("chunk at offset %d: %w", offset, err)
	}

	return &Chunk{Index: index, Offset: offset, Header: h, Data: data}, nil
}

// recordMagicBytes is section.RecordMagic in its on-disk little-endian byte
// order, used by resync to scan for the next plausible record start.
var recordMagicBytes = func() [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], section.RecordMagic)
	return b
}()

// findNextMagic scans data[from:] for the next occurrence of the record
// magic, returning its chunk-relative offset or -1 if none remains.
func findNextMagic(data []byte, from int) int {
	for i := from; i+4 <= len(data); i++ {
		if data[i] == recordMagicBytes[0] && data[i+1] == recordMagicBytes[1] &&
			data[i+2] == recordMagicBytes[2] && data[i+3] == recordMagicBytes[3] {
			return i
		}
	}

	return -1
}

// recordAreaEnd reports the chunk-relative offset past which no more
// records are expected, per the chunk header's free-space marker, falling
// back to the full chunk extent for a zero/unset header (e.g. hand-built
// test fixtures).
func (c *Chunk) recordAreaEnd() int {
	if c.Header.FreeSpaceOffset > 0 && int(c.Header.FreeSpaceOffset) <= len(c.Data) {
		return int(c.Header.FreeSpaceOffset)
	}

	return len(c.Data)
}

// Records walks c's records in order starting just past the fixed
// string/template bucket-table header. A record whose leading/trailing
// length fields disagree is dropped with a resync: the scan continues from
// the next occurrence of the record magic rather than abandoning the rest
// of the chunk (spec §4.6, "scan for the next valid record magic").
func (c *Chunk) Records() iter.Seq2[RawRecord, error] {
	return func(yield func(RawRecord, error) bool) {
		pos := section.ChunkHeaderBlockSize
		end := c.recordAreaEnd()

		for pos+section.RecordHeaderSize <= end {
			var hdr section.RecordHeader
			if err := hdr.Parse(c.Data[pos:]); err != nil {
				next := findNextMagic(c.Data, pos+1)
				if next < 0 || next >= end {
					return
				}
				pos = next
				continue
			}

			if hdr.Size < section.RecordHeaderSize+section.RecordTrailerSize || pos+int(hdr.Size) > end {
				next := findNextMagic(c.Data, pos+1)
				if next < 0 || next >= end {
					return
				}
				if !yield(RawRecord{}, recordFramingError(c.Offset+int64(pos), hdr.Size)) {
					return
				}
				pos = next
				continue
			}

			recordBytes := c.Data[pos : pos+int(hdr.Size)]
			if err := hdr.ValidateTrailer(recordBytes); err != nil {
				next := findNextMagic(c.Data, pos+1)
				if !yield(RawRecord{}, fmt.Errorf("record at offset %d: %w", c.Offset+int64(pos), err)) {
					return
				}
				if next < 0 || next >= end {
					return
				}
				pos = next
				continue
			}

			body := recordBytes[section.RecordHeaderSize : len(recordBytes)-section.RecordTrailerSize]
			rec := RawRecord{
				Header: hdr,
				Body:   body,
				Offset: c.Offset + int64(pos),
			}

			if !yield(rec, nil) {
				return
			}

			pos += int(hdr.Size)
		}
	}
}
