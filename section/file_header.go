// Package section decodes the fixed on-disk header layouts — file header,
// chunk header, record header — that frame an EVTX file's binary structure
// (spec §4.6/§4.7), grounded on the teacher's section.NumericHeader: a
// fixed-offset struct with symmetric Parse([]byte) error / Bytes() []byte
// methods and a package-level const block of field offsets and magic values.
package section

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/goevtx/evtx/errs"
)

const (
	FileMagic  = "ElfFile\x00"
	FileHeaderSize = 4096
	ChunkSize      = 65536

	fileHeaderPartSize = 0x78 // bytes covered by the header checksum
)

// FileHeader is the fixed 4096-byte header at the start of an EVTX file
// (spec §3 "File header").
type FileHeader struct {
	Magic            [8]byte
	OldestChunk      uint64
	CurrentChunkNum  uint64
	NextRecordID     uint64
	HeaderPartSize   uint32
	MinorVersion     uint16
	MajorVersion     uint16
	HeaderBlockSize  uint16
	ChunkCount       uint16
	Flags            uint32
	Checksum         uint32
}

// Parse decodes a FileHeader from buf, which must be at least
// FileHeaderSize bytes (the remainder of the 4096-byte block is reserved
// padding, ignored here). Magic is always validated; the checksum is
// validated only when validate is true (reader.Config.ValidateChecksums).
func (h *FileHeader) Parse(buf []byte, validate bool) error {
	if len(buf) < FileHeaderSize {
		return fmt.Errorf("%w: file header needs %d bytes, have %d", errs.ErrUnexpectedEOF, FileHeaderSize, len(buf))
	}

	copy(h.Magic[:], buf[0:8])
	if string(h.Magic[:]) != FileMagic {
		return fmt.Errorf("%w: got %q", errs.ErrInvalidFileMagic, h.Magic[:])
	}

	h.OldestChunk = binary.LittleEndian.Uint64(buf[8:16])
	h.CurrentChunkNum = binary.LittleEndian.Uint64(buf[16:24])
	h.NextRecordID = binary.LittleEndian.Uint64(buf[24:32])
	h.HeaderPartSize = binary.LittleEndian.Uint32(buf[32:36])
	h.MinorVersion = binary.LittleEndian.Uint16(buf[36:38])
	h.MajorVersion = binary.LittleEndian.Uint16(buf[38:40])
	h.HeaderBlockSize = binary.LittleEndian.Uint16(buf[40:42])
	h.ChunkCount = binary.LittleEndian.Uint16(buf[42:44])
	// buf[44:120] reserved
	h.Flags = binary.LittleEndian.Uint32(buf[120:124])
	h.Checksum = binary.LittleEndian.Uint32(buf[124:128])

	if h.MajorVersion != 3 {
		return fmt.Errorf("%w: major version %d", errs.ErrInvalidVersion, h.MajorVersion)
	}

	if !validate {
		return nil
	}

	computed := crc32.ChecksumIEEE(buf[0:fileHeaderPartSize])
	if computed != h.Checksum {
		return fmt.Errorf("%w: computed 0x%08X, declared 0x%08X", errs.ErrFileHeaderChecksum, computed, h.Checksum)
	}

	return nil
}

// fileHeaderFlag32BitHost marks that the producer's platform word size is 4
// bytes rather than the 8-byte default, governing how value.TypeSizeT is
// decoded (spec §3 "Typed value": "width equals the producer's platform
// word size, inherited from the header"). The format does not name this bit
// explicitly; goevtx reserves Flags bit 0 for it and defaults to 8 bytes
// when the bit is unset, matching every modern (64-bit) EVTX producer.
const fileHeaderFlag32BitHost = 0x1

// PointerWidth returns the byte width (4 or 8) value.TypeSizeT decodes to
// for this file, derived from bit 0 of Flags.
func (h *FileHeader) PointerWidth() int {
	if h.Flags&fileHeaderFlag32BitHost != 0 {
		return 4
	}

	return 8
}

// Bytes encodes h back into a 4096-byte block, recomputing the checksum
// over the covered header fields.
func (h *FileHeader) Bytes() []byte {
	buf := make([]byte, FileHeaderSize)

	copy(buf[0:8], FileMagic)
	binary.LittleEndian.PutUint64(buf[8:16], h.OldestChunk)
	binary.LittleEndian.PutUint64(buf[16:24], h.CurrentChunkNum)
	binary.LittleEndian.PutUint64(buf[24:32], h.NextRecordID)
	binary.LittleEndian.PutUint32(buf[32:36], h.HeaderPartSize)
	binary.LittleEndian.PutUint16(buf[36:38], h.MinorVersion)
	binary.LittleEndian.PutUint16(buf[38:40], h.MajorVersion)
	binary.LittleEndian.PutUint16(buf[40:42], h.HeaderBlockSize)
	binary.LittleEndian.PutUint16(buf[42:44], h.ChunkCount)
	binary.LittleEndian.PutUint32(buf[120:124], h.Flags)

	checksum := crc32.ChecksumIEEE(buf[0:fileHeaderPartSize])
	binary.LittleEndian.PutUint32(buf[124:128], checksum)

	return buf
}
