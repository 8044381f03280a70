package section

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/goevtx/evtx/errs"
)

const (
	ChunkMagic = "ElfChnk\x00"

	chunkHeaderFixedSize    = 0x80  // capacity of the header-checksum input; the checksum covers buf[0:0x7C]
	ChunkHeaderBlockSize    = 0x200 // string/template bucket tables precede record data
	chunkHeaderChecksumOff  = 0x7C
	chunkDataChecksumOff    = 0x80
)

// ChunkHeader is the fixed header at the start of each 65536-byte chunk
// (spec §3 "Chunk header"). The string/template hash-bucket table
// immediately follows this header and precedes the first record.
type ChunkHeader struct {
	Magic             [8]byte
	FirstRecordNumber uint64
	LastRecordNumber  uint64
	FirstRecordID     uint64
	LastRecordID      uint64
	HeaderSize        uint32
	LastRecordOffset  uint32
	FreeSpaceOffset   uint32
	EventRecordsSize  uint32
	Flags             uint32
	HeaderChecksum    uint32
	DataChecksum      uint32
}

// Parse decodes a ChunkHeader from buf (the full 65536-byte chunk) and
// validates the magic always, and both checksums when validate is true
// (reader.Config.ValidateChecksums). The header checksum covers bytes
// 0x00-0x7B, the fixed header fields before the checksum fields; the data
// checksum covers every byte after the ChunkHeaderBlockSize block, i.e. the
// record area through the end of the chunk.
func (h *ChunkHeader) Parse(buf []byte, validate bool) error {
	if len(buf) < ChunkSize {
		return fmt.Errorf("%w: chunk needs %d bytes, have %d", errs.ErrUnexpectedEOF, ChunkSize, len(buf))
	}

	copy(h.Magic[:], buf[0:8])
	if string(h.Magic[:]) != ChunkMagic {
		return fmt.Errorf("%w: got %q", errs.ErrInvalidChunkMagic, h.Magic[:])
	}

	h.FirstRecordNumber = binary.LittleEndian.Uint64(buf[8:16])
	h.LastRecordNumber = binary.LittleEndian.Uint64(buf[16:24])
	h.FirstRecordID = binary.LittleEndian.Uint64(buf[24:32])
	h.LastRecordID = binary.LittleEndian.Uint64(buf[32:40])
	h.HeaderSize = binary.LittleEndian.Uint32(buf[40:44])
	h.LastRecordOffset = binary.LittleEndian.Uint32(buf[44:48])
	h.FreeSpaceOffset = binary.LittleEndian.Uint32(buf[48:52])
	h.EventRecordsSize = binary.LittleEndian.Uint32(buf[52:56])
	// buf[56:120] reserved
	h.Flags = binary.LittleEndian.Uint32(buf[120:124])
	h.HeaderChecksum = binary.LittleEndian.Uint32(buf[chunkHeaderChecksumOff : chunkHeaderChecksumOff+4])
	h.DataChecksum = binary.LittleEndian.Uint32(buf[chunkDataChecksumOff : chunkDataChecksumOff+4])

	if !validate {
		return nil
	}

	headerCovered := make([]byte, 0, chunkHeaderFixedSize)
	headerCovered = append(headerCovered, buf[0:chunkHeaderChecksumOff]...)
	computedHeader := crc32.ChecksumIEEE(headerCovered)
	if computedHeader != h.HeaderChecksum {
		return fmt.Errorf("%w: computed 0x%08X, declared 0x%08X", errs.ErrChunkHeaderChecksum, computedHeader, h.HeaderChecksum)
	}

	dataCovered := buf[ChunkHeaderBlockSize:ChunkSize]
	computedData := crc32.ChecksumIEEE(dataCovered)
	if computedData != h.DataChecksum {
		return fmt.Errorf("%w: computed 0x%08X, declared 0x%08X", errs.ErrChunkDataChecksum, computedData, h.DataChecksum)
	}

	return nil
}

// Bytes encodes h's fixed header fields into a ChunkHeaderBlockSize-byte
// block (the string/template bucket table region must be filled in by the
// caller); both checksum fields are written from h as given, not recomputed,
// since they depend on payload bytes this method doesn't have.
func (h *ChunkHeader) Bytes() []byte {
	buf := make([]byte, ChunkHeaderBlockSize)

	copy(buf[0:8], ChunkMagic)
	binary.LittleEndian.PutUint64(buf[8:16], h.FirstRecordNumber)
	binary.LittleEndian.PutUint64(buf[16:24], h.LastRecordNumber)
	binary.LittleEndian.PutUint64(buf[24:32], h.FirstRecordID)
	binary.LittleEndian.PutUint64(buf[32:40], h.LastRecordID)
	binary.LittleEndian.PutUint32(buf[40:44], h.HeaderSize)
	binary.LittleEndian.PutUint32(buf[44:48], h.LastRecordOffset)
	binary.LittleEndian.PutUint32(buf[48:52], h.FreeSpaceOffset)
	binary.LittleEndian.PutUint32(buf[52:56], h.EventRecordsSize)
	binary.LittleEndian.PutUint32(buf[120:124], h.Flags)
	binary.LittleEndian.PutUint32(buf[chunkHeaderChecksumOff:chunkHeaderChecksumOff+4], h.HeaderChecksum)
	binary.LittleEndian.PutUint32(buf[chunkDataChecksumOff:chunkDataChecksumOff+4], h.DataChecksum)

	return buf
}
