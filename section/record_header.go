package section

import (
	"encoding/binary"
	"fmt"

	"github.com/goevtx/evtx/errs"
)

const (
	RecordMagic          uint32 = 0x00002a2a
	RecordHeaderSize            = 24 // magic(4) + size(4) + recordID(8) + fileTime(8)
	RecordTrailerSize           = 4  // trailing copy of size, for backward iteration
)

// RecordHeader is the fixed header preceding each event record's BinXML
// fragment (spec §3 "Record"). Size is repeated verbatim as the record's
// last 4 bytes, letting a reader walk the chunk backward as well as
// forward; Parse only reads the leading copy.
type RecordHeader struct {
	Magic    uint32
	Size     uint32
	RecordID uint64
	FileTime uint64
}

// Parse decodes a RecordHeader from the first RecordHeaderSize bytes of buf.
func (h *RecordHeader) Parse(buf []byte) error {
	if len(buf) < RecordHeaderSize {
		return fmt.Errorf("%w: record header needs %d bytes, have %d", errs.ErrUnexpectedEOF, RecordHeaderSize, len(buf))
	}

	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if h.Magic != RecordMagic {
		return fmt.Errorf("%w: got 0x%08X", errs.ErrInvalidRecordMagic, h.Magic)
	}

	h.Size = binary.LittleEndian.Uint32(buf[4:8])
	h.RecordID = binary.LittleEndian.Uint64(buf[8:16])
	h.FileTime = binary.LittleEndian.Uint64(buf[16:24])

	return nil
}

// Bytes encodes h into a RecordHeaderSize-byte block.
func (h *RecordHeader) Bytes() []byte {
	buf := make([]byte, RecordHeaderSize)

	binary.LittleEndian.PutUint32(buf[0:4], RecordMagic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Size)
	binary.LittleEndian.PutUint64(buf[8:16], h.RecordID)
	binary.LittleEndian.PutUint64(buf[16:24], h.FileTime)

	return buf
}

// ValidateTrailer checks that the trailing 4-byte size copy at the end of a
// record (buf[h.Size-RecordTrailerSize : h.Size]) agrees with the leading
// header's declared Size (spec §4.6's length-framing invariant).
func (h *RecordHeader) ValidateTrailer(buf []byte) error {
	if uint32(len(buf)) < h.Size {
		return fmt.Errorf("%w: need %d bytes, have %d", errs.ErrUnexpectedEOF, h.Size, len(buf))
	}

	trailer := binary.LittleEndian.Uint32(buf[h.Size-RecordTrailerSize : h.Size])
	if trailer != h.Size {
		return fmt.Errorf("%w: leading size %d, trailing size %d", errs.ErrRecordLengthMismatch, h.Size, trailer)
	}

	return nil
}
