package reader

import (
	"time"

	"github.com/goevtx/evtx/errs"
	"github.com/goevtx/evtx/section"
)

// RawRecord is one record's header plus its still-undecoded BinXML fragment
// bytes, as handed out by Chunk.Records before template assembly runs.
type RawRecord struct {
	Header section.RecordHeader
	Body   []byte
	Offset int64 // absolute file offset of the record header's first byte
}

// Position pinpoints where in the file a Warning or error was detected.
type Position struct {
	ChunkIndex   int
	RecordOffset int
}

// Warning is a recoverable finding surfaced alongside a Record: a name-hash
// mismatch, a cache redeclaration divergence, or (when
// Config.StopOnError is false) the error that would otherwise have stopped
// the stream.
type Warning struct {
	Kind         errs.Kind
	Chunk        int
	RecordOffset int
	RecordID     *uint64
	Err          error
}

// Record is one fully decoded and rendered EVTX event record.
type Record struct {
	EventRecordID uint64
	Timestamp     time.Time
	Data          string
	Position      Position
	Warnings      []Warning
}
