package reader

import (
	"fmt"
	"os"
	"sync"

	"github.com/goevtx/evtx/errs"
	"github.com/goevtx/evtx/section"
)

// File owns one open EVTX file's bytes and validated file header, and hands
// out chunk-sized slices to the parallel pipeline's workers (spec §5).
//
// A path-backed File serialises reads through mu, since *os.File.ReadAt is
// safe for concurrent use but we still want a single predictable read path;
// a byte-backed File (OpenBytes) shares data read-only among workers with no
// locking at all — both satisfy the same ReadChunkAt contract.
type File struct {
	mu     sync.Mutex
	f      *os.File
	data   []byte
	Header section.FileHeader
	size   int64
}

// OpenFile opens path, validates the 4096-byte file header, and returns a
// File ready for ReadChunkAt. validateChecksums controls whether the
// header's CRC-32 is enforced (Config.ValidateChecksums).
func OpenFile(path string, validateChecksums bool) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	buf := make([]byte, section.FileHeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	file := &File{f: f, size: info.Size()}
	if err := file.Header.Parse(buf, validateChecksums); err != nil {
		f.Close()
		return nil, err
	}

	return file, nil
}

// OpenBytes validates data's file header in place and returns a File backed
// by data directly (no copy); data must not be modified afterward.
func OpenBytes(data []byte, validateChecksums bool) (*File, error) {
	if len(data) < section.FileHeaderSize {
		return nil, fmt.Errorf("%w: file shorter than the %d-byte header", errs.ErrUnexpectedEOF, section.FileHeaderSize)
	}

	file := &File{data: data, size: int64(len(data))}
	if err := file.Header.Parse(data[:section.FileHeaderSize], validateChecksums); err != nil {
		return nil, err
	}

	return file, nil
}

// Close releases the underlying *os.File. A no-op for byte-backed Files.
func (f *File) Close() error {
	if f.f != nil {
		return f.f.Close()
	}

	return nil
}

// ChunkCount reports how many complete 64KiB chunks follow the file header,
// derived from the file's actual extent rather than the header's own
// ChunkCount field — a truncated or appended-to file is walked by what is
// really there.
func (f *File) ChunkCount() int {
	body := f.size - section.FileHeaderSize
	if body <= 0 {
		return 0
	}

	return int(body / section.ChunkSize)
}

// ReadChunkAt returns the raw bytes of the chunk at idx (0-based, following
// the file header) and its absolute file offset. Safe for concurrent calls
// from multiple pipeline workers.
func (f *File) ReadChunkAt(idx int) ([]byte, int64, error) {
	offset := int64(section.FileHeaderSize) + int64(idx)*section.ChunkSize

	if f.data != nil {
		if offset+section.ChunkSize > int64(len(f.data)) {
			return nil, 0, fmt.Errorf("%w: chunk %d out of range", errs.ErrUnexpectedEOF, idx)
		}

		return f.data[offset : offset+section.ChunkSize], offset, nil
	}

	buf := make([]byte, section.ChunkSize)

	f.mu.Lock()
	_, err := f.f.ReadAt(buf, offset)
	f.mu.Unlock()

	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	return buf, offset, nil
}
