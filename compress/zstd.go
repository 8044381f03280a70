package compress

// ZstdCompressor provides Zstandard compression, one of the selectable codecs
// for the pipeline's reorder spool when a chunk's rendered records must wait
// behind an earlier, still-decoding chunk (the default is LZ4).
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
