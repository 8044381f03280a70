// Package compress provides the codecs used to spool rendered-but-not-yet-
// emitted record batches while the record pipeline's reorder stage waits for
// an earlier chunk to finish (§4.9/§5 of the design: "a fast worker that
// races far ahead of the in-order cursor doesn't pin many chunks' full
// rendered text in memory uncompressed").
package compress

import "fmt"

// Algorithm identifies a spool compression codec.
type Algorithm uint8

const (
	AlgorithmNone Algorithm = iota
	AlgorithmLZ4
	AlgorithmS2
	AlgorithmZstd
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "None"
	case AlgorithmLZ4:
		return "LZ4"
	case AlgorithmS2:
		return "S2"
	case AlgorithmZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}

// Compressor compresses a byte slice, returning a newly allocated result.
// The input is never modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a byte slice produced by the matching Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of one compression algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec builds a Codec for the given algorithm. target names the
// caller for error messages (e.g. "spool").
func CreateCodec(algorithm Algorithm, target string) (Codec, error) {
	switch algorithm {
	case AlgorithmNone:
		return NewNoOpCompressor(), nil
	case AlgorithmZstd:
		return NewZstdCompressor(), nil
	case AlgorithmS2:
		return NewS2Compressor(), nil
	case AlgorithmLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, algorithm)
	}
}

var builtinCodecs = map[Algorithm]Codec{
	AlgorithmNone: NewNoOpCompressor(),
	AlgorithmZstd: NewZstdCompressor(),
	AlgorithmS2:   NewS2Compressor(),
	AlgorithmLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a shared Codec instance for algorithm.
func GetCodec(algorithm Algorithm) (Codec, error) {
	if codec, ok := builtinCodecs[algorithm]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression algorithm: %s", algorithm)
}
