// Package reader drives chunk and record iteration over an EVTX file: file
// and chunk header validation (C6/C7), a bounded-worker parallel pipeline
// that decodes chunks concurrently and re-orders their records back into
// file order (C9), and the functional-options Config that tunes both.
package reader

import (
	"github.com/goevtx/evtx/compress"
	"github.com/goevtx/evtx/internal/options"
)

// Format selects the text rendering RecordStream produces for Record.Data.
type Format uint8

const (
	FormatXML Format = iota
	FormatJSON
	// FormatJSONPretty renders the same structure as FormatJSON, indented
	// for human reading (CLI §6's `json-pretty`). FormatJSON itself already
	// satisfies `json-lines` (one compact JSON object per Record, and the
	// CLI writes one per output line) so there is no separate constant for
	// that option.
	FormatJSONPretty
)

// Config controls how RecordStream walks a file's chunks and records.
type Config struct {
	Threads           int
	HasRecordIDRange  bool
	MinRecordID       uint64
	MaxRecordID       uint64
	ANSICodePage      int
	ValidateChecksums bool
	StopOnError       bool
	Format            Format
	SpoolCompression  compress.Algorithm
}

// Option configures a Config, built through New/WithXxx the same way
// blob.NumericEncoderOption configures a blob.NumericEncoder.
type Option = options.Option[*Config]

func defaultConfig() *Config {
	return &Config{
		Threads:           1,
		ANSICodePage:      1252,
		ValidateChecksums: true,
		SpoolCompression:  compress.AlgorithmLZ4,
	}
}

// NewConfig applies opts over the package defaults (one thread, Windows-1252
// ANSI code page, checksum validation on, errors recorded as warnings rather
// than stopping the stream) and returns the resulting Config.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithThreads sets the number of chunk-decoding goroutines the pipeline
// runs concurrently (spec §5). Values below 1 are clamped to 1.
func WithThreads(n int) Option {
	return options.NoError(func(c *Config) {
		if n < 1 {
			n = 1
		}
		c.Threads = n
	})
}

// WithRecordIDRange restricts RecordStream to event records whose
// EventRecordID falls within [min, max] inclusive.
func WithRecordIDRange(min, max uint64) Option {
	return options.NoError(func(c *Config) {
		c.MinRecordID = min
		c.MaxRecordID = max
		c.HasRecordIDRange = true
	})
}

// WithANSICodePage sets the Windows code page used to decode AnsiString
// values. Defaults to 1252 (Windows Western); an unrecognised code page
// falls back to 1252 with a non-fatal warning (serialize.CodePage).
func WithANSICodePage(cp int) Option {
	return options.NoError(func(c *Config) { c.ANSICodePage = cp })
}

// WithValidateChecksums toggles CRC-32 validation of the file header, chunk
// headers, and chunk data. Disabling this lets a reader tolerate a
// bit-damaged archival copy at the cost of silently accepting corruption.
func WithValidateChecksums(v bool) Option {
	return options.NoError(func(c *Config) { c.ValidateChecksums = v })
}

// WithStopOnError makes RecordStream yield the first decode error, after the
// records of that chunk decoded before it, and then end. When false, a
// framing or decode error inside a chunk becomes a Warning on the next record
// of that chunk that decodes successfully, and decoding continues.
func WithStopOnError(v bool) Option {
	return options.NoError(func(c *Config) { c.StopOnError = v })
}

// WithFormat selects the text format RecordStream renders into Record.Data.
// Defaults to FormatXML.
func WithFormat(f Format) Option {
	return options.NoError(func(c *Config) { c.Format = f })
}

// WithSpoolCompression selects the codec RecordStream uses to compress a
// chunk's rendered-but-not-yet-emitted records while they wait for earlier
// chunks to finish (spec §4.9/§5). Defaults to compress.AlgorithmLZ4;
// compress.AlgorithmNone skips compression entirely (useful when spooled
// batches are small enough that compression overhead isn't worth it),
// while AlgorithmS2 and AlgorithmZstd trade CPU for a smaller resident
// footprint during wide reorder windows.
func WithSpoolCompression(algorithm compress.Algorithm) Option {
	return options.NoError(func(c *Config) { c.SpoolCompression = algorithm })
}
