// Package evtx decodes Windows Event Log (.evtx) files: binary file and
// chunk headers, BinXML-tokenized event records, and their string/template
// caches, rendering each record as XML or JSON text.
//
// # Basic usage
//
//	r, err := evtx.Open("Security.evtx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	for rec, err := range r.Records() {
//	    if err != nil {
//	        log.Println(err)
//	        continue
//	    }
//	    fmt.Println(rec.Data)
//	}
//
// For multi-threaded decoding, pass reader.WithThreads:
//
//	for rec, err := range r.Records(reader.WithThreads(4)) {
//	    ...
//	}
//
// This package provides a thin wrapper around the reader and serialize
// packages. For fine-grained control over chunk/record iteration, use those
// packages directly.
package evtx

import (
	"iter"

	"github.com/goevtx/evtx/reader"
)

// Reader owns one open EVTX file.
type Reader struct {
	file *reader.File
}

// Open opens path and validates its file header.
func Open(path string) (*Reader, error) {
	f, err := reader.OpenFile(path, true)
	if err != nil {
		return nil, err
	}

	return &Reader{file: f}, nil
}

// OpenBytes validates an in-memory EVTX file's header; data must not be
// modified for the lifetime of the returned Reader.
func OpenBytes(data []byte) (*Reader, error) {
	f, err := reader.OpenBytes(data, true)
	if err != nil {
		return nil, err
	}

	return &Reader{file: f}, nil
}

// Close releases any file handle held by r. A no-op for a byte-backed Reader.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Records decodes r's event records in file order, applying opts (thread
// count, ANSI code page, checksum validation, record-ID filtering, error
// policy, output format).
func (r *Reader) Records(opts ...reader.Option) iter.Seq2[reader.Record, error] {
	cfg, err := reader.NewConfig(opts...)
	if err != nil {
		return func(yield func(reader.Record, error) bool) {
			yield(reader.Record{}, err)
		}
	}

	return reader.RecordStream(r.file, cfg)
}

// RecordsXML is Records with Format forced to XML, regardless of any
// reader.WithFormat passed in opts.
func (r *Reader) RecordsXML(opts ...reader.Option) iter.Seq2[reader.Record, error] {
	return r.Records(append(append([]reader.Option{}, opts...), reader.WithFormat(reader.FormatXML))...)
}

// RecordsJSON is Records with Format forced to JSON, regardless of any
// reader.WithFormat passed in opts.
func (r *Reader) RecordsJSON(opts ...reader.Option) iter.Seq2[reader.Record, error] {
	return r.Records(append(append([]reader.Option{}, opts...), reader.WithFormat(reader.FormatJSON))...)
}
