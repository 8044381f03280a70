// Command goevtx renders one or more EVTX files to XML or JSON on stdout or
// to a file.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/goevtx/evtx"
	"github.com/goevtx/evtx/compress"
	"github.com/goevtx/evtx/reader"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("goevtx", flag.ContinueOnError)

	format := fs.String("format", "xml", "output format: xml, json, json-pretty, or json-lines")
	threads := fs.Int("threads", 1, "number of chunk-decoding goroutines")
	minID := fs.Uint64("min", 0, "minimum EventRecordID to include")
	maxID := fs.Uint64("max", 0, "maximum EventRecordID to include (0 means unbounded)")
	out := fs.String("out", "-", "output path, or - for stdout")
	codepage := fs.Int("codepage", 1252, "Windows ANSI code page for AnsiString values")
	validate := fs.Bool("validate-checksums", true, "validate CRC-32 checksums")
	stopOnError := fs.Bool("stop-on-error", false, "stop at the first decode error instead of warning and continuing")
	verbosity := fs.Int("verbosity", 1, "0=silent, 1=warnings, 2=verbose")
	spoolCompression := fs.String("spool-compression", "lz4", "codec for in-flight record spooling: none, lz4, s2, or zstd")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "goevtx: at least one input file is required")
		return 2
	}

	outputFormat := reader.FormatXML
	switch *format {
	case "xml":
		outputFormat = reader.FormatXML
	case "json", "json-lines":
		// json-lines is FormatJSON rendered one compact record per output
		// line, which is already how renderFile writes every format.
		outputFormat = reader.FormatJSON
	case "json-pretty":
		outputFormat = reader.FormatJSONPretty
	default:
		fmt.Fprintf(os.Stderr, "goevtx: unrecognised -format %q\n", *format)
		return 2
	}

	spoolAlgorithm, err := parseSpoolCompression(*spoolCompression)
	if err != nil {
		fmt.Fprintf(os.Stderr, "goevtx: %v\n", err)
		return 2
	}

	w, closeW, err := openOutput(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "goevtx: %v\n", err)
		return 2
	}
	defer closeW()

	opts := []reader.Option{
		reader.WithThreads(*threads),
		reader.WithANSICodePage(*codepage),
		reader.WithValidateChecksums(*validate),
		reader.WithStopOnError(*stopOnError),
		reader.WithFormat(outputFormat),
		reader.WithSpoolCompression(spoolAlgorithm),
	}
	if *minID > 0 || *maxID > 0 {
		upper := *maxID
		if upper == 0 {
			upper = math.MaxUint64
		}
		opts = append(opts, reader.WithRecordIDRange(*minID, upper))
	}

	hadFatalError := false
	hadParseError := false

	for _, path := range paths {
		parseErrored, err := renderFile(path, w, opts, *verbosity, *stopOnError)
		if err != nil {
			log.Printf("goevtx: %s: %v", path, err)
			hadFatalError = true
			continue
		}
		if parseErrored {
			hadParseError = true
		}
	}

	switch {
	case hadFatalError:
		return 1
	case hadParseError && *stopOnError:
		return 2
	default:
		return 0
	}
}

// renderFile renders path's records to w. The returned bool reports whether
// any record-level parse error was seen (spec §6 exit code 2, only
// meaningful when stopOnError is set); the returned error is reserved for
// fatal setup/IO failures (exit code 1) — opening the file, or writing to
// w.
func renderFile(path string, w io.Writer, opts []reader.Option, verbosity int, stopOnError bool) (bool, error) {
	r, err := evtx.Open(path)
	if err != nil {
		return false, err
	}
	defer r.Close()

	parseErrored := false

	for rec, err := range r.Records(opts...) {
		if err != nil {
			parseErrored = true
			if verbosity >= 1 {
				log.Printf("goevtx: %s: %v", path, err)
			}
			if stopOnError {
				// Returning here drops out of the range-over-func loop,
				// which runs the iterator's stop path and cancels the
				// pipeline's remaining chunk workers (spec §6 "first error
				// halts output", §5 cancellation).
				return true, nil
			}
			continue
		}

		for _, warning := range rec.Warnings {
			if verbosity >= 1 {
				log.Printf("goevtx: %s: record %d: %v", path, rec.EventRecordID, warning.Err)
			}
		}

		if _, err := io.WriteString(w, rec.Data); err != nil {
			return parseErrored, err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return parseErrored, err
		}
	}

	return parseErrored, nil
}

// parseSpoolCompression maps the -spool-compression flag to a
// compress.Algorithm, the codec the pipeline uses to spool a chunk's
// rendered records while they wait their turn in file order (spec §4.9).
func parseSpoolCompression(name string) (compress.Algorithm, error) {
	switch name {
	case "none":
		return compress.AlgorithmNone, nil
	case "lz4":
		return compress.AlgorithmLZ4, nil
	case "s2":
		return compress.AlgorithmS2, nil
	case "zstd":
		return compress.AlgorithmZstd, nil
	default:
		return 0, fmt.Errorf("unrecognised -spool-compression %q", name)
	}
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	return f, func() { f.Close() }, nil
}
