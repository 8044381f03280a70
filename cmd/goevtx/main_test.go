package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goevtx/evtx/section"
)

// buildMinimalFile assembles a valid, empty (zero-chunk) EVTX file — enough
// to exercise run()'s open/iterate/report plumbing without needing a full
// BinXML fixture.
func buildMinimalFile(t *testing.T) []byte {
	t.Helper()

	hdr := section.FileHeader{MajorVersion: 3, MinorVersion: 1}
	return hdr.Bytes()
}

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.evtx")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunNoArgsReturnsUsageError(t *testing.T) {
	require.Equal(t, 2, run(nil))
}

func TestRunUnrecognisedFormat(t *testing.T) {
	path := writeTempFile(t, buildMinimalFile(t))
	require.Equal(t, 2, run([]string{"-format", "yaml", path}))
}

func TestRunMissingFile(t *testing.T) {
	require.Equal(t, 1, run([]string{filepath.Join(t.TempDir(), "nope.evtx")}))
}

func TestRunEmptyFileSucceeds(t *testing.T) {
	path := writeTempFile(t, buildMinimalFile(t))
	out := filepath.Join(t.TempDir(), "out.xml")

	require.Equal(t, 0, run([]string{"-out", out, path}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Empty(t, bytes.TrimSpace(data))
}

func TestRunBadMagicReportsError(t *testing.T) {
	data := buildMinimalFile(t)
	data[0] = 'X'
	path := writeTempFile(t, data)

	require.Equal(t, 1, run([]string{path}))
}

func TestRunTruncatedFileReportsError(t *testing.T) {
	data := buildMinimalFile(t)[:10]
	path := writeTempFile(t, data)

	require.Equal(t, 1, run([]string{path}))
}

func TestRunAcceptsJSONFormatAliases(t *testing.T) {
	path := writeTempFile(t, buildMinimalFile(t))

	for _, format := range []string{"json", "json-lines", "json-pretty"} {
		out := filepath.Join(t.TempDir(), "out."+format)
		require.Equal(t, 0, run([]string{"-format", format, "-out", out, path}), "format %q", format)
	}
}

func TestRunAcceptsSpoolCompressionAlgorithms(t *testing.T) {
	path := writeTempFile(t, buildMinimalFile(t))

	for _, algo := range []string{"none", "lz4", "s2", "zstd"} {
		out := filepath.Join(t.TempDir(), "out."+algo)
		require.Equal(t, 0, run([]string{"-spool-compression", algo, "-out", out, path}), "algorithm %q", algo)
	}
}

func TestRunUnrecognisedSpoolCompression(t *testing.T) {
	path := writeTempFile(t, buildMinimalFile(t))
	require.Equal(t, 2, run([]string{"-spool-compression", "gzip", path}))
}
