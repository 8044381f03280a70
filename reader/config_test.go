package reader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goevtx/evtx/compress"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	require.Equal(t, 1, cfg.Threads)
	require.Equal(t, 1252, cfg.ANSICodePage)
	require.True(t, cfg.ValidateChecksums)
	require.False(t, cfg.StopOnError)
	require.False(t, cfg.HasRecordIDRange)
	require.Equal(t, FormatXML, cfg.Format)
	require.Equal(t, compress.AlgorithmLZ4, cfg.SpoolCompression)
}

func TestWithThreadsClampsBelowOne(t *testing.T) {
	cfg, err := NewConfig(WithThreads(0))
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Threads)

	cfg, err = NewConfig(WithThreads(-5))
	require.NoError(t, err)
	require.Equal(t, 1, cfg.Threads)

	cfg, err = NewConfig(WithThreads(8))
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Threads)
}

func TestWithRecordIDRange(t *testing.T) {
	cfg, err := NewConfig(WithRecordIDRange(10, 20))
	require.NoError(t, err)
	require.True(t, cfg.HasRecordIDRange)
	require.Equal(t, uint64(10), cfg.MinRecordID)
	require.Equal(t, uint64(20), cfg.MaxRecordID)
}

func TestWithANSICodePage(t *testing.T) {
	cfg, err := NewConfig(WithANSICodePage(1250))
	require.NoError(t, err)
	require.Equal(t, 1250, cfg.ANSICodePage)
}

func TestWithValidateChecksums(t *testing.T) {
	cfg, err := NewConfig(WithValidateChecksums(false))
	require.NoError(t, err)
	require.False(t, cfg.ValidateChecksums)
}

func TestWithStopOnError(t *testing.T) {
	cfg, err := NewConfig(WithStopOnError(true))
	require.NoError(t, err)
	require.True(t, cfg.StopOnError)
}

func TestWithFormat(t *testing.T) {
	cfg, err := NewConfig(WithFormat(FormatJSON))
	require.NoError(t, err)
	require.Equal(t, FormatJSON, cfg.Format)
}

func TestWithSpoolCompression(t *testing.T) {
	cfg, err := NewConfig(WithSpoolCompression(compress.AlgorithmS2))
	require.NoError(t, err)
	require.Equal(t, compress.AlgorithmS2, cfg.SpoolCompression)
}
