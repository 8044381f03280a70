package compress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeated many times. " +
		"the quick brown fox jumps over the lazy dog, repeated many times.")

	for _, algorithm := range []Algorithm{AlgorithmNone, AlgorithmLZ4, AlgorithmS2, AlgorithmZstd} {
		t.Run(algorithm.String(), func(t *testing.T) {
			codec, err := CreateCodec(algorithm, "test")
			require.NoError(t, err)

			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, decompressed)
		})
	}
}

func TestCodecRoundTripEmpty(t *testing.T) {
	for _, algorithm := range []Algorithm{AlgorithmNone, AlgorithmLZ4, AlgorithmS2, AlgorithmZstd} {
		t.Run(algorithm.String(), func(t *testing.T) {
			codec, err := CreateCodec(algorithm, "test")
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestCreateCodecInvalid(t *testing.T) {
	_, err := CreateCodec(Algorithm(255), "test")
	require.Error(t, err)
}

func TestGetCodec(t *testing.T) {
	codec, err := GetCodec(AlgorithmLZ4)
	require.NoError(t, err)
	require.NotNil(t, codec)

	_, err = GetCodec(Algorithm(255))
	require.Error(t, err)
}
