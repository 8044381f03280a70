// Package spool compresses a buffered-but-not-yet-emitted payload while the
// record pipeline's reorder stage waits for an earlier chunk to finish, so a
// fast worker racing far ahead of the in-order cursor doesn't pin many
// chunks' full rendered text in memory uncompressed.
package spool

import "github.com/goevtx/evtx/compress"

// Spool compresses and decompresses opaque byte payloads through one
// compress.Codec. Callers own their own encoding of whatever they're
// spooling (reader encodes a chunk's decoded records before calling Pack).
type Spool struct {
	codec compress.Codec
}

// New creates a Spool using algorithm, defaulting callers through
// compress.CreateCodec so an unsupported algorithm fails fast.
func New(algorithm compress.Algorithm) (*Spool, error) {
	codec, err := compress.CreateCodec(algorithm, "spool")
	if err != nil {
		return nil, err
	}

	return &Spool{codec: codec}, nil
}

// Pack compresses data for storage while this payload waits its turn.
func (s *Spool) Pack(data []byte) ([]byte, error) {
	return s.codec.Compress(data)
}

// Unpack restores a payload previously returned by Pack.
func (s *Spool) Unpack(data []byte) ([]byte, error) {
	return s.codec.Decompress(data)
}
