package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

// Embeddings are stored as raw little-endian float arrays:
// 768 float64s for the remote vector, 384 float32s for the local vector. No
// header, no length prefix — the column's nullness is the only presence
// signal, and dimension is fixed by convention per column.

func encodeRemoteEmbedding(v []float64) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeRemoteEmbedding(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("remote embedding blob length %d not a multiple of 8: %w", len(b), cortexerr.ErrStorageCorrupt)
	}
	n := len(b) / 8
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}

func encodeLocalEmbedding(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeLocalEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("local embedding blob length %d not a multiple of 4: %w", len(b), cortexerr.ErrStorageCorrupt)
	}
	n := len(b) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// remoteDimOK reports whether v, once decoded, has the expected remote
// dimensionality — used by "with embedding" queries to skip rows whose
// stored vector is corrupt rather than failing the whole query.
func remoteDimOK(v []float64) bool { return len(v) == memory.RemoteEmbeddingDim }

func localDimOK(v []float32) bool { return len(v) == memory.LocalEmbeddingDim }
